// Multi-hop best-effort communication toward the sink. Loss and queue drops
// are final for a message instance: there is no retransmission.

package sim

import (
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// Router forwards queued messages hop-by-hop toward the sink.
//
// Next-hop selection is greedy shortest-geometric-distance: among alive ACTIVE
// sensors (or the sink) within mutual comm range of the current holder, the
// candidate closest to the sink wins, and only candidates strictly closer to
// the sink than the holder are considered. Ties between equally close
// candidates break toward the lowest sensor id, so routing is deterministic.
type Router struct {
	// LossProbability is drawn against once per transmission attempt.
	LossProbability float64
	// DelayPerHop is accumulated into a message's recorded delay at each hop.
	DelayPerHop float64

	rng *rand.Rand
}

// NewRouter creates a Router drawing loss decisions from rng.
func NewRouter(lossProbability, delayPerHop float64, rng *rand.Rand) *Router {
	return &Router{
		LossProbability: lossProbability,
		DelayPerHop:     delayPerHop,
		rng:             rng,
	}
}

// RoundTraffic summarizes one round of message forwarding.
type RoundTraffic struct {
	Delivered int
	Dropped   map[DropReason]int
	// Latencies holds, per delivered message, rounds-in-flight plus
	// accumulated per-hop delay.
	Latencies []float64
}

// NextHop picks the relay for a message currently held by from.
// Returns nil when no alive active neighbor makes geometric progress toward
// the sink; the message then stays queued and retries next round.
func (r *Router) NextHop(sensors []*Sensor, from, sink *Sensor) *Sensor {
	holderDist := Distance(from.Pos, sink.Pos)
	var best *Sensor
	var bestDist float64
	for _, cand := range sensors {
		if cand.ID == from.ID {
			continue
		}
		if !cand.IsSink && (cand.State != StateActive || !cand.Alive()) {
			continue
		}
		if !from.CanReach(cand) {
			continue
		}
		d := Distance(cand.Pos, sink.Pos)
		if d >= holderDist && !cand.IsSink {
			continue
		}
		switch {
		case best == nil, d < bestDist:
			best, bestDist = cand, d
		case d == bestDist && cand.ID < best.ID:
			best = cand
		}
	}
	return best
}

// ForwardRound advances every queued message by at most one hop.
//
// Queue lengths are snapshotted before any forwarding, so a message relayed
// to a later-processed sensor waits until the next round for its next hop.
// Sensors are processed in ascending id order; combined with the snapshot this
// keeps the round's outcome independent of map iteration order.
func (r *Router) ForwardRound(sensors []*Sensor, sink *Sensor, round int) RoundTraffic {
	traffic := RoundTraffic{Dropped: make(map[DropReason]int)}

	ordered := make([]*Sensor, 0, len(sensors))
	for _, s := range sensors {
		if !s.IsSink && s.Outbound != nil {
			ordered = append(ordered, s)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	budgets := make(map[int]int, len(ordered))
	for _, s := range ordered {
		budgets[s.ID] = s.Outbound.Len()
	}

	for _, s := range ordered {
		for i := 0; i < budgets[s.ID]; i++ {
			msg := s.Outbound.Pop()
			if msg == nil {
				break
			}
			r.forwardOne(sensors, s, sink, msg, round, &traffic)
		}
	}
	return traffic
}

// forwardOne attempts a single hop for msg held by from.
func (r *Router) forwardOne(sensors []*Sensor, from, sink *Sensor, msg *Message, round int, traffic *RoundTraffic) {
	// A holder that died or went to sleep since enqueueing cannot transmit;
	// the message waits in its queue.
	if from.State != StateActive || !from.Alive() {
		r.requeue(from, msg, traffic)
		return
	}

	next := r.NextHop(sensors, from, sink)
	if next == nil {
		logrus.Debugf("[round %04d] no route from sensor %d for POI %d report", round, from.ID, msg.POIID)
		r.requeue(from, msg, traffic)
		return
	}

	if msg.HopBudget <= 0 {
		traffic.Dropped[DropHopsExhausted]++
		return
	}

	// Transmission energy is spent whether or not the packet survives the link.
	from.ConsumeEnergy(TxCost(Distance(from.Pos, next.Pos)))

	if r.rng.Float64() < r.LossProbability {
		logrus.Debugf("[round %04d] link loss %d->%d", round, from.ID, next.ID)
		traffic.Dropped[DropLinkLoss]++
		return
	}

	msg.HopBudget--
	msg.Delay += r.DelayPerHop

	if next.IsSink {
		traffic.Delivered++
		traffic.Latencies = append(traffic.Latencies, float64(round-msg.CreatedAt)+msg.Delay)
		logrus.Debugf("[round %04d] delivered POI %d report from sensor %d", round, msg.POIID, msg.OriginID)
		return
	}

	next.ConsumeEnergy(RxCost())
	if !next.Alive() {
		// Receiver died on reception; the message dies with it.
		traffic.Dropped[DropQueueFull]++
		return
	}
	if !next.Outbound.Push(msg) {
		traffic.Dropped[DropQueueFull]++
	}
}

// requeue puts an unforwardable message back for a retry next round.
// The slot it was popped from may have been taken by a newer arrival, in
// which case the message is dropped like any other tail overflow.
func (r *Router) requeue(holder *Sensor, msg *Message, traffic *RoundTraffic) {
	if !holder.Outbound.Push(msg) {
		traffic.Dropped[DropQueueFull]++
	}
}
