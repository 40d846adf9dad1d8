package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// relaySensor builds an ACTIVE sensor suited for routing tests: ample energy,
// wide comm range, small queue.
func relaySensor(id int, pos Point, queueCap int) *Sensor {
	s := NewSensor(id, pos, 100.0, 50, 5, 0.1, queueCap)
	s.State = StateActive
	return s
}

func TestNextHop_PicksCandidateClosestToSink(t *testing.T) {
	sink := NewSink(0, Point{X: 20, Y: 0}, 50)
	from := relaySensor(1, Point{X: 0, Y: 0}, 4)
	near := relaySensor(2, Point{X: 10, Y: 0}, 4)
	far := relaySensor(3, Point{X: 5, Y: 0}, 4)
	all := []*Sensor{sink, from, near, far}

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))

	assert.Equal(t, near, r.NextHop(all, from, sink))
}

func TestNextHop_TieBreaksTowardLowestID(t *testing.T) {
	// GIVEN two candidates mirrored about the holder-sink axis, equidistant
	// from the sink
	sink := NewSink(0, Point{X: 10, Y: 0}, 50)
	from := relaySensor(5, Point{X: 0, Y: 0}, 4)
	upper := relaySensor(3, Point{X: 5, Y: 1}, 4)
	lower := relaySensor(2, Point{X: 5, Y: -1}, 4)
	all := []*Sensor{sink, from, upper, lower}

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))

	// THEN the lower id wins regardless of slice order
	assert.Equal(t, lower, r.NextHop(all, from, sink))
	assert.Equal(t, lower, r.NextHop([]*Sensor{upper, lower, from, sink}, from, sink))
}

func TestNextHop_RequiresStrictProgressTowardSink(t *testing.T) {
	// GIVEN only a neighbor that is farther from the sink than the holder,
	// with the sink itself out of reach
	sink := NewSink(0, Point{X: 100, Y: 0}, 50)
	from := relaySensor(1, Point{X: 60, Y: 0}, 4)
	behind := relaySensor(2, Point{X: 40, Y: 0}, 4)
	all := []*Sensor{sink, from, behind}

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))

	assert.Nil(t, r.NextHop(all, from, sink))
}

func TestNextHop_SkipsAsleepAndDeadCandidates(t *testing.T) {
	sink := NewSink(0, Point{X: 100, Y: 0}, 50)
	from := relaySensor(1, Point{X: 0, Y: 0}, 4)
	asleep := NewSensor(2, Point{X: 10, Y: 0}, 100.0, 50, 5, 0.1, 4)
	dead := relaySensor(3, Point{X: 10, Y: 1}, 4)
	dead.Kill()
	all := []*Sensor{sink, from, asleep, dead}

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))

	assert.Nil(t, r.NextHop(all, from, sink))
}

func TestForwardRound_DeliversToSinkAndRecordsLatency(t *testing.T) {
	// GIVEN a sensor one hop from the sink holding a two-round-old message
	sink := NewSink(0, Point{X: 5, Y: 0}, 50)
	from := relaySensor(1, Point{X: 0, Y: 0}, 4)
	from.Outbound.Push(&Message{OriginID: 1, POIID: 7, HopBudget: 10, CreatedAt: 3})
	all := []*Sensor{sink, from}

	r := NewRouter(0, 0.5, rand.New(rand.NewSource(1)))

	// WHEN the round is forwarded at round 5
	traffic := r.ForwardRound(all, sink, 5)

	// THEN the message is delivered with latency rounds-in-flight + hop delay
	assert.Equal(t, 1, traffic.Delivered)
	assert.Equal(t, 0, from.Outbound.Len())
	assert.Len(t, traffic.Latencies, 1)
	assert.InDelta(t, 2.5, traffic.Latencies[0], 1e-12)
}

func TestForwardRound_LossOne_DropsEveryTransmission(t *testing.T) {
	sink := NewSink(0, Point{X: 5, Y: 0}, 50)
	from := relaySensor(1, Point{X: 0, Y: 0}, 4)
	from.Outbound.Push(&Message{OriginID: 1, POIID: 1, HopBudget: 10})
	all := []*Sensor{sink, from}

	r := NewRouter(1.0, 0, rand.New(rand.NewSource(1)))
	traffic := r.ForwardRound(all, sink, 1)

	assert.Equal(t, 0, traffic.Delivered)
	assert.Equal(t, 1, traffic.Dropped[DropLinkLoss])
	assert.Equal(t, 0, from.Outbound.Len())
}

func TestForwardRound_SenderPaysTxEnergyEvenOnLoss(t *testing.T) {
	// GIVEN a lossy link
	sink := NewSink(0, Point{X: 5, Y: 0}, 50)
	from := relaySensor(1, Point{X: 0, Y: 0}, 4)
	from.Outbound.Push(&Message{OriginID: 1, POIID: 1, HopBudget: 10})
	before := from.RemainingEnergy

	r := NewRouter(1.0, 0, rand.New(rand.NewSource(1)))
	r.ForwardRound([]*Sensor{sink, from}, sink, 1)

	// THEN the transmission energy is gone even though the packet was lost
	assert.InDelta(t, before-TxCost(5), from.RemainingEnergy, 1e-15)
}

func TestForwardRound_FullRelayQueue_DropsQueueFull(t *testing.T) {
	// GIVEN a relay whose single queue slot is already taken
	sink := NewSink(0, Point{X: 100, Y: 0}, 200)
	from := relaySensor(1, Point{X: 0, Y: 0}, 4)
	relay := relaySensor(2, Point{X: 40, Y: 0}, 1)
	relay.CommRange = 200
	from.CommRange = 50 // the holder cannot skip straight to the sink
	relay.Outbound.Push(&Message{OriginID: 2, POIID: 9, HopBudget: 10})
	from.Outbound.Push(&Message{OriginID: 1, POIID: 1, HopBudget: 10})
	all := []*Sensor{sink, from, relay}

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))
	traffic := r.ForwardRound(all, sink, 1)

	// THEN the incoming message is dropped; the relay's own message moved on
	assert.Equal(t, 1, traffic.Dropped[DropQueueFull])
}

func TestForwardRound_HopBudgetZero_DropsHopsExhausted(t *testing.T) {
	sink := NewSink(0, Point{X: 5, Y: 0}, 50)
	from := relaySensor(1, Point{X: 0, Y: 0}, 4)
	from.Outbound.Push(&Message{OriginID: 1, POIID: 1, HopBudget: 0})

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))
	traffic := r.ForwardRound([]*Sensor{sink, from}, sink, 1)

	assert.Equal(t, 0, traffic.Delivered)
	assert.Equal(t, 1, traffic.Dropped[DropHopsExhausted])
}

func TestForwardRound_OneHopPerMessagePerRound(t *testing.T) {
	// GIVEN a relay chain 1 -> 2 -> sink where sensor 1 cannot reach the sink
	sink := NewSink(0, Point{X: 20, Y: 0}, 12)
	first := relaySensor(1, Point{X: 0, Y: 0}, 4)
	first.CommRange = 12
	second := relaySensor(2, Point{X: 10, Y: 0}, 4)
	second.CommRange = 12
	first.Outbound.Push(&Message{OriginID: 1, POIID: 1, HopBudget: 10})
	all := []*Sensor{sink, first, second}

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))

	// WHEN one round is forwarded
	traffic := r.ForwardRound(all, sink, 1)

	// THEN the message sits at the relay: it does not ride the same round's
	// processing of sensor 2 through to the sink
	assert.Equal(t, 0, traffic.Delivered)
	assert.Equal(t, 1, second.Outbound.Len())

	// AND the next round completes the delivery
	traffic = r.ForwardRound(all, sink, 2)
	assert.Equal(t, 1, traffic.Delivered)
	assert.Equal(t, 0, second.Outbound.Len())
}

func TestForwardRound_AsleepHolderKeepsMessageQueued(t *testing.T) {
	sink := NewSink(0, Point{X: 5, Y: 0}, 50)
	holder := NewSensor(1, Point{X: 0, Y: 0}, 100.0, 50, 5, 0.1, 4)
	holder.Outbound.Push(&Message{OriginID: 1, POIID: 1, HopBudget: 10})

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))
	traffic := r.ForwardRound([]*Sensor{sink, holder}, sink, 1)

	assert.Equal(t, 0, traffic.Delivered)
	assert.Equal(t, 0, len(traffic.Dropped))
	assert.Equal(t, 1, holder.Outbound.Len())
}

func TestForwardRound_NoRoute_MessageWaitsForNextRound(t *testing.T) {
	// GIVEN an active holder with no neighbor making progress toward the sink
	sink := NewSink(0, Point{X: 1000, Y: 0}, 10)
	holder := relaySensor(1, Point{X: 0, Y: 0}, 4)
	holder.Outbound.Push(&Message{OriginID: 1, POIID: 1, HopBudget: 10})

	r := NewRouter(0, 0, rand.New(rand.NewSource(1)))
	traffic := r.ForwardRound([]*Sensor{sink, holder}, sink, 1)

	assert.Equal(t, 0, traffic.Delivered)
	assert.Equal(t, 1, holder.Outbound.Len())
}
