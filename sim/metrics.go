// Aggregates simulation-wide statistics: message accounting, delivery
// latency, coverage quality over time, network lifetime.

package sim

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics across all rounds of one simulation run,
// for final reporting and for fitness reduction in the deployment optimizer.
type Metrics struct {
	Rounds    int
	Generated int
	Delivered int
	Dropped   map[DropReason]int

	// DeliveryLatencies holds rounds-in-flight plus accumulated per-hop delay
	// for every delivered message.
	DeliveryLatencies []float64
	// CoverageRatios holds the per-round k-coverage ratio series.
	CoverageRatios []float64
	// AliveSeries holds the per-round alive sensor counts.
	AliveSeries []int
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{Dropped: make(map[DropReason]int)}
}

// Observe folds one committed round into the aggregates.
func (m *Metrics) Observe(stats RoundStats, traffic RoundTraffic) {
	m.Rounds = stats.Round
	m.Generated = stats.Generated
	m.Delivered = stats.Delivered
	m.Dropped = stats.Dropped
	m.DeliveryLatencies = append(m.DeliveryLatencies, traffic.Latencies...)
	m.CoverageRatios = append(m.CoverageRatios, stats.CoverageRatio)
	m.AliveSeries = append(m.AliveSeries, stats.AliveSensors)
}

// DroppedTotal sums drops across all reasons.
func (m *Metrics) DroppedTotal() int {
	n := 0
	for _, v := range m.Dropped {
		n += v
	}
	return n
}

// PDR is the packet delivery ratio: delivered over generated.
// Returns 1 when nothing was generated.
func (m *Metrics) PDR() float64 {
	if m.Generated == 0 {
		return 1.0
	}
	return float64(m.Delivered) / float64(m.Generated)
}

// MeanCoverage returns the mean per-round k-coverage ratio.
func (m *Metrics) MeanCoverage() float64 {
	if len(m.CoverageRatios) == 0 {
		return 0
	}
	return stat.Mean(m.CoverageRatios, nil)
}

// MeanLatency returns the mean delivery latency, 0 when nothing was delivered.
func (m *Metrics) MeanLatency() float64 {
	if len(m.DeliveryLatencies) == 0 {
		return 0
	}
	return stat.Mean(m.DeliveryLatencies, nil)
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Rounds               : %d\n", m.Rounds)
	fmt.Printf("Messages Generated   : %d\n", m.Generated)
	fmt.Printf("Messages Delivered   : %d\n", m.Delivered)
	fmt.Printf("Messages Dropped     : %d\n", m.DroppedTotal())
	for reason, n := range m.Dropped {
		fmt.Printf("  %-18s : %d\n", reason, n)
	}
	fmt.Printf("Packet Delivery Ratio: %.3f\n", m.PDR())
	if len(m.DeliveryLatencies) > 0 {
		mean, std := stat.MeanStdDev(m.DeliveryLatencies, nil)
		fmt.Printf("Delivery Latency     : mean %.3f, stddev %.3f\n", mean, std)
	}
	if len(m.CoverageRatios) > 0 {
		mean, std := stat.MeanStdDev(m.CoverageRatios, nil)
		fmt.Printf("Coverage Ratio       : mean %.3f, stddev %.3f\n", mean, std)
	}
}
