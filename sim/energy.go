package sim

// First-order radio energy model. Transmission cost grows with the square of
// the hop distance; reception cost is distance-independent. Constants follow
// the usual 50nJ/bit electronics and 100pJ/bit/m^2 amplifier figures.
const (
	// MonitoringCost is the energy drain per time slice while ACTIVE.
	MonitoringCost = 0.05

	eElec            = 50e-9
	eAmp             = 100e-12
	pathLossExponent = 2
	packetSizeBits   = 512
)

// ActivityCost returns the energy cost of holding the given action for one
// working time slice. Sleeping spends nothing: a sensor's energy only moves
// while it is ACTIVE or handling traffic.
func ActivityCost(action Action, slice float64) float64 {
	if action == ActionActive {
		return MonitoringCost * slice
	}
	return 0
}

// TxCost returns the energy cost of transmitting one packet over distance d.
func TxCost(d float64) float64 {
	if d <= 0 {
		return eElec * packetSizeBits
	}
	amp := d
	for i := 1; i < pathLossExponent; i++ {
		amp *= d
	}
	return eElec*packetSizeBits + eAmp*packetSizeBits*amp
}

// RxCost returns the energy cost of receiving one packet.
func RxCost() float64 {
	return eElec * packetSizeBits
}
