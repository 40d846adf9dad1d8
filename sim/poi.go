package sim

// POI is a point of interest the network must keep under observation.
type POI struct {
	ID int
	// Pos is the fixed location of the point.
	Pos Point
	// CriticalLevel is the priority weight used by the weighted coverage
	// metric. Higher means more important; must be >= 1.
	CriticalLevel int
}
