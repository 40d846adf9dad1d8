package sim

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles Prometheus metrics for the per-round result stream and
// plugs into an Engine via OnRound. Registration is against an injected
// Registerer so parallel optimizer runs can use isolated registries (or skip
// registration entirely by not attaching a collector).
type Collector struct {
	AliveSensors  prometheus.Gauge
	ActiveSensors prometheus.Gauge
	CoverageRatio prometheus.Gauge
	KCoveredPOIs  prometheus.Gauge

	MessagesGenerated prometheus.Counter
	MessagesDelivered prometheus.Counter
	MessagesDropped   *prometheus.CounterVec

	lastGenerated int
	lastDelivered int
	lastDropped   map[DropReason]int
	targetK       int
	pois          []*POI
}

// NewCollector registers the simulation metrics against reg, defaulting to
// the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer, targetK int, pois []*POI) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		AliveSensors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wsn_alive_sensors",
			Help: "Number of sensors not yet dead.",
		}),
		ActiveSensors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wsn_active_sensors",
			Help: "Number of sensors monitoring this round.",
		}),
		CoverageRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wsn_coverage_ratio",
			Help: "Fraction of POIs meeting the k-coverage target this round.",
		}),
		KCoveredPOIs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wsn_k_covered_pois",
			Help: "Number of POIs meeting the k-coverage target this round.",
		}),
		MessagesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsn_messages_generated_total",
			Help: "Total POI reports generated.",
		}),
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsn_messages_delivered_total",
			Help: "Total POI reports delivered to the sink.",
		}),
		MessagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsn_messages_dropped_total",
			Help: "Total POI reports dropped, labeled by reason.",
		}, []string{"reason"}),
		lastDropped: make(map[DropReason]int),
		targetK:     targetK,
		pois:        pois,
	}
	collectors := []prometheus.Collector{
		c.AliveSensors, c.ActiveSensors, c.CoverageRatio, c.KCoveredPOIs,
		c.MessagesGenerated, c.MessagesDelivered, c.MessagesDropped,
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRound publishes one committed RoundStats. Counters receive the delta
// against the previous round since RoundStats carries cumulative counts.
func (c *Collector) ObserveRound(stats RoundStats) {
	c.AliveSensors.Set(float64(stats.AliveSensors))
	c.ActiveSensors.Set(float64(stats.ActiveSensors))
	c.CoverageRatio.Set(stats.CoverageRatio)
	c.KCoveredPOIs.Set(float64(stats.Coverage.KCovered(c.pois, c.targetK)))

	c.MessagesGenerated.Add(float64(stats.Generated - c.lastGenerated))
	c.MessagesDelivered.Add(float64(stats.Delivered - c.lastDelivered))
	for reason, n := range stats.Dropped {
		c.MessagesDropped.WithLabelValues(string(reason)).Add(float64(n - c.lastDropped[reason]))
		c.lastDropped[reason] = n
	}
	c.lastGenerated = stats.Generated
	c.lastDelivered = stats.Delivered
}
