package watchdog

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports target states from a StateProvider.
type Collector struct {
	provider StateProvider
	descs    map[string]*prometheus.Desc
}

func NewCollector(provider StateProvider) *Collector {
	labels := []string{"target"}
	return &Collector{
		provider: provider,
		descs: map[string]*prometheus.Desc{
			"up":       prometheus.NewDesc("radvsup_watchdog_target_up", "Whether the watchdog target is up (1) or not (0)", labels, nil),
			"duration": prometheus.NewDesc("radvsup_watchdog_health_check_duration_seconds", "Duration of the last health check in seconds", labels, nil),
			"failures": prometheus.NewDesc("radvsup_watchdog_failures_total", "Total number of health check failures", labels, nil),
			"restarts": prometheus.NewDesc("radvsup_watchdog_restarts_total", "Total number of target restarts", labels, nil),
		},
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.descs {
		ch <- desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, t := range c.provider.GetAllStates() {
		var up float64
		if t.State == StateUp.String() {
			up = 1
		}
		var seconds float64
		if t.LastCheck != nil {
			seconds = t.LastCheck.LatencyMs / 1000.0
		}

		ch <- prometheus.MustNewConstMetric(c.descs["up"], prometheus.GaugeValue, up, t.Name)
		ch <- prometheus.MustNewConstMetric(c.descs["duration"], prometheus.GaugeValue, seconds, t.Name)
		ch <- prometheus.MustNewConstMetric(c.descs["failures"], prometheus.CounterValue, float64(t.TotalFailures), t.Name)
		ch <- prometheus.MustNewConstMetric(c.descs["restarts"], prometheus.CounterValue, float64(t.TotalRestarts), t.Name)
	}
}
