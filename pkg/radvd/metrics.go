package radvd

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "radvsup"

// Metrics holds the supervisor collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	starts              *prometheus.CounterVec
	stops               *prometheus.CounterVec
	launchFailures      *prometheus.CounterVec
	configWriteFailures *prometheus.CounterVec
	prefixes            *prometheus.GaugeVec
	announcing          *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	labels := []string{"interface"}
	m := &Metrics{
		starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "daemon_starts_total",
			Help:      "Number of radvd processes launched.",
		}, labels),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "daemon_stops_total",
			Help:      "Number of radvd processes signalled to stop.",
		}, labels),
		launchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "launch_failures_total",
			Help:      "Number of failed radvd launches.",
		}, labels),
		configWriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "config_write_failures_total",
			Help:      "Number of radvd configuration files that could not be written.",
		}, labels),
		prefixes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "advertised_prefixes",
			Help:      "Prefixes currently held for advertisement.",
		}, labels),
		announcing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "announcing",
			Help:      "1 while a radvd process is held for the interface.",
		}, labels),
	}

	if reg != nil {
		reg.MustRegister(m.starts, m.stops, m.launchFailures, m.configWriteFailures, m.prefixes, m.announcing)
	}
	return m
}

func (m *Metrics) daemonStarted(ifname string) {
	if m == nil {
		return
	}
	m.starts.WithLabelValues(ifname).Inc()
	m.announcing.WithLabelValues(ifname).Set(1)
}

func (m *Metrics) daemonStopped(ifname string) {
	if m == nil {
		return
	}
	m.stops.WithLabelValues(ifname).Inc()
}

func (m *Metrics) setAnnouncing(ifname string, on bool) {
	if m == nil {
		return
	}
	v := 0.0
	if on {
		v = 1
	}
	m.announcing.WithLabelValues(ifname).Set(v)
}

func (m *Metrics) launchFailed(ifname string) {
	if m == nil {
		return
	}
	m.launchFailures.WithLabelValues(ifname).Inc()
}

func (m *Metrics) configWriteFailed(ifname string) {
	if m == nil {
		return
	}
	m.configWriteFailures.WithLabelValues(ifname).Inc()
}

func (m *Metrics) setPrefixes(ifname string, n int) {
	if m == nil {
		return
	}
	m.prefixes.WithLabelValues(ifname).Set(float64(n))
}

// Forget drops every series for an interface that is no longer supervised.
func (m *Metrics) Forget(ifname string) {
	if m == nil {
		return
	}
	for _, v := range []*prometheus.CounterVec{m.starts, m.stops, m.launchFailures, m.configWriteFailures} {
		v.DeleteLabelValues(ifname)
	}
	m.prefixes.DeleteLabelValues(ifname)
	m.announcing.DeleteLabelValues(ifname)
}
