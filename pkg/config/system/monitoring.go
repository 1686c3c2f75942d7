package system

const DefaultMonitoringListen = ":9090"

type MonitoringConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Listen  string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

func (m MonitoringConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}
