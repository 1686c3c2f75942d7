package system

import "time"

type WatchdogConfig struct {
	Enabled            bool          `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	CheckInterval      time.Duration `json:"check-interval,omitempty" yaml:"check-interval,omitempty"`
	Timeout            time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	FailureThreshold   int           `json:"failure-threshold,omitempty" yaml:"failure-threshold,omitempty"`
	OnFailure          string        `json:"on-failure,omitempty" yaml:"on-failure,omitempty"`
	MinRestartInterval time.Duration `json:"min-restart-interval,omitempty" yaml:"min-restart-interval,omitempty"`
}

func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		Enabled:            false,
		CheckInterval:      5 * time.Second,
		Timeout:            2 * time.Second,
		FailureThreshold:   3,
		OnFailure:          "restart",
		MinRestartInterval: 10 * time.Second,
	}
}
