package config

import "github.com/veesix-networks/radvsup/pkg/config/system"

type Config struct {
	Logging    system.LoggingConfig        `json:"logging,omitempty" yaml:"logging,omitempty"`
	Radvd      RadvdConfig                 `json:"radvd,omitempty" yaml:"radvd,omitempty"`
	Interfaces map[string]*InterfaceConfig `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Watchdog   system.WatchdogConfig       `json:"watchdog,omitempty" yaml:"watchdog,omitempty"`
	Monitoring system.MonitoringConfig     `json:"monitoring,omitempty" yaml:"monitoring,omitempty"`
}

type RadvdConfig struct {
	Binary       string `json:"binary,omitempty" yaml:"binary,omitempty"`
	ConfDir      string `json:"conf-dir,omitempty" yaml:"conf-dir,omitempty"`
	PidDir       string `json:"pid-dir,omitempty" yaml:"pid-dir,omitempty"`
	StrictConfig bool   `json:"strict-config,omitempty" yaml:"strict-config,omitempty"`
	Foreground   bool   `json:"foreground,omitempty" yaml:"foreground,omitempty"`
}

type InterfaceConfig struct {
	Netns    string   `json:"netns,omitempty" yaml:"netns,omitempty"`
	Prefixes []string `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`
}
