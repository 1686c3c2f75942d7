package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/renameio/v2"
	"github.com/veesix-networks/radvsup/pkg/config/system"
	"github.com/veesix-networks/radvsup/pkg/radvd"
	"gopkg.in/yaml.v3"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Save writes cfg atomically; readers never observe a partial file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Radvd.Binary == "" {
		c.Radvd.Binary = radvd.DefaultBinary
	}
	if c.Radvd.ConfDir == "" {
		c.Radvd.ConfDir = radvd.DefaultConfDir
	}
	if c.Radvd.PidDir == "" {
		c.Radvd.PidDir = radvd.DefaultPidDir
	}

	defaults := system.DefaultWatchdogConfig()
	if c.Watchdog.CheckInterval == 0 {
		c.Watchdog.CheckInterval = defaults.CheckInterval
	}
	if c.Watchdog.Timeout == 0 {
		c.Watchdog.Timeout = defaults.Timeout
	}
	if c.Watchdog.FailureThreshold == 0 {
		c.Watchdog.FailureThreshold = defaults.FailureThreshold
	}
	if c.Watchdog.OnFailure == "" {
		c.Watchdog.OnFailure = defaults.OnFailure
	}
	if c.Watchdog.MinRestartInterval == 0 {
		c.Watchdog.MinRestartInterval = defaults.MinRestartInterval
	}

	if c.Monitoring.Listen == "" {
		c.Monitoring.Listen = system.DefaultMonitoringListen
	}

	if c.Interfaces == nil {
		c.Interfaces = make(map[string]*InterfaceConfig)
	}
	for name, iface := range c.Interfaces {
		if iface == nil {
			c.Interfaces[name] = &InterfaceConfig{}
		}
	}
}

func (c *Config) Validate() error {
	for _, name := range c.InterfaceNames() {
		if name == "" {
			return fmt.Errorf("interfaces: empty interface name")
		}
		for i, p := range c.Interfaces[name].Prefixes {
			if _, err := radvd.ParsePrefix(p); err != nil {
				return fmt.Errorf("interfaces.%s.prefixes[%d]: %w", name, i, err)
			}
		}
	}

	switch c.Watchdog.OnFailure {
	case "restart", "warn":
	default:
		return fmt.Errorf("watchdog.on-failure: unknown action '%s'", c.Watchdog.OnFailure)
	}

	if c.Watchdog.CheckInterval < 0 || c.Watchdog.Timeout < 0 {
		return fmt.Errorf("watchdog: intervals must not be negative")
	}

	return nil
}

// InterfaceNames returns configured interfaces sorted by name.
func (c *Config) InterfaceNames() []string {
	names := make([]string, 0, len(c.Interfaces))
	for name := range c.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InterfacePrefixes parses the prefixes of one interface in configured order.
func (c *Config) InterfacePrefixes(name string) ([]radvd.Prefix, error) {
	iface, ok := c.Interfaces[name]
	if !ok {
		return nil, fmt.Errorf("interface %s not configured", name)
	}
	out := make([]radvd.Prefix, 0, len(iface.Prefixes))
	for _, s := range iface.Prefixes {
		p, err := radvd.ParsePrefix(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
