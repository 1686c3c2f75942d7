package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"github.com/veesix-networks/radvsup/internal/exporter"
	"github.com/veesix-networks/radvsup/internal/radvdmgr"
	"github.com/veesix-networks/radvsup/internal/watchdog"
	"github.com/veesix-networks/radvsup/internal/watchdog/targets"
	"github.com/veesix-networks/radvsup/pkg/component"
	"github.com/veesix-networks/radvsup/pkg/config"
	"github.com/veesix-networks/radvsup/pkg/events"
	"github.com/veesix-networks/radvsup/pkg/events/local"
	"github.com/veesix-networks/radvsup/pkg/logger"
	"github.com/veesix-networks/radvsup/pkg/radvd"
	"github.com/veesix-networks/radvsup/pkg/version"
)

func main() {
	configPath := flag.String("config", "configs/radvsup.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Banner("radvsupd"))
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	componentLevels := make(map[string]logger.LogLevel, len(cfg.Logging.Components))
	for name, lvl := range cfg.Logging.Components {
		componentLevels[name] = logger.LogLevel(lvl)
	}
	logger.Configure(cfg.Logging.Format, logger.LogLevel(cfg.Logging.Level), componentLevels)

	mainLog := logger.Get(logger.Main)
	mainLog.Info("Starting radvsupd", "version", version.Full(), "config", *configPath, "interfaces", len(cfg.Interfaces))

	eventBus := local.NewBus()
	defer eventBus.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := component.Dependencies{
		EventBus: eventBus,
		Config:   cfg,
		Metrics:  radvd.NewMetrics(registry),
		Fs:       afero.NewOsFs(),
		Runtime:  radvd.NewExecRuntime(),
	}

	manager, err := radvdmgr.New(deps)
	if err != nil {
		log.Fatalf("Failed to create radvd manager: %v", err)
	}

	orch := component.NewOrchestrator()
	orch.Register(manager)

	wd := watchdog.New()
	registry.MustRegister(watchdog.NewCollector(wd))
	if cfg.Watchdog.Enabled {
		runnerCfg := watchdog.RunnerConfigFrom(cfg.Watchdog)
		eventBus.Subscribe(events.TopicConfigApplied, func(e events.Event) {
			applied, ok := e.Data.(events.ConfigAppliedEvent)
			if !ok {
				return
			}
			targets.Sync(wd, applied.Interfaces, manager.Get, runnerCfg)
		})
		if !cfg.Radvd.Foreground {
			mainLog.Warn("Watchdog enabled without radvd foreground mode, daemonized radvd cannot be tracked")
		}
	}
	orch.Register(wd)

	if exp := exporter.New(cfg.Monitoring, registry, wd, manager); exp != nil {
		orch.Register(exp)
	}

	ctx := context.Background()
	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start components: %v", err)
	}

	if err := manager.WatchConfig(*configPath, radvdmgr.DefaultReloadDelay); err != nil {
		mainLog.Warn("Config hot reload disabled", "error", err)
	}

	mainLog.Info("radvsupd started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	mainLog.Info("Shutting down radvsupd...")

	if err := orch.Stop(ctx); err != nil {
		mainLog.Error("Error stopping components", "error", err)
	}

	mainLog.Info("radvsupd stopped")
}
