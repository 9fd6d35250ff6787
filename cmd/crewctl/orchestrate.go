package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"crewctl/internal/metricsserver"
	"crewctl/internal/prompts"
	"crewctl/pkg/config"
	"crewctl/pkg/logx"
	"crewctl/pkg/metrics"
	"crewctl/pkg/runtime"
)

var log = logx.NewLogger("cli")

const metricsShutdownTimeout = 5 * time.Second

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate [dir]",
	Short: "Spawn the full fleet (manager, architect, developer, scorer) and block",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workingDir := "."
		if len(args) == 1 {
			workingDir = args[0]
		}

		cfg, rt, srv, err := startFleet(cmd, workingDir)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		log.Info("orchestrator running: socket_dir=%s working_dir=%s", cfg.SocketDir, cfg.WorkingDir)
		runErr := rt.Run(ctx)
		stopFleet(srv)
		return runErr
	},
}

// startFleet loads configuration and constructs the supervisor, its
// renderer and metrics registry, and the metrics HTTP exposition server,
// but does not block: the caller owns rt.Run's lifetime.
func startFleet(cmd *cobra.Command, workingDir string) (*config.Config, *runtime.Runtime, *metricsserver.Server, error) {
	cfg, err := config.Load(configPathFor(cmd))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if workingDir != "." {
		cfg.WorkingDir = workingDir
	}

	renderer, err := prompts.NewRenderer()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build renderer: %w", err)
	}

	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
	rt := runtime.New(cfg, renderer, reg)

	srv := metricsserver.New(cfg.Metrics.ListenAddr, prometheus.DefaultGatherer)
	srv.Start()

	return cfg, rt, srv, nil
}

func stopFleet(srv *metricsserver.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("metrics server shutdown: %v", err)
	}
}

func configPathFor(cmd *cobra.Command) string {
	if p := configPathFlag(cmd); p != "" {
		return p
	}
	return config.ConfigPath()
}
