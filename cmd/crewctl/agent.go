package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"crewctl/internal/prompts"
	"crewctl/pkg/backend/factory"
	"crewctl/pkg/config"
	"crewctl/pkg/metrics"
	"crewctl/pkg/proto"
	"crewctl/pkg/worker"
)

var agentCmd = &cobra.Command{
	Use:   "agent <role> [dir]",
	Short: "Run a single agent worker standalone",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := proto.ParseRole(args[0])
		if err != nil {
			return err
		}
		workingDir := "."
		if len(args) == 2 {
			workingDir = args[1]
		}
		return runSingleAgent(cmd, role, workingDir)
	},
}

func runSingleAgent(cmd *cobra.Command, role proto.Role, workingDir string) error {
	cfg, err := config.Load(configPathFor(cmd))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if workingDir != "." {
		cfg.WorkingDir = workingDir
	}

	renderer, err := prompts.NewRenderer()
	if err != nil {
		return fmt.Errorf("build renderer: %w", err)
	}

	systemPrompt, err := renderer.SystemPrompt(role)
	if err != nil {
		return fmt.Errorf("load system prompt: %w", err)
	}

	backendCfg := cfg.BackendFor(string(role))
	be, err := factory.New(factory.Options{
		Kind:       backendCfg.Kind,
		APIKey:     backendCfg.APIKey,
		Model:      backendCfg.Model,
		OllamaHost: backendCfg.OllamaHost,
	})
	if err != nil {
		return fmt.Errorf("construct backend: %w", err)
	}

	// A standalone agent has no supervisor to hand privileged commands
	// to; it still needs somewhere to send them so its worker doesn't
	// block, so directives are logged and dropped.
	commandCh := make(chan proto.RuntimeCommand, 64)
	go drainCommands(role, commandCh)

	id := proto.NewSingletonID(role)
	if role == proto.RoleDeveloper {
		id = proto.NewDeveloperID(0)
	}

	// A standalone agent isn't exposed on the shared metrics endpoint
	// (that belongs to the full fleet), but the worker still needs a
	// registry to count against.
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	w, err := worker.New(worker.Config{
		ID:           id,
		SocketDir:    cfg.SocketDir,
		WorkingDir:   cfg.WorkingDir,
		SystemPrompt: systemPrompt,
		Backend:      be,
		Renderer:     renderer,
		Metrics:      reg,
		CommandCh:    commandCh,
	})
	if err != nil {
		return fmt.Errorf("build worker: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("agent %s listening: socket_dir=%s", id, cfg.SocketDir)
	return w.Run(ctx)
}

func drainCommands(role proto.Role, ch <-chan proto.RuntimeCommand) {
	for cmd := range ch {
		log.Warn("agent %s has no supervisor: dropping runtime command kind=%d", role, cmd.Kind)
	}
}
