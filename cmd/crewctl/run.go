package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crewctl/pkg/proto"
	"crewctl/pkg/transport"
)

const managerReadyTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run <dir> <task...>",
	Short: "Bootstrap a fresh fleet in dir, then hand the manager a task",
	Long: `run starts the full fleet rooted at dir (like orchestrate), waits
for the manager's socket to come up, then behaves like "send manager
<task>" against it. The fleet keeps running in the foreground afterward,
exactly as "orchestrate" does.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		workingDir := args[0]
		task := strings.Join(args[1:], " ")

		cfg, rt, srv, err := startFleet(cmd, workingDir)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		runErrCh := make(chan error, 1)
		go func() { runErrCh <- rt.Run(ctx) }()

		if err := waitForSocket(cfg.SocketDir, proto.NewSingletonID(proto.RoleManager), managerReadyTimeout); err != nil {
			cancel()
			<-runErrCh
			stopFleet(srv)
			return fmt.Errorf("manager did not come up: %w", err)
		}

		if err := sendTo(cmd, "manager", task); err != nil {
			cancel()
			<-runErrCh
			stopFleet(srv)
			return err
		}

		log.Info("task handed to manager, fleet running: socket_dir=%s", cfg.SocketDir)
		runErr := <-runErrCh
		stopFleet(srv)
		return runErr
	},
}

func waitForSocket(dir string, id proto.AgentID, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	path := transport.SocketPath(dir, id)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s", path)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
