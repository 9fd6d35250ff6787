package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crewctl/pkg/config"
	"crewctl/pkg/proto"
	"crewctl/pkg/transport"
)

var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Report liveness of each agent's rendezvous socket",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPathFor(cmd))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if len(args) == 1 {
			cfg.SocketDir = args[0]
		}

		fmt.Println("=== Agent Sockets ===")
		ids := []proto.AgentID{
			proto.NewSingletonID(proto.RoleManager),
			proto.NewSingletonID(proto.RoleArchitect),
			proto.NewSingletonID(proto.RoleScorer),
		}
		for i := 0; i < cfg.DeveloperPool.Max; i++ {
			ids = append(ids, proto.NewDeveloperID(uint8(i)))
		}

		for _, id := range ids {
			fmt.Printf("  %s: %s\n", id, socketStatus(cfg.SocketDir, id))
		}
		return nil
	},
}

func socketStatus(dir string, id proto.AgentID) string {
	path := transport.SocketPath(dir, id)
	conn, err := transport.Connect(id, dir)
	if err == nil {
		conn.Close()
		return "listening"
	}
	if _, err := os.Stat(path); err == nil {
		return "stale socket"
	}
	return "not running"
}
