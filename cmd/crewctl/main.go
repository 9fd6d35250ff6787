// Command crewctl runs and drives the agent fleet: bootstrapping the
// full orchestrator, running a single agent standalone, or acting as a
// one-shot client against an already-running fleet's sockets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crewctl/pkg/logx"
)

// Version is overwritten at build time via -ldflags.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crewctl",
	Short: "Coordinate a fleet of AI coding assistant agents",
	Long: `crewctl supervises a small fleet of AI coding assistant agents
(manager, architect, developer, scorer) that coordinate over per-agent
Unix sockets, demultiplexing each agent's backend output into messages
for its peers.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("crewctl version %s\n", Version))

	rootCmd.PersistentFlags().String("config", "", "Path to crewctl.yaml (default: $CREWCTL_CONFIG or ./crewctl.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(orchestrateCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	debug, _ := rootCmd.PersistentFlags().GetBool("debug")
	if debug {
		logx.SetDebugEnabled(true)
	}
}

func configPathFlag(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
