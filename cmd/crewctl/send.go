package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crewctl/pkg/config"
	"crewctl/pkg/proto"
	"crewctl/pkg/transport"
)

var sendCmd = &cobra.Command{
	Use:   "send <role> <message...>",
	Short: "Send a one-shot message to a running agent's socket",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTo(cmd, args[0], strings.Join(args[1:], " "))
	},
}

// sendTo dials role's rendezvous socket and delivers content as an Info
// message, attributed to the manager: external input always enters the
// fleet as if the manager had said it, since the manager is the only
// role a human operator addresses directly.
func sendTo(cmd *cobra.Command, roleArg, content string) error {
	role, err := proto.ParseRole(roleArg)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPathFor(cmd))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	to := proto.NewSingletonID(role)
	if role == proto.RoleDeveloper {
		to = proto.NewDeveloperID(0)
	}

	conn, err := transport.Connect(to, cfg.SocketDir)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", to, err)
	}
	defer conn.Close()

	msg := proto.NewMessage(proto.NewSingletonID(proto.RoleManager), to, proto.MsgKindInfo, content)
	if err := conn.Send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}

	fmt.Printf("sent to %s: %s\n", to, content)
	return nil
}
