package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"

	"crewctl/pkg/proto"
	"crewctl/pkg/transport"
)

func testCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("debug", false, "")
	return cmd
}

func TestSendToDeliversMessage(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CREWCTL_SOCKET_DIR", dir)

	id := proto.NewSingletonID(proto.RoleArchitect)
	ln, err := transport.Bind(id, dir)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer ln.Close()

	recv := make(chan *proto.AgentMessage, 1)
	go func() {
		conn, _, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		msg, err := conn.Recv()
		if err != nil {
			return
		}
		recv <- msg
	}()

	if err := sendTo(testCmd(), "architect", "look at this"); err != nil {
		t.Fatalf("sendTo: %v", err)
	}

	select {
	case msg := <-recv:
		if msg.Content != "look at this" || msg.Kind != proto.MsgKindInfo {
			t.Fatalf("got %+v", msg)
		}
		if msg.From.Role != proto.RoleManager {
			t.Fatalf("expected sender attributed to manager, got %s", msg.From)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivered message")
	}
}

func TestSendToUnknownRole(t *testing.T) {
	if err := sendTo(testCmd(), "bogus", "hi"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
