package main

import (
	"testing"
	"time"

	"crewctl/pkg/proto"
	"crewctl/pkg/transport"
)

func TestWaitForSocketTimesOutWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	err := waitForSocket(dir, proto.NewSingletonID(proto.RoleManager), 100*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestWaitForSocketReturnsOnceBound(t *testing.T) {
	dir := t.TempDir()
	id := proto.NewSingletonID(proto.RoleManager)

	ln, err := transport.Bind(id, dir)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer ln.Close()

	if err := waitForSocket(dir, id, time.Second); err != nil {
		t.Fatalf("waitForSocket: %v", err)
	}
}

func TestRunCmdRequiresDirAndTask(t *testing.T) {
	if err := runCmd.Args(runCmd, []string{"only-dir"}); err == nil {
		t.Fatal("expected error with fewer than 2 args")
	}
	if err := runCmd.Args(runCmd, []string{"dir", "do", "the", "thing"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAgentCmdRejectsUnknownRole(t *testing.T) {
	err := agentCmd.RunE(testCmd(), []string{"bogus"})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}
