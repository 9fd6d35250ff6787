package logx

import "testing"

func TestDebugGatedByFlag(t *testing.T) {
	SetDebugEnabled(false)
	if isDebugEnabled() {
		t.Fatalf("expected debug disabled")
	}
	SetDebugEnabled(true)
	defer SetDebugEnabled(false)
	if !isDebugEnabled() {
		t.Fatalf("expected debug enabled")
	}
}

func TestWithScopesName(t *testing.T) {
	l := NewLogger("manager")
	sub := l.With("worker")
	if sub.name != "manager/worker" {
		t.Fatalf("got %q, want %q", sub.name, "manager/worker")
	}
}
