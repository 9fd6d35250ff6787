package proto

import (
	"testing"

	"github.com/google/uuid"
)

func TestAgentMessageRoundTrip(t *testing.T) {
	m := NewMessage(NewSingletonID(RoleManager), NewDeveloperID(2), MsgKindTaskAssignment, "wire the button handler")

	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if got.ID != m.ID || got.From != m.From || got.To != m.To || got.Kind != m.Kind || got.Content != m.Content {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, m)
	}
	if got.TaskID != nil {
		t.Fatalf("expected nil task id, got %v", got.TaskID)
	}
}

func TestAgentMessageRoundTripWithTaskID(t *testing.T) {
	id := uuid.New()
	m := NewMessage(NewSingletonID(RoleArchitect), NewSingletonID(RoleManager), MsgKindTaskComplete, "done").WithTaskID(id)

	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.TaskID == nil || *got.TaskID != id {
		t.Fatalf("expected task id %v, got %v", id, got.TaskID)
	}
}

func TestAgentMessageTaskIDOmittedWhenAbsent(t *testing.T) {
	m := NewMessage(NewSingletonID(RoleManager), NewSingletonID(RoleArchitect), MsgKindInfo, "hi")
	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if contains(data, []byte(`"task_id"`)) {
		t.Fatalf("expected task_id to be omitted, got %s", data)
	}
}

func contains(haystack, needle []byte) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	m := NewMessage(NewSingletonID(RoleManager), NewSingletonID(RoleArchitect), MsgKindInfo, "hi")
	if err := m.Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}

	bad := *m
	bad.Kind = "bogus"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for invalid kind")
	}
}

func TestAgentIDSocketName(t *testing.T) {
	cases := []struct {
		id   AgentID
		want string
	}{
		{NewSingletonID(RoleManager), "manager"},
		{NewSingletonID(RoleArchitect), "architect"},
		{NewSingletonID(RoleScorer), "scorer"},
		{NewDeveloperID(0), "developer-0"},
		{NewDeveloperID(2), "developer-2"},
	}
	for _, c := range cases {
		if got := c.id.SocketName(); got != c.want {
			t.Errorf("SocketName(%+v) = %q, want %q", c.id, got, c.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"Manager", "ARCHITECT", "developer", "Scorer"} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("ParseRole(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseRole("bogus"); err == nil {
		t.Errorf("expected error for unknown role")
	}
}
