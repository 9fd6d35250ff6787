package prompts

import (
	"strings"
	"testing"

	"crewctl/pkg/proto"
)

func TestSystemPromptCoversAllRoles(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	for _, role := range []proto.Role{proto.RoleManager, proto.RoleArchitect, proto.RoleDeveloper, proto.RoleScorer} {
		prompt, err := r.SystemPrompt(role)
		if err != nil {
			t.Fatalf("role %s: %v", role, err)
		}
		if strings.TrimSpace(prompt) == "" {
			t.Fatalf("role %s: empty system prompt", role)
		}
	}
}

func TestSystemPromptUnknownRole(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if _, err := r.SystemPrompt(proto.Role("bogus")); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestComposePromptIncludesHeaderAndTaskLine(t *testing.T) {
	msg := proto.NewMessage(proto.NewSingletonID(proto.RoleArchitect), proto.NewDeveloperID(0), proto.MsgKindTaskAssignment, "build the login form")
	got := (&Renderer{}).ComposePrompt("SYSTEM", msg)
	if !strings.HasPrefix(got, "SYSTEM\n\n") {
		t.Fatalf("expected system prompt prefix, got %q", got)
	}
	if !strings.Contains(got, "NEW TASK from architect: build the login form") {
		t.Fatalf("expected context header, got %q", got)
	}
	if !strings.HasSuffix(got, "Task ID: none") {
		t.Fatalf("expected task id line, got %q", got)
	}
}

func TestManagerBriefingEmptyTaskLog(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out, err := r.ManagerBriefing(BriefingData{Reason: "incoherent decisions", Generation: 2, ActiveDevelopers: 1})
	if err != nil {
		t.Fatalf("ManagerBriefing: %v", err)
	}
	if !strings.Contains(out, "**Reason for replacement:** incoherent decisions") {
		t.Fatalf("got %q", out)
	}
	if !strings.Contains(out, "**Manager generation:** 2") {
		t.Fatalf("got %q", out)
	}
	if !strings.Contains(out, "No task history recorded.") {
		t.Fatalf("expected empty-log fallback, got %q", out)
	}
	if strings.Contains(out, "### Task History") {
		t.Fatalf("did not expect a task history header on an empty log, got %q", out)
	}
}

func TestManagerBriefingWithTaskLog(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out, err := r.ManagerBriefing(BriefingData{
		Reason:           "stuck",
		Generation:       3,
		ActiveDevelopers: 2,
		TaskLog: []proto.TaskRecord{
			{Agent: proto.NewDeveloperID(0), Status: proto.TaskStatusCompleted, Summary: "wired the login button"},
		},
	})
	if err != nil {
		t.Fatalf("ManagerBriefing: %v", err)
	}
	if !strings.Contains(out, "### Task History") {
		t.Fatalf("expected a task history header on a non-empty log, got %q", out)
	}
	if !strings.Contains(out, "- [developer-0] Completed: wired the login button") {
		t.Fatalf("got %q", out)
	}
	if strings.Contains(out, "No task history recorded.") {
		t.Fatalf("did not expect empty-log fallback, got %q", out)
	}
}
