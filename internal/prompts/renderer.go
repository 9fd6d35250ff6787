// Package prompts renders the per-role system prompts and the manager
// state-briefing template agent workers compose into a backend invocation.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"crewctl/pkg/proto"
)

//go:embed *.tpl.md
var templateFS embed.FS

var roleTemplateFile = map[proto.Role]string{
	proto.RoleManager:   "manager.tpl.md",
	proto.RoleArchitect: "architect.tpl.md",
	proto.RoleDeveloper: "developer.tpl.md",
	proto.RoleScorer:    "scorer.tpl.md",
}

// BriefingData is the data the manager_briefing template renders against,
// built from RuntimeState at RelieveManager time.
type BriefingData struct {
	Reason           string
	Generation       uint32
	ActiveDevelopers uint8
	TaskLog          []proto.TaskRecord
}

// Renderer holds the parsed role system-prompt templates and the briefing
// template, loaded once at startup.
type Renderer struct {
	roleSystemPrompt map[proto.Role]string
	briefing         *template.Template
}

// NewRenderer loads and parses every embedded template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{roleSystemPrompt: make(map[proto.Role]string, len(roleTemplateFile))}

	for role, file := range roleTemplateFile {
		content, err := templateFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("prompts: read %s: %w", file, err)
		}
		r.roleSystemPrompt[role] = string(content)
	}

	briefingContent, err := templateFS.ReadFile("manager_briefing.tpl.md")
	if err != nil {
		return nil, fmt.Errorf("prompts: read manager_briefing.tpl.md: %w", err)
	}
	r.briefing, err = template.New("manager_briefing").Parse(string(briefingContent))
	if err != nil {
		return nil, fmt.Errorf("prompts: parse manager_briefing.tpl.md: %w", err)
	}

	return r, nil
}

// SystemPrompt returns the static system prompt for role.
func (r *Renderer) SystemPrompt(role proto.Role) (string, error) {
	prompt, ok := r.roleSystemPrompt[role]
	if !ok {
		return "", fmt.Errorf("prompts: no system prompt for role %s", role)
	}
	return prompt, nil
}

// ManagerBriefing renders the state briefing a replacement manager's
// system prompt is appended with, per spec.md §4.5.2's exact format.
func (r *Renderer) ManagerBriefing(data BriefingData) (string, error) {
	var sb strings.Builder
	if err := r.briefing.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("prompts: render manager briefing: %w", err)
	}
	return sb.String(), nil
}

// contextLabel maps a MsgKind to the human-readable label used in the
// context header, mirroring original_source/src/agent.rs's
// format_prompt_for_agent match arms.
var contextLabel = map[proto.MsgKind]string{
	proto.MsgKindTaskAssignment:  "NEW TASK",
	proto.MsgKindTaskComplete:    "TASK COMPLETE",
	proto.MsgKindTaskGiveUp:      "TASK BLOCKED",
	proto.MsgKindInterrupt:       "INTERRUPT",
	proto.MsgKindArchitectReview: "ARCHITECT REVIEW",
	proto.MsgKindInfo:            "INFO",
	proto.MsgKindEvaluation:      "EVALUATION",
	proto.MsgKindObservation:     "OBSERVATION",
}

// ComposePrompt builds the three logical parts spec.md §4.3 step 3 names:
// the role's system prompt, a one-line context header derived from the
// message's kind/from/content, and a line naming the task id.
func (r *Renderer) ComposePrompt(systemPrompt string, msg *proto.AgentMessage) string {
	label, ok := contextLabel[msg.Kind]
	if !ok {
		label = strings.ToUpper(string(msg.Kind))
	}
	header := fmt.Sprintf("%s from %s: %s", label, msg.From, msg.Content)

	taskLine := "Task ID: none"
	if msg.TaskID != nil {
		taskLine = fmt.Sprintf("Task ID: %s", msg.TaskID)
	}

	return systemPrompt + "\n\n" + header + "\n\n" + taskLine
}
