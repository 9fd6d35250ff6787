// Package backend defines the normalized contract every concrete AI
// assistant adapter implements, and the event stream agent workers consume
// from it.
package backend

import "context"

// Kind selects which concrete Backend implementation an agent uses.
type Kind string

const (
	KindClaudeCLI    Kind = "claude-cli"
	KindAnthropicAPI Kind = "anthropic-api"
	KindOpenAIAPI    Kind = "openai-api"
	KindGoogleGenAI  Kind = "google-genai"
	KindOllama       Kind = "ollama"
)

// ParseKind parses a backend kind name, defaulting callers to ClaudeCLI
// when the string is empty.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindClaudeCLI, KindAnthropicAPI, KindOpenAIAPI, KindGoogleGenAI, KindOllama:
		return Kind(s), nil
	case "":
		return KindClaudeCLI, nil
	default:
		return "", &UnknownKindError{Kind: s}
	}
}

// UnknownKindError reports an unrecognized backend kind string.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return "backend: unknown kind " + e.Kind
}

// EventType discriminates the normalized Event union.
type EventType int

const (
	EventSystem EventType = iota
	EventText
	EventToolUse
	EventToolResult
	EventResult
	EventError
)

// Event is one normalized unit of backend output. Only EventText carries
// content the output parser ever inspects; the others are informational.
type Event struct {
	Type EventType

	// EventSystem
	SessionID string

	// EventText
	Text string

	// EventToolUse
	ToolUseID   string
	ToolName    string
	ToolInput   any

	// EventToolResult
	ToolResultID string
	ToolOutput   string
	ToolIsError  bool

	// EventResult
	ResultText    string
	ResultIsError bool

	// EventError
	ErrMessage string
}

// IsFinal reports whether this event ends the stream: the reader task
// closes the output channel and the agent worker stops consuming once it
// observes one of these.
func (e Event) IsFinal() bool {
	return e.Type == EventResult || e.Type == EventError
}

// ContentText extracts the best-effort text payload of an event, mirroring
// the union's convenience accessor: Text events yield their content,
// Result events yield their final text if present.
func (e Event) ContentText() string {
	switch e.Type {
	case EventText:
		return e.Text
	case EventResult:
		return e.ResultText
	default:
		return ""
	}
}

// Handle controls a running backend invocation.
type Handle interface {
	// Abort terminates the invocation immediately.
	Abort(ctx context.Context) error
	// Wait blocks until the invocation's resources (process, HTTP request,
	// etc.) have been fully released.
	Wait(ctx context.Context) error
}

// Backend spawns assistant invocations and normalizes their streaming
// output into a bounded channel of Event values. Implementations must be
// safe for concurrent use across agent workers, since a single Backend
// instance may be shared by a pool of Developer workers.
type Backend interface {
	// Name identifies the backend for logging, e.g. "claude-cli".
	Name() string

	// Spawn starts one invocation with the given prompt in working_dir,
	// optionally resuming sessionID. It returns a Handle for lifecycle
	// control and a receive-only channel of normalized events; the
	// channel is closed once a final event has been emitted or the
	// invocation fails to start streaming further events.
	Spawn(ctx context.Context, prompt, workingDir, sessionID string) (Handle, <-chan Event, error)
}

// OutputChannelCapacity is the recommended bound for a Backend's output
// channel, providing backpressure without starving fast producers.
const OutputChannelCapacity = 256
