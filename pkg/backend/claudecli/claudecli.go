// Package claudecli spawns the "claude" command-line assistant as a
// subprocess and speaks its line-delimited JSON stream protocol over
// stdin/stdout.
package claudecli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"crewctl/pkg/backend"
	"crewctl/pkg/logx"
)

var log = logx.NewLogger("backend.claudecli")

// Backend spawns the external "claude" CLI in stream-json mode.
type Backend struct {
	// ExtraArgs are appended to the fixed invocation, e.g. for model
	// selection.
	ExtraArgs []string
}

// New returns a Backend with no extra CLI arguments.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return string(backend.KindClaudeCLI) }

// Spawn starts "claude -p --input-format stream-json --output-format
// stream-json --verbose [extra-args] [--session-id id]", writes one user
// message to stdin, closes stdin, and streams parsed stdout lines as
// normalized events.
func (b *Backend) Spawn(ctx context.Context, prompt, workingDir, sessionID string) (backend.Handle, <-chan backend.Event, error) {
	args := []string{"-p", "--input-format", "stream-json", "--output-format", "stream-json", "--verbose"}
	args = append(args, b.ExtraArgs...)
	if sessionID != "" {
		args = append(args, "--session-id", sessionID)
	}

	cmd := exec.CommandContext(ctx, "claude", args...)
	cmd.Dir = workingDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("claudecli: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("claudecli: stdout pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("claudecli: spawn claude (is it in PATH?): %w", err)
	}

	input := claudeInput{Type: "user", Message: userMessage{Role: "user", Content: prompt}}
	payload, err := json.Marshal(input)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, nil, fmt.Errorf("claudecli: encode initial prompt: %w", err)
	}
	if _, err := stdin.Write(append(payload, '\n')); err != nil {
		_ = cmd.Process.Kill()
		return nil, nil, fmt.Errorf("claudecli: write initial prompt: %w", err)
	}
	if err := stdin.Close(); err != nil {
		_ = cmd.Process.Kill()
		return nil, nil, fmt.Errorf("claudecli: close stdin: %w", err)
	}

	events := make(chan backend.Event, backend.OutputChannelCapacity)
	h := &handle{cmd: cmd}

	go readLoop(stdout, events)

	return h, events, nil
}

// readLoop scans stdout line by line, parsing each as a claudeOutput
// envelope. Unparseable lines are logged and skipped; they never
// terminate the stream early.
func readLoop(r io.Reader, out chan<- backend.Event) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw claudeOutput
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			log.Warn("failed to parse claude output line: %v", err)
			continue
		}

		ev := convert(raw)
		out <- ev
		if ev.IsFinal() {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		log.Warn("claude stdout scanner error: %v", err)
	}
}

func convert(raw claudeOutput) backend.Event {
	switch raw.Type {
	case "system":
		return backend.Event{Type: backend.EventSystem, SessionID: raw.SessionID}
	case "assistant":
		var content assistantContent
		if len(raw.Message) > 0 {
			if err := json.Unmarshal(raw.Message, &content); err != nil {
				log.Warn("failed to parse assistant message content: %v", err)
			}
		}
		for _, block := range content.Content {
			if block.Type == "text" {
				return backend.Event{Type: backend.EventText, Text: block.Text}
			}
		}
		return backend.Event{Type: backend.EventText, Text: ""}
	case "tool_use":
		return backend.Event{Type: backend.EventToolUse, ToolUseID: raw.ToolUseID, ToolName: raw.ToolName, ToolInput: raw.Input}
	case "tool_result":
		return backend.Event{Type: backend.EventToolResult, ToolResultID: raw.ToolUseID, ToolOutput: raw.Output, ToolIsError: raw.IsError}
	case "result":
		return backend.Event{Type: backend.EventResult, ResultText: raw.Result, ResultIsError: raw.IsError}
	case "error":
		msg := raw.Error
		if msg == "" {
			_ = json.Unmarshal(raw.Message, &msg)
		}
		return backend.Event{Type: backend.EventError, ErrMessage: msg}
	default:
		return backend.Event{Type: backend.EventText, Text: ""}
	}
}

// claudeInput is the single outbound message sent on stdin before it is
// closed.
type claudeInput struct {
	Type    string      `json:"type"`
	Message userMessage `json:"message"`
}

type userMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeOutput is the union of all inbound stream-json line shapes. The
// "message" key means two different things depending on "type" (a nested
// assistant-content object, or a plain error string), so it is decoded
// raw and resolved by convert() once Type is known.
type claudeOutput struct {
	Type string `json:"type"`

	SessionID string `json:"session_id,omitempty"`

	Message json.RawMessage `json:"message,omitempty"`

	ToolUseID string `json:"tool_use_id,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	Input     any    `json:"input,omitempty"`

	Output  string `json:"output,omitempty"`
	IsError bool   `json:"is_error,omitempty"`

	Result string `json:"result,omitempty"`

	Error string `json:"error,omitempty"`
}

type assistantContent struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type handle struct {
	cmd      *exec.Cmd
	waitOnce sync.Once
	waitErr  error
}

func (h *handle) Abort(ctx context.Context) error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

func (h *handle) Wait(ctx context.Context) error {
	h.waitOnce.Do(func() {
		h.waitErr = h.cmd.Wait()
	})
	return h.waitErr
}
