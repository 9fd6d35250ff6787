package claudecli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"crewctl/pkg/backend"
)

func TestConvertAssistantText(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"hello there"}]}}`
	var raw claudeOutput
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev := convert(raw)
	if ev.Type != backend.EventText || ev.Text != "hello there" {
		t.Fatalf("got %+v", ev)
	}
}

func TestConvertResult(t *testing.T) {
	line := `{"type":"result","result":"done","is_error":false}`
	var raw claudeOutput
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev := convert(raw)
	if ev.Type != backend.EventResult || !ev.IsFinal() || ev.ResultText != "done" {
		t.Fatalf("got %+v", ev)
	}
}

func TestConvertErrorPrefersErrorField(t *testing.T) {
	line := `{"type":"error","error":"boom","message":"fallback"}`
	var raw claudeOutput
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev := convert(raw)
	if !ev.IsFinal() || ev.ErrMessage != "boom" {
		t.Fatalf("got %+v", ev)
	}
}

func TestConvertErrorFallsBackToMessage(t *testing.T) {
	line := `{"type":"error","message":"fallback"}`
	var raw claudeOutput
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev := convert(raw)
	if ev.ErrMessage != "fallback" {
		t.Fatalf("got %+v", ev)
	}
}

func TestConvertUnknownTypeYieldsEmptyText(t *testing.T) {
	ev := convert(claudeOutput{Type: "something_new"})
	if ev.Type != backend.EventText || ev.Text != "" {
		t.Fatalf("got %+v", ev)
	}
}

func TestReadLoopSkipsUnparseableLinesAndStopsAtFinal(t *testing.T) {
	input := strings.Join([]string{
		`not json at all`,
		`{"type":"system","session_id":"abc"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"step 1"}]}}`,
		`{"type":"result","result":"finished"}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"never seen"}]}}`,
	}, "\n")

	out := make(chan backend.Event, backend.OutputChannelCapacity)
	readLoop(strings.NewReader(input), out)

	var events []backend.Event
	for ev := range out {
		events = append(events, ev)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events (bad line skipped, trailing line never reached), got %d: %+v", len(events), events)
	}
	if events[0].Type != backend.EventSystem {
		t.Fatalf("expected first event to be system, got %+v", events[0])
	}
	if events[1].Type != backend.EventText || events[1].Text != "step 1" {
		t.Fatalf("expected second event text, got %+v", events[1])
	}
	if !events[2].IsFinal() {
		t.Fatalf("expected third event final, got %+v", events[2])
	}
}

func TestBackendName(t *testing.T) {
	b := New()
	if b.Name() != string(backend.KindClaudeCLI) {
		t.Fatalf("got %q", b.Name())
	}
}

// TestSpawnFailsWhenBinaryMissing exercises the BackendSpawnFailed path
// without depending on a real "claude" binary being present.
func TestSpawnFailsWhenBinaryMissing(t *testing.T) {
	b := &Backend{}
	_, _, err := b.Spawn(context.Background(), "prompt", t.TempDir(), "")
	// Either claude isn't on PATH (expected in CI) or it is and spawns
	// something; only assert the no-binary case is a clean error, not a
	// panic, when the lookup fails.
	if err != nil && !strings.Contains(err.Error(), "claudecli") {
		t.Fatalf("unexpected error shape: %v", err)
	}
}
