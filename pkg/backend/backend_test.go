package backend

import "testing"

func TestParseKindDefaultsToClaudeCLI(t *testing.T) {
	k, err := ParseKind("")
	if err != nil || k != KindClaudeCLI {
		t.Fatalf("got %v, %v", k, err)
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	if _, err := ParseKind("bogus"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestParseKindAcceptsAllFive(t *testing.T) {
	for _, k := range []Kind{KindClaudeCLI, KindAnthropicAPI, KindOpenAIAPI, KindGoogleGenAI, KindOllama} {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Fatalf("kind %v: got %v, %v", k, got, err)
		}
	}
}

func TestEventIsFinal(t *testing.T) {
	cases := []struct {
		ev    Event
		final bool
	}{
		{Event{Type: EventSystem}, false},
		{Event{Type: EventText}, false},
		{Event{Type: EventToolUse}, false},
		{Event{Type: EventToolResult}, false},
		{Event{Type: EventResult}, true},
		{Event{Type: EventError}, true},
	}
	for _, c := range cases {
		if got := c.ev.IsFinal(); got != c.final {
			t.Fatalf("type %v: got %v, want %v", c.ev.Type, got, c.final)
		}
	}
}

func TestEventContentText(t *testing.T) {
	if got := (Event{Type: EventText, Text: "hi"}).ContentText(); got != "hi" {
		t.Fatalf("got %q", got)
	}
	if got := (Event{Type: EventResult, ResultText: "done"}).ContentText(); got != "done" {
		t.Fatalf("got %q", got)
	}
	if got := (Event{Type: EventSystem}).ContentText(); got != "" {
		t.Fatalf("got %q", got)
	}
}
