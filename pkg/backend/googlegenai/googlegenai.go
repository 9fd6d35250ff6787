// Package googlegenai drives Google's generative AI SDK's streaming
// content generation API instead of spawning an external CLI process.
package googlegenai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"crewctl/pkg/backend"
	"crewctl/pkg/logx"
)

var log = logx.NewLogger("backend.googlegenai")

// Backend drives google.golang.org/genai's GenerateContentStream.
type Backend struct {
	apiKey string
	model  string
}

// New builds a Backend from an API key and model name. No client is held:
// Spawn creates a new one on every call, since construction requires a
// context.
func New(apiKey, model string) *Backend {
	return &Backend{apiKey: apiKey, model: model}
}

func (b *Backend) Name() string { return string(backend.KindGoogleGenAI) }

func (b *Backend) Spawn(ctx context.Context, prompt, workingDir, sessionID string) (backend.Handle, <-chan backend.Event, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("googlegenai: create client: %w", err)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	events := make(chan backend.Event, backend.OutputChannelCapacity)
	h := &handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(events)
		defer close(h.done)
		defer cancel()

		var full string
		for resp, err := range client.Models.GenerateContentStream(reqCtx, b.model, contents, nil) {
			if err != nil {
				log.Warn("genai stream error: %v", err)
				h.err = err
				events <- backend.Event{Type: backend.EventError, ErrMessage: err.Error()}
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			full += text
			events <- backend.Event{Type: backend.EventText, Text: text}
		}

		events <- backend.Event{Type: backend.EventResult, ResultText: full}
	}()

	return h, events, nil
}

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (h *handle) Abort(ctx context.Context) error {
	h.cancel()
	return nil
}

func (h *handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return fmt.Errorf("googlegenai: wait: %w", ctx.Err())
	}
}
