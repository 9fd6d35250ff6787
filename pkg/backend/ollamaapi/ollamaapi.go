// Package ollamaapi drives a local Ollama daemon's streaming chat API
// instead of spawning an external CLI process.
package ollamaapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"crewctl/pkg/backend"
	"crewctl/pkg/logx"
)

var log = logx.NewLogger("backend.ollamaapi")

// Backend drives github.com/ollama/ollama/api's streaming Chat call
// against a local daemon.
type Backend struct {
	client *api.Client
	model  string
}

// New builds a Backend from the daemon's base URL and a model name,
// falling back to the default local daemon address on a malformed URL.
func New(hostURL, model string) *Backend {
	parsed, err := url.Parse(hostURL)
	if err != nil {
		parsed, _ = url.Parse("http://localhost:11434")
	}
	return &Backend{
		client: api.NewClient(parsed, http.DefaultClient),
		model:  model,
	}
}

func (b *Backend) Name() string { return string(backend.KindOllama) }

func (b *Backend) Spawn(ctx context.Context, prompt, workingDir, sessionID string) (backend.Handle, <-chan backend.Event, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	stream := true
	req := &api.ChatRequest{
		Model: b.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}

	events := make(chan backend.Event, backend.OutputChannelCapacity)
	h := &handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(events)
		defer close(h.done)
		defer cancel()

		var full string
		err := b.client.Chat(reqCtx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				full += resp.Message.Content
				events <- backend.Event{Type: backend.EventText, Text: resp.Message.Content}
			}
			return nil
		})
		if err != nil {
			log.Warn("ollama chat error: %v", err)
			h.err = err
			events <- backend.Event{Type: backend.EventError, ErrMessage: err.Error()}
			return
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
		return fmt.Errorf("ollamaapi: wait: %w", ctx.Err())
	}
}
