// Package openaiapi drives the official OpenAI Go SDK's streaming chat
// completions API instead of spawning an external CLI process.
package openaiapi

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"crewctl/pkg/backend"
	"crewctl/pkg/logx"
)

var log = logx.NewLogger("backend.openaiapi")

// Backend drives openai-go's streaming chat completions API.
type Backend struct {
	client openai.Client
	model  string
}

// New builds a Backend from an API key and model name.
func New(apiKey, model string) *Backend {
	return &Backend{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (b *Backend) Name() string { return string(backend.KindOpenAIAPI) }

func (b *Backend) Spawn(ctx context.Context, prompt, workingDir, sessionID string) (backend.Handle, <-chan backend.Event, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	params := openai.ChatCompletionNewParams{
		Model: b.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	stream := b.client.Chat.Completions.NewStreaming(reqCtx, params)

	events := make(chan backend.Event, backend.OutputChannelCapacity)
	h := &handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(events)
		defer close(h.done)
		defer cancel()

		var full string
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			full += delta
			events <- backend.Event{Type: backend.EventText, Text: delta}
		}

		if err := stream.Err(); err != nil {
			log.Warn("openai stream error: %v", err)
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
		return fmt.Errorf("openaiapi: wait: %w", ctx.Err())
	}
}
