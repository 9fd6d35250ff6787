// Package anthropicapi drives the Anthropic Messages API directly over
// HTTPS instead of spawning an external CLI process.
package anthropicapi

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"crewctl/pkg/backend"
	"crewctl/pkg/logx"
)

var log = logx.NewLogger("backend.anthropicapi")

// Backend drives anthropic-sdk-go's streaming Messages API.
type Backend struct {
	client anthropic.Client
	model  anthropic.Model
}

// New builds a Backend from an API key and model name.
func New(apiKey, model string) *Backend {
	return &Backend{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

func (b *Backend) Name() string { return string(backend.KindAnthropicAPI) }

// Spawn has no subprocess to start: the single "invocation" is the
// streaming HTTP request itself, and Handle.Abort cancels its context.
func (b *Backend) Spawn(ctx context.Context, prompt, workingDir, sessionID string) (backend.Handle, <-chan backend.Event, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	params := anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: 8192,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	stream := b.client.Messages.NewStreaming(reqCtx, params)

	events := make(chan backend.Event, backend.OutputChannelCapacity)
	h := &handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(events)
		defer close(h.done)
		defer cancel()

		var message anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				log.Warn("failed to accumulate anthropic stream event: %v", err)
				continue
			}

			switch variant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if text := variant.Delta.Text; text != "" {
					events <- backend.Event{Type: backend.EventText, Text: text}
				}
			case anthropic.MessageStopEvent:
				events <- backend.Event{Type: backend.EventResult, ResultText: finalText(message)}
				return
			}
		}

		if err := stream.Err(); err != nil {
			h.err = err
			events <- backend.Event{Type: backend.EventError, ErrMessage: err.Error()}
			return
		}

		events <- backend.Event{Type: backend.EventResult}
	}()

	return h, events, nil
}

// finalText concatenates the accumulated text blocks of a completed
// message, matching claudecli's "first text block" convention closely
// enough for the normalized Result event's ResultText.
func finalText(message anthropic.Message) string {
	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	return text
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
		return fmt.Errorf("anthropicapi: wait: %w", ctx.Err())
	}
}
