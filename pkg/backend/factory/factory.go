// Package factory constructs a concrete backend.Backend from a
// configured Kind, keeping the backend package itself free of a
// dependency on every concrete adapter (which would otherwise import
// backend and create a cycle).
package factory

import (
	"fmt"

	"crewctl/pkg/backend"
	"crewctl/pkg/backend/anthropicapi"
	"crewctl/pkg/backend/claudecli"
	"crewctl/pkg/backend/googlegenai"
	"crewctl/pkg/backend/ollamaapi"
	"crewctl/pkg/backend/openaiapi"
)

// Options carries the superset of fields any concrete backend might need;
// unused fields for a given kind are ignored.
type Options struct {
	Kind       backend.Kind
	APIKey     string
	Model      string
	OllamaHost string
	ExtraArgs  []string
}

// New constructs the backend named by opts.Kind.
func New(opts Options) (backend.Backend, error) {
	switch opts.Kind {
	case backend.KindClaudeCLI, "":
		return &claudecli.Backend{ExtraArgs: opts.ExtraArgs}, nil
	case backend.KindAnthropicAPI:
		return anthropicapi.New(opts.APIKey, opts.Model), nil
	case backend.KindOpenAIAPI:
		return openaiapi.New(opts.APIKey, opts.Model), nil
	case backend.KindGoogleGenAI:
		return googlegenai.New(opts.APIKey, opts.Model), nil
	case backend.KindOllama:
		return ollamaapi.New(opts.OllamaHost, opts.Model), nil
	default:
		return nil, fmt.Errorf("factory: %w", &backend.UnknownKindError{Kind: string(opts.Kind)})
	}
}
