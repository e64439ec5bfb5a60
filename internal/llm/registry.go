package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider names a model vendor.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderAnthropic Provider = "anthropic"
)

// Model is a selectable generation model.
type Model struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Provider Provider `json:"provider"`
}

// Models is the selectable model list, first entry is the default.
var Models = []Model{
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: ProviderGoogle},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: ProviderGoogle},
	{ID: "claude-sonnet-4-5-20250929", Name: "Claude Sonnet 4.5", Provider: ProviderAnthropic},
}

// ErrUnknownModel is returned for model ids outside the registry.
var ErrUnknownModel = errors.New("unknown model")

// Registry routes a request to the generator of its model's provider.
type Registry struct {
	models    []Model
	providers map[Provider]Generator
}

// NewRegistry creates a registry over models. Providers are attached with
// Register; a model whose provider was never registered fails at call time.
func NewRegistry(models []Model) *Registry {
	return &Registry{
		models:    append([]Model(nil), models...),
		providers: make(map[Provider]Generator),
	}
}

// Register attaches the generator for a provider.
func (r *Registry) Register(p Provider, g Generator) {
	r.providers[p] = g
}

// Models returns the registered model list.
func (r *Registry) Models() []Model {
	return append([]Model(nil), r.models...)
}

// Lookup finds a model by id.
func (r *Registry) Lookup(id string) (Model, error) {
	for _, m := range r.models {
		if m.ID == id {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
}

// Stream implements Generator.
func (r *Registry) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	m, err := r.Lookup(req.Model)
	if err != nil {
		return err
	}
	g, ok := r.providers[m.Provider]
	if !ok {
		return &MissingKeyError{Provider: m.Provider}
	}
	return g.Stream(ctx, req, onChunk)
}
