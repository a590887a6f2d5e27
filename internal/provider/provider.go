package provider

import (
	"context"
	"sort"

	"authgate/internal/domain"
)

// Strategy is one OAuth provider's authorization-code flow. AuthCodeURL begins
// the redirect flow; Complete exchanges the callback code, fetches the profile
// and normalizes it into a draft identity. A provider-side failure surfaces as
// an error from Complete and nothing is persisted.
type Strategy interface {
	Name() string
	AuthCodeURL(state string) string
	Complete(ctx context.Context, code string) (*domain.Draft, error)
}

// Registry maps provider tags to configured strategies. Providers without
// credentials are simply never registered, so their routes can answer with a
// clear "provider not configured" error instead of a broken flow.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get returns the strategy for a provider tag, if configured
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// Names returns the configured provider tags in stable order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
