package provider

import (
	"strings"

	providerdomain "github.com/tphona/fleetline/internal/provider/domain"
)

// Registry resolves a provider implementation by the name stored on the
// tenant. Capable of holding several providers; currently only 1GLOBAL is
// implemented.
type Registry struct {
	providers map[string]providerdomain.Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]providerdomain.Provider{}}
}

func (r *Registry) Register(name string, p providerdomain.Provider) {
	r.providers[strings.ToLower(strings.TrimSpace(name))] = p
}

func (r *Registry) Get(name string) (providerdomain.Provider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, providerdomain.ErrUnknownProvider
	}
	return p, nil
}
