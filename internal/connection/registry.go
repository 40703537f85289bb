package connection

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry routes a connection URI to the Dialer registered for its scheme.
// A Registry is itself a Dialer.
type Registry struct {
	mu      sync.RWMutex
	dialers map[string]Dialer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		dialers: make(map[string]Dialer),
	}
}

// Register binds dialer to each of the given URI schemes, replacing any
// dialer previously registered for them
func (r *Registry) Register(dialer Dialer, schemes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, scheme := range schemes {
		r.dialers[Scheme(scheme+":")] = dialer
	}
}

// Schemes lists the registered URI schemes in sorted order
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.dialers))
	for scheme := range r.dialers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Validate checks that a dialer is registered for the scheme of uri
func (r *Registry) Validate(uri string) error {
	_, err := r.lookup(uri)
	return err
}

// Dial connects using the dialer registered for the scheme of uri
func (r *Registry) Dial(ctx context.Context, uri string, opts Options) (Conn, error) {
	dialer, err := r.lookup(uri)
	if err != nil {
		return nil, err
	}
	return dialer.Dial(ctx, uri, opts)
}

func (r *Registry) lookup(uri string) (Dialer, error) {
	scheme := Scheme(uri)

	r.mu.RLock()
	dialer, ok := r.dialers[scheme]
	r.mu.RUnlock()

	if !ok {
		return nil, &ConfigurationError{
			Key: "DATABASE_URI",
			Err: fmt.Errorf("%w %q", ErrUnsupportedScheme, scheme),
		}
	}
	return dialer, nil
}
