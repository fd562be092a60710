package forms

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Loader registers the form classes of one installed app.
type Loader interface {
	LoadForms(ctx context.Context, reg *Registry) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, reg *Registry) error

// LoadForms implements Loader.
func (fn LoaderFunc) LoadForms(ctx context.Context, reg *Registry) error {
	return fn(ctx, reg)
}

type populateState int

const (
	stateIdle populateState = iota
	statePopulating
	stateReady
)

// Registry stores form classes by name. Population is a one-shot startup
// step; lookups wait for it and never trigger it.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
	state   populateState
	done    chan struct{}
	err     error
}

// NewRegistry creates an empty, unpopulated registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
		done:    make(chan struct{}),
	}
}

// Register adds a class by name. Duplicate names return
// ErrDuplicateRegistration.
func (r *Registry) Register(class *Class) error {
	if class == nil {
		return fmt.Errorf("forms: form class is required")
	}
	name := strings.TrimSpace(class.Name)
	if name == "" {
		return fmt.Errorf("forms: form class name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRegistration, name)
	}
	r.classes[name] = class
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(class *Class) {
	if err := r.Register(class); err != nil {
		panic(err)
	}
}

// Populate runs every loader exactly once. Concurrent and later callers wait
// for the first run and receive its result. Loaders must not call Resolve.
func (r *Registry) Populate(ctx context.Context, loaders ...Loader) error {
	r.mu.Lock()
	if r.state != stateIdle {
		done := r.done
		r.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.err
	}
	r.state = statePopulating
	r.mu.Unlock()

	var err error
	for idx, loader := range loaders {
		if loader == nil {
			continue
		}
		if loadErr := loader.LoadForms(ctx, r); loadErr != nil {
			err = fmt.Errorf("forms: populate loader %d: %w", idx, loadErr)
			break
		}
	}

	r.mu.Lock()
	r.err = err
	r.state = stateReady
	close(r.done)
	r.mu.Unlock()
	return err
}

// Populated reports whether population has completed.
func (r *Registry) Populated() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateReady
}

// Resolve returns the class registered under name.
func (r *Registry) Resolve(name string) (*Class, error) {
	r.mu.RLock()
	state, done := r.state, r.done
	r.mu.RUnlock()

	switch state {
	case stateIdle:
		return nil, fmt.Errorf("%w: resolving %q", ErrNotPopulated, name)
	case statePopulating:
		<-done
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	class, ok := r.classes[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return class, nil
}

// Names returns the registered class names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

// Register adds a class to the Default registry.
func Register(class *Class) error { return Default.Register(class) }

// MustRegister adds a class to the Default registry, panicking on failure.
func MustRegister(class *Class) { Default.MustRegister(class) }

// Populate populates the Default registry.
func Populate(ctx context.Context, loaders ...Loader) error {
	return Default.Populate(ctx, loaders...)
}

// Resolve looks a class up in the Default registry.
func Resolve(name string) (*Class, error) { return Default.Resolve(name) }
