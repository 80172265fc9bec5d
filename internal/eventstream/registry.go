package eventstream

import "sync"

// Registry maps backend kinds to their adapters.
//
// Adapters are registered at startup, then the registry is sealed. Lookups
// seal it implicitly so no registration can race with a running query.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Kind]StrategyAdapter
	sealed   bool
}

// DefaultRegistry is the process-wide registry used by indexes that do not
// name one explicitly. The eventstream command registers its backend here.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[Kind]StrategyAdapter)}
}

// Register adds an adapter under its own kind.
// Registering after Seal, registering a kind twice, or registering a nil
// adapter are invariant violations.
func (r *Registry) Register(a StrategyAdapter) error {
	if a == nil {
		return NewInvariantViolation("cannot register nil strategy adapter")
	}
	kind := a.Kind()
	if kind == KindUnknown {
		return NewInvariantViolation("cannot register adapter with unknown kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return NewInvariantViolation("registry sealed: cannot register %s adapter", kind)
	}
	if _, exists := r.adapters[kind]; exists {
		return NewInvariantViolation("adapter for %s already registered", kind)
	}
	r.adapters[kind] = a
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error.
func (r *Registry) MustRegister(a StrategyAdapter) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Seal forbids further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registry accepts no more adapters.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup returns the adapter for kind and seals the registry.
func (r *Registry) Lookup(kind Kind) (StrategyAdapter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	a, ok := r.adapters[kind]
	return a, ok
}

// Kinds returns the registered kinds in enum order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var kinds []Kind
	for _, k := range []Kind{KindRelational, KindColumnStore, KindMemory} {
		if _, ok := r.adapters[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
