package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BANCS-Norway/session-coordinator/internal/errors"
)

// Constructor builds a configured Adapter from a backend-specific config
// mapping.
type Constructor func(cfg map[string]any) (Adapter, error)

// Config is the declarative storage configuration consumed by the factory:
// an adapter kind name plus the backend-specific settings handed to its
// constructor.
type Config struct {
	Adapter string         `mapstructure:"adapter" json:"adapter"`
	Config  map[string]any `mapstructure:"config" json:"config"`
}

// Factory maintains a registry of adapter kinds and creates instances from
// configuration. It is an explicit object held by the composition root, not
// package-level mutable state, so callers can extend or replace the
// registry without affecting one another.
type Factory struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewFactory returns a Factory with the built-in adapters registered.
func NewFactory() *Factory {
	f := &Factory{ctors: make(map[string]Constructor)}
	f.Register("local", newLocalFromConfig)
	return f
}

// Register adds a constructor for the given adapter kind. Registering an
// existing name overwrites it, so built-ins and caller extensions share
// one registry with last-registration-wins semantics.
func (f *Factory) Register(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctors[name] = ctor
}

// Kinds returns the registered adapter kind names, sorted.
func (f *Factory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]string, 0, len(f.ctors))
	for name := range f.ctors {
		kinds = append(kinds, name)
	}
	sort.Strings(kinds)
	return kinds
}

// Create builds an adapter from configuration. The kind must be non-empty
// and registered; constructor failures are wrapped with
// ErrAdapterConstruction so callers can distinguish "no such kind" from
// "kind exists but could not be built".
func (f *Factory) Create(cfg Config) (Adapter, error) {
	if cfg.Adapter == "" {
		return nil, errors.NewConfigError("adapter kind not specified", errors.ErrInvalidConfig).
			WithField("storage.adapter")
	}

	f.mu.RLock()
	ctor, ok := f.ctors[cfg.Adapter]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			errors.ErrUnknownAdapter, cfg.Adapter, strings.Join(f.Kinds(), ", "))
	}

	backendCfg := cfg.Config
	if backendCfg == nil {
		backendCfg = map[string]any{}
	}

	adapter, err := ctor(backendCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: kind %q: %v", errors.ErrAdapterConstruction, cfg.Adapter, err)
	}
	return adapter, nil
}

// newLocalFromConfig builds the local file adapter from its config mapping.
func newLocalFromConfig(cfg map[string]any) (Adapter, error) {
	basePath := DefaultBasePath
	if v, ok := cfg["base_path"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, errors.NewConfigError("base_path must be a string", errors.ErrInvalidConfig).
				WithField("storage.config.base_path")
		}
		basePath = s
	}
	return NewLocalAdapter(basePath)
}
