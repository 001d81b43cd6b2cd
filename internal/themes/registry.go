// Package themes maps theme ids to renderer factories. Concrete themes live in
// sub-packages and register themselves from init; binaries link them with
// blank imports.
package themes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/alexisbeaulieu97/countdown/internal/logger"
	"github.com/alexisbeaulieu97/countdown/internal/renderer"
	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

// DefaultID is the theme used when none is configured or the configured one
// is unknown.
const DefaultID = "grid"

// ErrThemeNotFound is returned when the requested theme is not registered.
type ErrThemeNotFound struct {
	ID string
}

func (e ErrThemeNotFound) Error() string {
	return fmt.Sprintf("theme '%s' not found in registry\nHint: run 'countdown themes' to list available themes", e.ID)
}

// Flags marks optional host components a theme wants shown.
type Flags struct {
	TimezoneSelector bool
	MessageLine      bool
}

// Descriptor is the static metadata of a theme.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Accents     renderer.Accents
	Flags       Flags
}

// Loader produces a theme's renderer factory. It may block, for example to
// prepare assets, and should honour ctx.
type Loader func(ctx context.Context) (renderer.Factory, error)

type entry struct {
	desc   Descriptor
	loader Loader
}

// Registry holds registered themes and caches loaded factories. Concurrent
// loads of the same theme share one Loader call.
type Registry struct {
	mu        sync.RWMutex
	themes    map[string]entry
	loaded    map[string]renderer.Factory
	defaultID string
	group     singleflight.Group
	logger    *logger.Logger
}

// NewRegistry returns an empty registry falling back to defaultID.
func NewRegistry(defaultID string, log *logger.Logger) *Registry {
	if defaultID == "" {
		defaultID = DefaultID
	}
	return &Registry{
		themes:    make(map[string]entry),
		loaded:    make(map[string]renderer.Factory),
		defaultID: defaultID,
		logger:    log,
	}
}

// Register adds a theme.
func (r *Registry) Register(desc Descriptor, loader Loader) error {
	if desc.ID == "" {
		return countdownerrors.NewThemeError("", errors.New("theme id is empty"))
	}
	if loader == nil {
		return countdownerrors.NewThemeError(desc.ID, errors.New("loader is nil"))
	}
	if desc.Name == "" {
		desc.Name = desc.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.themes[desc.ID]; exists {
		return countdownerrors.NewThemeError(desc.ID, errors.New("theme already registered"))
	}
	r.themes[desc.ID] = entry{desc: desc, loader: loader}
	return nil
}

// SetLogger replaces the logger used for fallback warnings.
func (r *Registry) SetLogger(log *logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = log
}

// Factory loads the factory for id, calling its Loader at most once per
// successful load.
func (r *Registry) Factory(ctx context.Context, id string) (renderer.Factory, error) {
	r.mu.RLock()
	if f, ok := r.loaded[id]; ok {
		r.mu.RUnlock()
		return f, nil
	}
	e, ok := r.themes[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrThemeNotFound{ID: id}
	}

	ch := r.group.DoChan(id, func() (any, error) {
		f, err := e.loader(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, errors.New("loader returned no factory")
		}
		r.mu.Lock()
		r.loaded[id] = f
		r.mu.Unlock()
		return f, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, countdownerrors.NewThemeError(id, fmt.Errorf("load failed: %w", res.Err))
		}
		return res.Val.(renderer.Factory), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IDs returns the registered theme ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.themes))
	for id := range r.themes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Describe returns the metadata of id.
func (r *Registry) Describe(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.themes[id]
	return e.desc, ok
}

// Descriptors returns every theme's metadata sorted by id.
func (r *Registry) Descriptors() []Descriptor {
	ids := r.IDs()
	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.Describe(id); ok {
			out = append(out, d)
		}
	}
	return out
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Describe(id)
	return ok
}

// Default returns the fallback theme id.
func (r *Registry) Default() string {
	return r.defaultID
}

// Resolve returns id when it is registered and the default id otherwise.
func (r *Registry) Resolve(id string) string {
	if r.Has(id) {
		return id
	}

	r.mu.RLock()
	log := r.logger
	r.mu.RUnlock()
	if id != "" {
		log.WithFields(map[string]any{"theme": id, "fallback": r.defaultID}).Warn("unknown theme, using default")
	}
	return r.defaultID
}

var global = NewRegistry(DefaultID, nil)

// Global returns the process-wide registry that theme packages register into.
func Global() *Registry {
	return global
}

// Register adds a theme to the global registry.
func Register(desc Descriptor, loader Loader) error {
	return global.Register(desc, loader)
}

// MustRegister is Register for init functions.
func MustRegister(desc Descriptor, loader Loader) {
	if err := Register(desc, loader); err != nil {
		panic(err)
	}
}

// Static wraps a ready factory in a Loader.
func Static(f renderer.Factory) Loader {
	return func(context.Context) (renderer.Factory, error) {
		return f, nil
	}
}
