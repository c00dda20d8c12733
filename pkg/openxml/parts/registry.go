package parts

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Registry tracks the live controllers of one package session. It is not
// safe for concurrent use.
type Registry struct {
	backend Backend
	opts    Options
	logger  *slog.Logger

	live  map[string]*Part
	order []string
}

// NewRegistry returns a registry over backend.
func NewRegistry(backend Backend, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		backend: backend,
		opts:    opts,
		logger:  logger,
		live:    make(map[string]*Part),
	}
}

// Backend returns the storage the registry works against.
func (r *Registry) Backend() Backend { return r.backend }

func (r *Registry) now() time.Time {
	if r.opts.Now != nil {
		return r.opts.Now()
	}
	return time.Now()
}

func (r *Registry) acquire(name string, p *Part) error {
	if _, ok := r.live[name]; ok {
		return fmt.Errorf("%w: %s", ErrPartInUse, name)
	}
	r.live[name] = p
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) release(name string) {
	if _, ok := r.live[name]; !ok {
		return
	}
	delete(r.live, name)
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// IsOpen reports whether name has a live controller.
func (r *Registry) IsOpen(name string) bool {
	_, ok := r.live[name]
	return ok
}

// Open returns the names of the live controllers in the order they were
// opened.
func (r *Registry) Open() []string {
	return slices.Clone(r.order)
}

// CloseAll closes every live controller, most recently opened first, so a
// part closes before the relationships part it was resolved through. All
// controllers are closed even when some fail.
func (r *Registry) CloseAll() error {
	var errs []error
	for len(r.order) > 0 {
		name := r.order[len(r.order)-1]
		if err := r.live[name].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
