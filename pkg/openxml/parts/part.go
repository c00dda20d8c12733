// Package parts implements controllers for the logical files of a package.
//
// A controller owns one part: it loads the part's tree from the store, or
// from a built-in template when the part does not exist yet, exposes typed
// accessors over it, and writes it back exactly once when closed. Every
// controller is registered with a Registry, which allows a single live
// controller per part name.
//
// Controllers must be closed. With wraps open, use and close so the flush
// happens on every exit path:
//
//	err := parts.With(func() (*parts.CoreProperties, error) {
//	    return parts.OpenCoreProperties(reg)
//	}, func(cp *parts.CoreProperties) error {
//	    return cp.SetTitle("Quarterly report")
//	})
//
// SharedStrings, CalculationChain and Styles move repeated leaf data out
// of the tree into tables on the store's connection when they open, and
// rebuild the elements from those tables when they close.
package parts

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
	"zombiezen.com/go/sqlite"
)

var (
	// ErrPartInUse is returned when a controller is opened for a part that
	// already has a live controller.
	ErrPartInUse = errors.New("parts: part already open")
	// ErrPartClosed is returned by every operation on a closed controller.
	ErrPartClosed = errors.New("parts: part closed")
	// ErrInvalidPart is returned when a part's content does not have the
	// structure its controller expects.
	ErrInvalidPart = errors.New("parts: invalid part")
)

// Backend is the storage a Registry works against. *store.Store
// satisfies it.
type Backend interface {
	Get(name string) ([]byte, bool, error)
	Put(name string, data []byte) error
	PutTree(name string, data, tree []byte) error
	Tree(name string) ([]byte, bool, error)
	Exists(name string) (bool, error)
	Delete(name string) error
	Exec(sql string, args ...any) error
	Query(sql string, fn func(stmt *sqlite.Stmt) error, args ...any) error
	ExecScript(script string) error
	Transaction(fn func() error) error
}

// State is the lifecycle position of a controller.
type State uint8

const (
	StateUninitialized State = iota
	// StateLoaded: the tree came from stored bytes or a cached tree.
	StateLoaded
	// StateInitialized: the part did not exist and the tree came from the
	// controller's template.
	StateInitialized
	StateMutated
	StateFlushed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateInitialized:
		return "initialized"
	case StateMutated:
		return "mutated"
	case StateFlushed:
		return "flushed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Source tells where a controller's tree came from.
type Source uint8

const (
	SourceNone Source = iota
	SourceCache
	SourceStore
	SourceTemplate
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceStore:
		return "store"
	case SourceTemplate:
		return "template"
	default:
		return "none"
	}
}

// Options configures a Registry.
type Options struct {
	// CacheTrees stores a CBOR snapshot of each flushed tree next to its
	// bytes and prefers it over parsing on the next open.
	CacheTrees bool
	// Now supplies timestamps such as dcterms:modified. Nil means
	// time.Now.
	Now func() time.Time
	// Logger receives open/flush events. Nil discards them.
	Logger *slog.Logger
}

// Template builds the tree of a part that does not exist yet.
type Template func() (*xml.Document, error)

// Part is the controller for one XML part. The typed controllers embed it;
// on its own it serves any XML part through Document.
type Part struct {
	reg    *Registry
	name   string
	doc    *xml.Document
	state  State
	source Source

	// beforeFlush runs ahead of serialization. Returning keep=false
	// removes the part from the store instead of writing it.
	beforeFlush func() (keep bool, err error)
}

// OpenPart opens a controller for name. When the part does not exist,
// template builds it; a nil template makes a missing part an error.
func OpenPart(reg *Registry, name string, template Template) (*Part, error) {
	p := &Part{reg: reg, name: name}
	if err := reg.acquire(name, p); err != nil {
		return nil, err
	}
	if err := p.load(template); err != nil {
		reg.release(name)
		return nil, fmt.Errorf("parts: open %s: %w", name, err)
	}
	reg.logger.Debug("part opened", "part", name, "source", p.source.String())
	return p, nil
}

func (p *Part) load(template Template) error {
	b := p.reg.backend
	if p.reg.opts.CacheTrees {
		snap, ok, err := b.Tree(p.name)
		if err != nil {
			return err
		}
		if ok {
			doc, err := xml.DecodeSnapshot(snap)
			if err == nil {
				p.doc, p.state, p.source = doc, StateLoaded, SourceCache
				return nil
			}
			p.reg.logger.Warn("discarding tree cache", "part", p.name, "error", err)
		}
	}

	data, ok, err := b.Get(p.name)
	if err != nil {
		return err
	}
	if ok {
		doc, err := xml.Parse(data)
		if err != nil {
			return err
		}
		p.doc, p.state, p.source = doc, StateLoaded, SourceStore
		return nil
	}

	if template == nil {
		return fmt.Errorf("%w: %s does not exist", ErrInvalidPart, p.name)
	}
	doc, err := template()
	if err != nil {
		return fmt.Errorf("template: %w", err)
	}
	p.doc, p.state, p.source = doc, StateInitialized, SourceTemplate
	return nil
}

// Name returns the part name inside the package.
func (p *Part) Name() string { return p.name }

// State returns the controller's lifecycle state.
func (p *Part) State() State { return p.state }

// Source returns where the tree was loaded from.
func (p *Part) Source() Source { return p.source }

// Closed reports whether the part has been flushed.
func (p *Part) Closed() bool { return p.state == StateFlushed }

// Document returns the tree for direct edits and marks the part mutated.
// The pointer must not be used after Close.
func (p *Part) Document() (*xml.Document, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	p.touch()
	return p.doc, nil
}

func (p *Part) check() error {
	if p.state == StateFlushed {
		return fmt.Errorf("%w: %s", ErrPartClosed, p.name)
	}
	return nil
}

func (p *Part) touch() {
	if p.state != StateFlushed {
		p.state = StateMutated
	}
}

func (p *Part) root() (*xml.Element, error) {
	root := p.doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: %s has no root", ErrInvalidPart, p.name)
	}
	return root, nil
}

// abandon unregisters a part that failed to open, without writing it.
func (p *Part) abandon() {
	p.state = StateFlushed
	p.reg.release(p.name)
}

// Close writes the tree back to the store and unregisters the part. Only
// the first call flushes; later calls return nil.
func (p *Part) Close() error {
	if p.state == StateFlushed {
		return nil
	}
	defer func() {
		p.state = StateFlushed
		p.reg.release(p.name)
	}()

	keep := true
	if p.beforeFlush != nil {
		var err error
		if keep, err = p.beforeFlush(); err != nil {
			return fmt.Errorf("parts: flush %s: %w", p.name, err)
		}
	}
	if !keep {
		if err := p.reg.backend.Delete(p.name); err != nil {
			return fmt.Errorf("parts: flush %s: %w", p.name, err)
		}
		p.reg.logger.Debug("part removed", "part", p.name)
		return nil
	}

	data, err := xml.Serialize(p.doc)
	if err != nil {
		return fmt.Errorf("parts: flush %s: %w", p.name, err)
	}
	if p.reg.opts.CacheTrees {
		snap, err := xml.EncodeSnapshot(p.doc)
		if err != nil {
			return fmt.Errorf("parts: flush %s: %w", p.name, err)
		}
		err = p.reg.backend.PutTree(p.name, data, snap)
		if err != nil {
			return fmt.Errorf("parts: flush %s: %w", p.name, err)
		}
	} else if err := p.reg.backend.Put(p.name, data); err != nil {
		return fmt.Errorf("parts: flush %s: %w", p.name, err)
	}
	p.reg.logger.Debug("part flushed", "part", p.name, "bytes", len(data), "state", p.state.String())
	return nil
}

// With opens a controller, passes it to fn and closes it on every exit
// path, joining a close error with fn's.
func With[P interface{ Close() error }](open func() (P, error), fn func(P) error) (err error) {
	p, err := open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(p)
}

func parseTemplate(name string) Template {
	return func() (*xml.Document, error) {
		data, err := templates.ReadFile("templates/" + name)
		if err != nil {
			return nil, err
		}
		return xml.Parse(data)
	}
}

func rootTemplate(tag, namespace string) Template {
	return func() (*xml.Document, error) {
		doc := xml.NewDocument()
		if _, err := doc.CreateRoot(tag); err != nil {
			return nil, err
		}
		doc.SetNamespace("", namespace)
		return doc, nil
	}
}
