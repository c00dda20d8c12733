package openxml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/archive"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/parts"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/store"
	"github.com/google/uuid"
)

// Package is one open OOXML package: a staging store holding its parts,
// the codec that moves it to and from ZIP form, and the registry of live
// part controllers. A Package is not safe for concurrent use.
type Package struct {
	id     string
	config *Config
	logger *Logger
	store  *store.Store
	codec  *archive.Codec
	parts  *parts.Registry
	closed bool
}

// New creates an empty package. A nil config uses the global one.
func New(config *Config) (*Package, error) {
	return newPackage(config, func(*archive.Codec, *store.Store) error { return nil })
}

// Open loads the package file at path.
func Open(path string, config *Config) (*Package, error) {
	pkg, err := newPackage(config, func(codec *archive.Codec, s *store.Store) error {
		return codec.Load(s, path)
	})
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	return pkg, nil
}

// OpenBytes loads a package from its ZIP bytes.
func OpenBytes(data []byte, config *Config) (*Package, error) {
	pkg, err := newPackage(config, func(codec *archive.Codec, s *store.Store) error {
		return codec.LoadBytes(s, data)
	})
	if err != nil {
		return nil, NewOperationError("open", "", err)
	}
	return pkg, nil
}

func newPackage(config *Config, load func(*archive.Codec, *store.Store) error) (*Package, error) {
	if config == nil {
		config = GetGlobalConfig()
	}
	config = NewConfigWithDefaults(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := GetLogger().WithField("package", id)

	storeOpts, err := config.storeOptions(logger)
	if err != nil {
		return nil, err
	}
	codec, err := archive.New(config.archiveOptions(logger))
	if err != nil {
		return nil, err
	}
	s, err := store.Create(storeOpts)
	if err != nil {
		return nil, err
	}
	if err := load(codec, s); err != nil {
		return nil, errors.Join(err, s.Close())
	}

	return &Package{
		id:     id,
		config: config,
		logger: logger,
		store:  s,
		codec:  codec,
		parts:  parts.NewRegistry(s, config.partsOptions(logger)),
	}, nil
}

// ID identifies the session in log output.
func (p *Package) ID() string { return p.id }

// Config returns a copy of the configuration the package was opened with.
func (p *Package) Config() Config { return *p.config }

// Store returns the staging store. Callers must not close it.
func (p *Package) Store() *store.Store { return p.store }

// Parts returns the registry every controller of this package is opened
// against.
func (p *Package) Parts() *parts.Registry { return p.parts }

// Closed reports whether Close has been called.
func (p *Package) Closed() bool { return p.closed }

// Flush closes every live controller so their edits reach the store.
func (p *Package) Flush() error {
	if p.closed {
		return ErrPackageClosed
	}
	if err := p.parts.CloseAll(); err != nil {
		return NewOperationError("flush", "", err)
	}
	return nil
}

// Bytes flushes every live controller and returns the package as a ZIP.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo flushes every live controller and writes the ZIP to w. Nothing
// is written unless the whole archive was built.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	if err := p.Flush(); err != nil {
		return 0, err
	}
	data, err := p.codec.Dump(p.store)
	if err != nil {
		return 0, NewOperationError("dump", "", err)
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), NewOperationError("write", "", err)
	}
	return int64(n), nil
}

// SaveAs writes the package to path. The archive goes to a temporary file
// in the same directory first and replaces path only once complete.
func (p *Package) SaveAs(path string) (err error) {
	data, err := p.Bytes()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return NewOperationError("save", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return NewOperationError("save", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return NewOperationError("save", path, err)
	}
	if err = tmp.Close(); err != nil {
		return NewOperationError("save", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return NewOperationError("save", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return NewOperationError("save", path, err)
	}

	p.logger.Info("package saved to %s (%d bytes)", path, len(data))
	return nil
}

// Close flushes live controllers and releases the store, deleting its
// scratch file. Edits not saved before Close are lost. Close is safe to
// call more than once.
func (p *Package) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.parts.CloseAll(); err != nil {
		errs = append(errs, err)
	}
	if err := p.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return NewOperationError("close", "", err)
	}
	return nil
}

// String describes the package for log output.
func (p *Package) String() string {
	return fmt.Sprintf("openxml.Package(%s, %s)", p.id, p.store.Path())
}
