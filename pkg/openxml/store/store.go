// Package store implements the staging database that holds every part of
// an open package.
//
// A Store is a single SQLite connection, either in memory or backed by a
// scratch file that is deleted on Close. Each part is one row of the
// archive table, its content compressed with the internal codec. Part
// controllers may create companion tables on the same connection through
// Exec, Query and ExecScript.
//
// A Store is owned by one session and is not safe for concurrent use.
package store

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/query"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

var (
	// ErrStoreInit is returned when the backing database cannot be set up.
	ErrStoreInit = errors.New("store: init failed")
	// ErrClosed is returned by every operation on a closed Store.
	ErrClosed = errors.New("store: closed")
)

//go:embed sql/archive.sql
var archiveSQL string

var queries = query.MustParse(archiveSQL)

// Options configures a Store.
type Options struct {
	// InMemory keeps the database in process memory. Otherwise it lives
	// in a scratch file under TempDir.
	InMemory bool
	// TempDir is the directory for the scratch file. Empty means
	// os.TempDir().
	TempDir string
	// Compression is the codec for content at rest. The zero value is
	// DefaultCompression.
	Compression Compression
	// CompressionLevel is passed to the codec. Zero selects its default.
	CompressionLevel int
	// Logger receives open/close events. Nil discards them.
	Logger *slog.Logger
}

// Store is the staging database for one package session.
type Store struct {
	conn    *sqlite.Conn
	path    string
	opts    Options
	logger  *slog.Logger
	nextSeq int64
	closed  bool
}

// Create initializes an empty store.
func Create(opts Options) (*Store, error) {
	if err := ValidateLevel(opts.Compression, opts.CompressionLevel); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreInit, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	path := ":memory:"
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	if opts.InMemory {
		flags = append(flags, sqlite.OpenMemory)
	} else {
		dir := opts.TempDir
		if dir == "" {
			dir = os.TempDir()
		}
		path = filepath.Join(dir, "openxml-"+uuid.NewString()+".db")
	}

	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrStoreInit, path, err)
	}

	s := &Store{conn: conn, path: path, opts: opts, logger: logger, nextSeq: 1}
	if err := s.prepare(); err != nil {
		conn.Close()
		s.removeFiles()
		return nil, fmt.Errorf("%w: %w", ErrStoreInit, err)
	}

	logger.Info("store opened",
		"path", path,
		"in_memory", opts.InMemory,
		"compression", opts.Compression.String(),
	)
	return s, nil
}

// prepare applies scratch-database pragmas and creates the archive table.
// The database never outlives the session, so durability is traded away.
func (s *Store) prepare() error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA foreign_keys=OFF",
		"PRAGMA cache_size=-8192",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(s.conn, pragma, nil); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(s.conn, queries.MustGet("create_archive_table"), nil); err != nil {
		return fmt.Errorf("creating archive table: %w", err)
	}
	return nil
}

// Path returns the scratch file path, or ":memory:".
func (s *Store) Path() string { return s.path }

// InMemory reports whether the store has no scratch file.
func (s *Store) InMemory() bool { return s.opts.InMemory }

// Close releases the connection and deletes the scratch file. It is safe
// to call more than once.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.conn.Close()
	if rmErr := s.removeFiles(); rmErr != nil {
		err = errors.Join(err, rmErr)
	}
	if err != nil {
		s.logger.Error("store close error", "path", s.path, "error", err)
		return fmt.Errorf("store: closing %s: %w", s.path, err)
	}
	s.logger.Info("store closed", "path", s.path)
	return nil
}

func (s *Store) removeFiles() error {
	if s.opts.InMemory {
		return nil
	}
	var errs []error
	for _, name := range []string{s.path, s.path + "-journal"} {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) check() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Put inserts or replaces a part created during the session.
func (s *Store) Put(name string, data []byte) error {
	return s.put(name, data, nil, OriginCreated)
}

// PutTree is Put plus a cached parsed form of data. A later Put with
// different content discards the cache.
func (s *Store) PutTree(name string, data, tree []byte) error {
	return s.put(name, data, tree, OriginCreated)
}

// Import stores a part read from a source archive. Imported parts start
// out unmodified.
func (s *Store) Import(name string, data []byte) error {
	return s.put(name, data, nil, OriginLoaded)
}

func (s *Store) put(name string, data, tree []byte, origin Origin) error {
	if err := s.check(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("store: put: empty file name")
	}

	content, codec, err := compress(data, s.opts.Compression, s.opts.CompressionLevel)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", name, err)
	}
	level := s.opts.CompressionLevel
	if codec == CompressionNone {
		level = 0
	}
	hash := blake3.Sum256(data)

	var treeArg any
	if tree != nil {
		treeArg = tree
	}

	seq, err := s.seqFor(name)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", name, err)
	}
	err = sqlitex.Execute(s.conn, queries.MustGet("upsert_record"), &sqlitex.ExecOptions{
		Args: []any{
			seq,
			name,
			len(content),
			len(data),
			level,
			codec.String(),
			content,
			treeArg,
			hash[:],
			origin.String(),
			boolInt(origin == OriginCreated),
		},
	})
	if err != nil {
		return fmt.Errorf("store: put %s: %w", name, err)
	}
	if seq == s.nextSeq {
		s.nextSeq++
	}
	return nil
}

// seqFor returns the existing sequence number of name, or the next free
// one for a new record.
func (s *Store) seqFor(name string) (int64, error) {
	rec, ok, err := s.record(name)
	if err != nil {
		return 0, err
	}
	if ok {
		return rec.Seq, nil
	}
	return s.nextSeq, nil
}

// Get returns the decompressed content of name. A missing part is not an
// error: ok is false and data is nil.
func (s *Store) Get(name string) (data []byte, ok bool, err error) {
	if err := s.check(); err != nil {
		return nil, false, err
	}
	rec, ok, err := s.record(name)
	if err != nil || !ok {
		return nil, ok, wrapGet(name, err)
	}
	data, err = rec.Data()
	if err != nil {
		return nil, false, wrapGet(name, err)
	}
	if err := sqlitex.Execute(s.conn, queries.MustGet("mark_accessed"), &sqlitex.ExecOptions{
		Args: []any{name},
	}); err != nil {
		return nil, false, wrapGet(name, err)
	}
	return data, true, nil
}

func wrapGet(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store: get %s: %w", name, err)
}

// Tree returns the cached parsed form stored with PutTree, if any.
func (s *Store) Tree(name string) ([]byte, bool, error) {
	if err := s.check(); err != nil {
		return nil, false, err
	}
	var (
		tree  []byte
		found bool
	)
	err := sqlitex.Execute(s.conn, queries.MustGet("select_tree"), &sqlitex.ExecOptions{
		Args: []any{name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			if stmt.ColumnIsNull(0) {
				return nil
			}
			tree = columnBlob(stmt, 0)
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("store: tree %s: %w", name, err)
	}
	return tree, found, nil
}

// Exists reports whether name is stored.
func (s *Store) Exists(name string) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	_, ok, err := s.record(name)
	if err != nil {
		return false, fmt.Errorf("store: exists %s: %w", name, err)
	}
	return ok, nil
}

// Record returns the raw row for name without decompressing it.
func (s *Store) Record(name string) (Record, bool, error) {
	if err := s.check(); err != nil {
		return Record{}, false, err
	}
	rec, ok, err := s.record(name)
	if err != nil {
		return Record{}, false, fmt.Errorf("store: record %s: %w", name, err)
	}
	return rec, ok, nil
}

func (s *Store) record(name string) (Record, bool, error) {
	var (
		rec   Record
		found bool
	)
	err := sqlitex.Execute(s.conn, queries.MustGet("select_record"), &sqlitex.ExecOptions{
		Args: []any{name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var err error
			rec, err = scanRecord(stmt)
			found = err == nil
			return err
		},
	})
	return rec, found, err
}

// Delete removes name. Deleting a missing part is a no-op.
func (s *Store) Delete(name string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := sqlitex.Execute(s.conn, queries.MustGet("delete_record"), &sqlitex.ExecOptions{
		Args: []any{name},
	}); err != nil {
		return fmt.Errorf("store: delete %s: %w", name, err)
	}
	return nil
}

// Names returns every part name in load/insert order.
func (s *Store) Names() ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var names []string
	err := sqlitex.Execute(s.conn, queries.MustGet("select_names"), &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			names = append(names, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: names: %w", err)
	}
	return names, nil
}

// Len returns the number of stored parts.
func (s *Store) Len() (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	var n int
	err := sqlitex.Execute(s.conn, queries.MustGet("count_records"), &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Each calls fn for every record in load/insert order, stopping at the
// first error. fn must not call back into the Store.
func (s *Store) Each(fn func(Record) error) error {
	if err := s.check(); err != nil {
		return err
	}
	err := sqlitex.Execute(s.conn, queries.MustGet("select_records"), &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			rec, err := scanRecord(stmt)
			if err != nil {
				return err
			}
			return fn(rec)
		},
	})
	if err != nil {
		return fmt.Errorf("store: enumerate: %w", err)
	}
	return nil
}

// All returns every record in load/insert order.
func (s *Store) All() ([]Record, error) {
	var records []Record
	err := s.Each(func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	return records, err
}

// Exec runs one statement against the store's connection.
func (s *Store) Exec(sql string, args ...any) error {
	if err := s.check(); err != nil {
		return err
	}
	return sqlitex.Execute(s.conn, sql, &sqlitex.ExecOptions{Args: args})
}

// Query runs one statement and calls fn for every result row.
func (s *Store) Query(sql string, fn func(stmt *sqlite.Stmt) error, args ...any) error {
	if err := s.check(); err != nil {
		return err
	}
	return sqlitex.Execute(s.conn, sql, &sqlitex.ExecOptions{Args: args, ResultFunc: fn})
}

// ExecScript runs a sequence of statements.
func (s *Store) ExecScript(script string) error {
	if err := s.check(); err != nil {
		return err
	}
	return sqlitex.ExecuteScript(s.conn, script, nil)
}

// Transaction runs fn inside a savepoint, rolling back if fn returns an
// error.
func (s *Store) Transaction(fn func() error) (err error) {
	if err := s.check(); err != nil {
		return err
	}
	release := sqlitex.Save(s.conn)
	defer release(&err)
	return fn()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func columnBlob(stmt *sqlite.Stmt, col int) []byte {
	buf := make([]byte, stmt.ColumnLen(col))
	stmt.ColumnBytes(col, buf)
	return buf
}
