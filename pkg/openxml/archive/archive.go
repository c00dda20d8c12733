// Package archive converts between OOXML ZIP containers and a store.Store.
//
// Loading reads every entry fully into memory and imports it under its
// archive path, inside one savepoint so a corrupt entry leaves the store
// as it was. Dumping writes every stored part, in store order, as one
// DEFLATE entry with a fixed modification time.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/store"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

var (
	// ErrArchiveRead is returned when the source ZIP cannot be read.
	ErrArchiveRead = errors.New("archive: read failed")
	// ErrArchiveWrite is returned when the output ZIP cannot be built.
	ErrArchiveWrite = errors.New("archive: write failed")
)

// epoch is the earliest time a ZIP header can carry. Every dumped entry
// uses it so equal stores produce equal archives.
var epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Stored is the ZipLevel that writes entries without DEFLATE.
const Stored = -3

// Options configures a Codec.
type Options struct {
	// ZipLevel is the DEFLATE level for dumped entries, from
	// flate.HuffmanOnly to flate.BestCompression, or Stored. Zero selects
	// flate.DefaultCompression.
	ZipLevel int
	// Logger receives load/dump events. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns DEFLATE at the library default level.
func DefaultOptions() Options {
	return Options{ZipLevel: flate.DefaultCompression}
}

// Codec translates ZIP archives to and from store records.
type Codec struct {
	level  int
	logger *slog.Logger
}

// ValidateLevel reports whether level is usable as Options.ZipLevel.
func ValidateLevel(level int) error {
	if level == Stored {
		return nil
	}
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return fmt.Errorf("archive: zip level %d out of range %d-%d or %d",
			level, flate.HuffmanOnly, flate.BestCompression, Stored)
	}
	return nil
}

// New returns a Codec for opts.
func New(opts Options) (*Codec, error) {
	if err := ValidateLevel(opts.ZipLevel); err != nil {
		return nil, err
	}
	level := opts.ZipLevel
	if level == flate.NoCompression {
		level = flate.DefaultCompression
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Codec{level: level, logger: logger}, nil
}

// Open creates a store with storeOpts and loads the archive at path into
// it. On failure no store is left open.
func (c *Codec) Open(path string, storeOpts store.Options) (*store.Store, error) {
	s, err := store.Create(storeOpts)
	if err != nil {
		return nil, err
	}
	if err := c.Load(s, path); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	return s, nil
}

// Load imports every entry of the ZIP file at path.
func (c *Codec) Load(s *store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveRead, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArchiveRead, path, err)
	}
	if err := c.LoadReader(s, f, info.Size()); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadBytes imports every entry of the ZIP held in data.
func (c *Codec) LoadBytes(s *store.Store, data []byte) error {
	return c.LoadReader(s, bytes.NewReader(data), int64(len(data)))
}

// LoadReader imports every entry of the ZIP read from r.
func (c *Codec) LoadReader(s *store.Store, r io.ReaderAt, size int64) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveRead, err)
	}

	var total int64
	err = s.Transaction(func() error {
		for _, f := range zr.File {
			data, err := readEntry(f)
			if err != nil {
				return fmt.Errorf("%w: entry %s: %w", ErrArchiveRead, f.Name, err)
			}
			if err := s.Import(f.Name, data); err != nil {
				return err
			}
			total += int64(len(data))
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("archive loaded", "entries", len(zr.File), "bytes", total)
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.FileInfo().IsDir() {
		return []byte{}, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Dump builds the archive for every part in s. An empty store yields a
// valid archive with no entries.
func (c *Codec) Dump(s *store.Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.DumpTo(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DumpTo writes the archive for every part in s to w. A failure leaves w
// holding an incomplete archive; callers that need atomic output write to
// a buffer or temp file first.
func (c *Codec) DumpTo(s *store.Store, w io.Writer) error {
	zw := zip.NewWriter(w)
	level := c.level
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	var (
		entries int
		total   int64
	)
	method := zip.Deflate
	if c.level == Stored {
		method = zip.Store
	}
	err := s.Each(func(rec store.Record) error {
		if err := writeEntry(zw, rec, method); err != nil {
			return fmt.Errorf("entry %s: %w", rec.FileName, err)
		}
		entries++
		total += rec.UncompressedSize
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}

	c.logger.Info("archive dumped", "entries", entries, "bytes", total)
	return nil
}

func writeEntry(zw *zip.Writer, rec store.Record, method uint16) error {
	header := &zip.FileHeader{
		Name:     rec.FileName,
		Method:   method,
		Modified: epoch,
	}
	if rec.IsDir() {
		header.Method = zip.Store
		_, err := zw.CreateHeader(header)
		return err
	}

	data, err := rec.Data()
	if err != nil {
		return err
	}
	ew, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = ew.Write(data)
	return err
}
