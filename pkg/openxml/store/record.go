package store

import (
	"bytes"
	"fmt"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
)

// Origin records where a part came from.
type Origin uint8

const (
	// OriginLoaded marks parts read from a source archive.
	OriginLoaded Origin = iota
	// OriginCreated marks parts first written during the session.
	OriginCreated
)

func (o Origin) String() string {
	if o == OriginCreated {
		return "created"
	}
	return "loaded"
}

func parseOrigin(s string) Origin {
	if s == "created" {
		return OriginCreated
	}
	return OriginLoaded
}

// Record is one row of the archive table. Content is the compressed form;
// use Data for the original bytes.
type Record struct {
	Seq              int64
	FileName         string
	CompressedSize   int64
	UncompressedSize int64
	CompressionLevel int
	CompressionType  Compression
	Content          []byte
	TreeContent      []byte
	ContentHash      []byte
	Origin           Origin
	Accessed         bool
	Modified         bool
}

// Data decompresses the record's content and checks it against the
// stored digest.
func (r Record) Data() ([]byte, error) {
	data, err := decompress(r.Content, r.CompressionType, int(r.UncompressedSize))
	if err != nil {
		return nil, err
	}
	if sum := blake3.Sum256(data); !bytes.Equal(sum[:], r.ContentHash) {
		return nil, fmt.Errorf("content digest mismatch for %s", r.FileName)
	}
	return data, nil
}

// IsDir reports whether the record is a ZIP directory entry.
func (r Record) IsDir() bool {
	return len(r.FileName) > 0 && r.FileName[len(r.FileName)-1] == '/'
}

// Columns: seq(0), file_name(1), compressed_size(2), uncompressed_size(3),
// compression_level(4), compression_type(5), content(6), tree_content(7),
// content_hash(8), origin(9), accessed(10), modified(11)
func scanRecord(stmt *sqlite.Stmt) (Record, error) {
	codec, err := ParseCompression(stmt.ColumnText(5))
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		Seq:              stmt.ColumnInt64(0),
		FileName:         stmt.ColumnText(1),
		CompressedSize:   stmt.ColumnInt64(2),
		UncompressedSize: stmt.ColumnInt64(3),
		CompressionLevel: stmt.ColumnInt(4),
		CompressionType:  codec,
		Content:          columnBlob(stmt, 6),
		ContentHash:      columnBlob(stmt, 8),
		Origin:           parseOrigin(stmt.ColumnText(9)),
		Accessed:         stmt.ColumnInt(10) != 0,
		Modified:         stmt.ColumnInt(11) != 0,
	}
	if !stmt.ColumnIsNull(7) {
		rec.TreeContent = columnBlob(stmt, 7)
	}
	return rec, nil
}
