package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the internal codec used for a record's content
// at rest. It is independent of the compression used inside the final ZIP.
type Compression uint8

const (
	// CompressionZstd is zstd. Level 0 is the library default, other
	// levels follow the zstd command line scale. It is the zero value.
	CompressionZstd Compression = iota

	// CompressionLZ4 is LZ4 block compression. Level 0 uses the fast
	// compressor, levels 1-9 the high-compression one.
	CompressionLZ4

	// CompressionNone stores content as-is. Records fall back to it when
	// the selected codec would not shrink the data.
	CompressionNone
)

// DefaultCompression is the codec of a zero-valued Options.
const DefaultCompression = CompressionZstd

var errIncompressible = errors.New("data is incompressible")

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a codec name as produced by String. An empty
// name is DefaultCompression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultCompression, nil
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("store: unknown compression %q", name)
	}
}

// ValidateLevel reports whether level is usable with c.
func ValidateLevel(c Compression, level int) error {
	switch c {
	case CompressionNone:
		return nil
	case CompressionLZ4:
		if level < 0 || level >= len(lz4Levels) {
			return fmt.Errorf("store: lz4 level %d out of range 0-%d", level, len(lz4Levels)-1)
		}
		return nil
	case CompressionZstd:
		if level < 0 || level > 22 {
			return fmt.Errorf("store: zstd level %d out of range 0-22", level)
		}
		return nil
	default:
		return fmt.Errorf("store: unsupported compression %d", uint8(c))
	}
}

// compress encodes data with c. When the codec cannot make the data
// smaller the input is returned unchanged with CompressionNone, so the
// returned codec is the one that must be used to decode.
func compress(data []byte, c Compression, level int) ([]byte, Compression, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		out, err = compressLZ4(data, level)
	case CompressionZstd:
		out, err = compressZstd(data, level)
	default:
		return nil, 0, fmt.Errorf("unsupported compression %d", uint8(c))
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return out, c, nil
}

// decompress reverses compress. size is the exact length of the original
// data and is checked.
func decompress(data []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != size {
			return nil, fmt.Errorf("uncompressed content: size %d does not match expected %d", len(data), size)
		}
		return data, nil
	case CompressionLZ4:
		return decompressLZ4(data, size)
	case CompressionZstd:
		return decompressZstd(data, size)
	default:
		return nil, fmt.Errorf("unsupported compression %d", uint8(c))
	}
}

var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

func compressLZ4(data []byte, level int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errIncompressible
	}
	destination := make([]byte, lz4.CompressBlockBound(len(data)))

	var (
		written int
		err     error
	)
	if level == 0 {
		written, err = lz4.CompressBlock(data, destination, nil)
	} else {
		written, err = lz4.CompressBlockHC(data, destination, lz4Levels[level], nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(data []byte, size int) ([]byte, error) {
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(data, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}

// zstd encoders are cached per level; zstd.Encoder and zstd.Decoder are
// safe for concurrent use.
var (
	zstdMu       sync.Mutex
	zstdEncoders = map[zstd.EncoderLevel]*zstd.Encoder{}
	zstdDecoder  *zstd.Decoder
)

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

func zstdEncoder(level int) (*zstd.Encoder, error) {
	encoderLevel := zstd.SpeedDefault
	if level > 0 {
		encoderLevel = zstd.EncoderLevelFromZstd(level)
	}

	zstdMu.Lock()
	defer zstdMu.Unlock()
	if enc, ok := zstdEncoders[encoderLevel]; ok {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	zstdEncoders[encoderLevel] = enc
	return enc, nil
}

func compressZstd(data []byte, level int) ([]byte, error) {
	enc, err := zstdEncoder(level)
	if err != nil {
		return nil, err
	}
	compressed := enc.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(data []byte, size int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
	}
	return result, nil
}
