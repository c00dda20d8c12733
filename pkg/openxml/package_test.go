package openxml

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/parts"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPackage(t *testing.T, config *Config) *Package {
	t.Helper()
	if config == nil {
		config = &Config{InMemory: true, LogLevel: "off"}
	}
	pkg, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() { pkg.Close() })
	return pkg
}

func TestPackageSaveAndReopen(t *testing.T) {
	pkg := newTestPackage(t, nil)
	reg := pkg.Parts()

	types, err := parts.OpenContentTypes(reg)
	require.NoError(t, err)
	rels, err := parts.OpenRelations(reg, parts.KindWorkbook.DefaultPath)
	require.NoError(t, err)
	sst, err := parts.OpenSharedStrings(reg, rels, types)
	require.NoError(t, err)
	_, err = sst.Index("hello")
	require.NoError(t, err)

	err = parts.With(func() (*parts.CoreProperties, error) {
		return parts.OpenCoreProperties(reg)
	}, func(cp *parts.CoreProperties) error {
		return cp.SetTitle("Saved")
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{parts.ContentTypesPath, "xl/_rels/workbook.xml.rels", "xl/sharedStrings.xml"}, reg.Open())

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, pkg.SaveAs(path))
	assert.Empty(t, reg.Open(), "saving flushes every live controller")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary file is left behind")

	reopened, err := Open(path, &Config{InMemory: true, LogLevel: "off"})
	require.NoError(t, err)
	defer reopened.Close()
	assert.NotEqual(t, pkg.ID(), reopened.ID())

	names, err := reopened.Store().Names()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"docProps/core.xml",
		"xl/sharedStrings.xml",
		"xl/_rels/workbook.xml.rels",
		parts.ContentTypesPath,
	}, names)

	sst, err = parts.OpenSharedStrings(reopened.Parts(), nil, nil)
	require.NoError(t, err)
	value, ok, err := sst.Value(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", value)
	require.NoError(t, reopened.Close())
}

func TestPackageBytesAreStable(t *testing.T) {
	pkg := newTestPackage(t, nil)
	require.NoError(t, pkg.Store().Put("a.xml", []byte("<a/>")))

	first, err := pkg.Bytes()
	require.NoError(t, err)
	second, err := pkg.Bytes()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	copied, err := OpenBytes(first, &Config{InMemory: true, Compression: "lz4", LogLevel: "off"})
	require.NoError(t, err)
	defer copied.Close()
	data, ok, err := copied.Store().Get("a.xml")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<a/>", string(data))
}

func TestPackageZeroConfigCompresses(t *testing.T) {
	pkg := newTestPackage(t, &Config{InMemory: true})
	content := []byte(strings.Repeat(`<row r="1"><c r="A1" t="s"><v>0</v></c></row>`, 300))
	require.NoError(t, pkg.Store().Put("xl/worksheets/sheet1.xml", content))

	rec, ok, err := pkg.Store().Record("xl/worksheets/sheet1.xml")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "zstd", rec.CompressionType.String())

	data, err := pkg.Bytes()
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, zip.Deflate, zr.File[0].Method)
	assert.Less(t, zr.File[0].CompressedSize64, zr.File[0].UncompressedSize64)
}

func TestPackageClosed(t *testing.T) {
	dir := t.TempDir()
	pkg := newTestPackage(t, &Config{TempDir: dir, LogLevel: "off"})

	scratch := pkg.Store().Path()
	assert.FileExists(t, scratch)
	assert.Equal(t, dir, filepath.Dir(scratch))

	require.NoError(t, pkg.Close())
	require.NoError(t, pkg.Close())
	assert.True(t, pkg.Closed())
	assert.NoFileExists(t, scratch)

	_, err := pkg.Bytes()
	assert.ErrorIs(t, err, ErrPackageClosed)
	assert.True(t, IsClosed(pkg.SaveAs(filepath.Join(dir, "out.xlsx"))))
	assert.NoFileExists(t, filepath.Join(dir, "out.xlsx"))
}

func TestOpenFailures(t *testing.T) {
	quiet := &Config{InMemory: true, LogLevel: "off"}

	_, err := OpenBytes([]byte("not a zip"), quiet)
	assert.True(t, IsOperationError(err))
	assert.ErrorIs(t, err, ErrArchiveRead)

	_, err = Open(filepath.Join(t.TempDir(), "missing.xlsx"), quiet)
	assert.ErrorIs(t, err, ErrArchiveRead)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = New(&Config{InMemory: true, Compression: "brotli"})
	assert.True(t, IsValidationError(err))
}
