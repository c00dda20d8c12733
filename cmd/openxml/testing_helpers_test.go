package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/benjaminschreck/go-openxml/pkg/openxml"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/parts"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

const fixtureWorkbook = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <!-- generated -->
  <sheets/>
</workbook>`

// writeFixture builds a small spreadsheet package and returns its path.
func writeFixture(t *testing.T, withCore bool) string {
	t.Helper()
	files := []struct{ name, data string }{
		{parts.ContentTypesPath, `<Types xmlns="` + parts.NamespaceContentTypes + `">` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/docProps/core.xml" ContentType="` + parts.KindCoreProperties.ContentType + `"/>` +
			`</Types>`},
		{"xl/workbook.xml", fixtureWorkbook},
		{"xl/media/blob.bin", "\x00\x01binary"},
	}
	if withCore {
		files = append(files, struct{ name, data string }{"docProps/core.xml",
			`<cp:coreProperties xmlns:cp="` + parts.NamespaceCoreProps + `" xmlns:dc="` + parts.NamespaceDublinCore + `">` +
				`<dc:title>Budget</dc:title><dc:creator>ops</dc:creator></cp:coreProperties>`})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// runCLI executes a fresh command tree and captures what it prints.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	origLogger := openxml.GetLogger()
	origConfig := openxml.GetGlobalConfig()
	origStdout := stdout
	t.Cleanup(func() {
		openxml.SetLogger(origLogger)
		openxml.SetGlobalConfig(origConfig)
		stdout = origStdout
	})

	var buf bytes.Buffer
	stdout = &buf

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--in-memory"}, args...))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return buf.String(), err
}
