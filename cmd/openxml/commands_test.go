package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/benjaminschreck/go-openxml/pkg/openxml"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/parts"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLsCommand(t *testing.T) {
	path := writeFixture(t, true)

	out, err := runCLI(t, "ls", path)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "xl/workbook.xml")
	assert.Contains(t, out, "application/xml")
	assert.Contains(t, out, parts.KindCoreProperties.ContentType)

	out, err = runCLI(t, "ls", path, "--json")
	require.NoError(t, err)
	var entries []partEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, parts.ContentTypesPath, entries[0].Name)
	assert.Equal(t, "xl/media/blob.bin", entries[2].Name)
	assert.Empty(t, entries[2].ContentType, "no default for .bin")
	assert.Equal(t, int64(len(fixtureWorkbook)), entries[1].Size)
}

func TestCatCommand(t *testing.T) {
	path := writeFixture(t, false)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "canonical",
			args: []string{"cat", path, "xl/workbook.xml"},
			want: xml.Prolog + `<workbook xmlns="` + parts.NamespaceSpreadsheet + `"><sheets/></workbook>` + "\n",
		},
		{
			name: "raw",
			args: []string{"cat", path, "xl/workbook.xml", "--raw"},
			want: fixtureWorkbook,
		},
		{
			name:    "missing part",
			args:    []string{"cat", path, "xl/styles.xml"},
			wantErr: true,
		},
		{
			name:    "not xml",
			args:    []string{"cat", path, "xl/media/blob.bin"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRepackCommand(t *testing.T) {
	in := writeFixture(t, true)
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.xlsx")
	out, err := runCLI(t, "repack", in, plain)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+plain)

	normalized := filepath.Join(dir, "normalized.xlsx")
	_, err = runCLI(t, "-q", "repack", in, normalized, "--normalize")
	require.NoError(t, err)

	pkg, err := openxml.Open(normalized, &openxml.Config{InMemory: true})
	require.NoError(t, err)
	defer pkg.Close()
	data, ok, err := pkg.Store().Get("xl/workbook.xml")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(data), "generated")
	blob, _, err := pkg.Store().Get("xl/media/blob.bin")
	require.NoError(t, err)
	assert.Equal(t, "\x00\x01binary", string(blob), "binary parts are copied untouched")

	again := filepath.Join(dir, "again.xlsx")
	_, err = runCLI(t, "repack", in, again)
	require.NoError(t, err)
	first, err := os.ReadFile(plain)
	require.NoError(t, err)
	second, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repacking is deterministic")
}

func TestCoreCommand(t *testing.T) {
	path := writeFixture(t, true)

	out, err := runCLI(t, "core", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Title:            Budget")
	assert.Contains(t, out, "Creator:          ops")

	out, err = runCLI(t, "core", path, "--json")
	require.NoError(t, err)
	var props parts.Properties
	require.NoError(t, json.Unmarshal([]byte(out), &props))
	assert.Equal(t, "Budget", props.Title)

	out, err = runCLI(t, "core", path, "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Budget\n")

	_, err = runCLI(t, "core", path, "--json", "--yaml")
	assert.Error(t, err)

	_, err = runCLI(t, "core", writeFixture(t, false))
	assert.ErrorContains(t, err, "has no docProps/core.xml")
}

func TestRootFlags(t *testing.T) {
	path := writeFixture(t, false)

	_, err := runCLI(t, "--log-level", "trace", "ls", path)
	assert.True(t, openxml.IsValidationError(err))

	config := filepath.Join(t.TempDir(), "openxml.yaml")
	require.NoError(t, os.WriteFile(config, []byte("compression: lz4\nlog_level: error\n"), 0o644))
	_, err = runCLI(t, "--config", config, "ls", path)
	require.NoError(t, err)
	assert.Equal(t, "lz4", openxml.GetGlobalConfig().Compression)

	_, err = runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "ls", path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "openxml dev")
}
