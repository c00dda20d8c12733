package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    Set
		wantErr bool
	}{
		{
			name: "two queries with header",
			src: `-- archive queries
-- query : create_table # schema
CREATE TABLE a (x INTEGER);

-- query : select_all # everything
SELECT x
FROM a;
`,
			want: Set{
				"create_table": "CREATE TABLE a (x INTEGER);",
				"select_all":   "SELECT x\nFROM a;",
			},
		},
		{
			name: "marker without description",
			src:  "-- query : one\nSELECT 1;",
			want: Set{"one": "SELECT 1;"},
		},
		{
			name: "crlf line endings",
			src:  "-- query : one # x\r\nSELECT 1;\r\n",
			want: Set{"one": "SELECT 1;"},
		},
		{
			name: "empty source",
			src:  "",
			want: Set{},
		},
		{
			name:    "duplicate name",
			src:     "-- query : a\nSELECT 1;\n-- query : a\nSELECT 2;",
			wantErr: true,
		},
		{
			name:    "missing name",
			src:     "-- query :  # nothing\nSELECT 1;",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetGet(t *testing.T) {
	set := MustParse("-- query : b\nSELECT 2;\n-- query : a\nSELECT 1;")

	q, err := set.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", q)

	_, err = set.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, []string{"a", "b"}, set.Names())
	assert.Panics(t, func() { set.MustGet("missing") })
}
