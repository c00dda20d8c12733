package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(`<calcChain xmlns="` + mainNS + `"><c r="A1" i="1"/><c r="B2" l="1"/><x>v</x></calcChain>`))
	require.NoError(t, err)
	// Leave a gap in the ids.
	doc.RemoveElement(2)

	data, err := EncodeSnapshot(doc)
	require.NoError(t, err)

	again, err := EncodeSnapshot(doc)
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding must be deterministic")

	restored, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assertSameTree(t, doc, restored)
	assert.Equal(t, doc.NextID(), restored.NextID())

	want, err := Serialize(doc)
	require.NoError(t, err)
	got, err := Serialize(restored)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	next, err := restored.AppendChild(RootID, "c")
	require.NoError(t, err)
	assert.Equal(t, 4, next.ID())
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte{0xff, 0x00})
	assert.Error(t, err)

	bad, err := snapshotEnc.Marshal(snapshot{
		Version: snapshotVersion,
		NextID:  2,
		Elements: []snapshotElement{
			{ID: 0, Tag: "a", Children: []int{1}},
			{ID: 1, Parent: 5, Tag: "b"},
		},
	})
	require.NoError(t, err)
	_, err = DecodeSnapshot(bad)
	assert.Error(t, err)

	wrongVersion, err := snapshotEnc.Marshal(snapshot{Version: 99})
	require.NoError(t, err)
	_, err = DecodeSnapshot(wrongVersion)
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	doc, err := Parse([]byte(`<a x="1"><b>v</b></a>`))
	require.NoError(t, err)
	clone := doc.Clone()

	clone.Root().SetAttribute("x", "2")
	_, err = clone.AppendChild(RootID, "c")
	require.NoError(t, err)

	v, _ := doc.Root().Attribute("x")
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, doc.Len())
	assert.Equal(t, 3, clone.Len())
}
