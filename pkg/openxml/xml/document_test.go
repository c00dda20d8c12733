package xml

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoot(t *testing.T) {
	doc := NewDocument()
	assert.Nil(t, doc.Root())

	root, err := doc.CreateRoot("Types")
	require.NoError(t, err)
	assert.Equal(t, RootID, root.ID())
	assert.Equal(t, RootID, root.ParentID())

	_, err = doc.CreateRoot("Other")
	assert.ErrorIs(t, err, ErrRootExists)
}

func TestAppendChild(t *testing.T) {
	doc := NewDocument()
	_, err := doc.CreateRoot("Relationships")
	require.NoError(t, err)

	a, err := doc.AppendChild(RootID, "Relationship")
	require.NoError(t, err)
	b, err := doc.AppendChild(RootID, "Relationship")
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID())
	assert.Equal(t, 2, b.ID())
	assert.Equal(t, []ChildRef{{1, "Relationship"}, {2, "Relationship"}}, doc.Root().Children())

	_, err = doc.AppendChild(99, "x")
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestIDsNeverReused(t *testing.T) {
	doc := NewDocument()
	_, err := doc.CreateRoot("r")
	require.NoError(t, err)

	a, _ := doc.AppendChild(RootID, "a")
	_, ok := doc.PopElement(a.ID())
	require.True(t, ok)

	b, err := doc.AppendChild(RootID, "b")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, b.ID())
}

func TestInsertChild(t *testing.T) {
	doc := NewDocument()
	_, _ = doc.CreateRoot("styleSheet")
	_, _ = doc.AppendChild(RootID, "fills")
	_, _ = doc.AppendChild(RootID, "cellXfs")

	fonts, err := doc.InsertChild(RootID, 0, "fonts")
	require.NoError(t, err)
	_, err = doc.InsertChild(RootID, doc.ChildIndex(RootID, "cellXfs"), "borders")
	require.NoError(t, err)
	_, err = doc.InsertChild(RootID, 4, "dxfs")
	require.NoError(t, err)

	var tags []string
	for _, ref := range doc.Root().Children() {
		tags = append(tags, ref.Tag)
	}
	assert.Equal(t, []string{"fonts", "fills", "borders", "cellXfs", "dxfs"}, tags)
	assert.Equal(t, 3, fonts.ID())

	_, err = doc.InsertChild(RootID, 9, "x")
	assert.Error(t, err)
	assert.Equal(t, -1, doc.ChildIndex(RootID, "numFmts"))
	require.NoError(t, doc.Validate())
}

func TestQueries(t *testing.T) {
	doc := NewDocument()
	_, _ = doc.CreateRoot("Types")
	for _, part := range []string{"/xl/workbook.xml", "/xl/styles.xml"} {
		o, err := doc.AppendChild(RootID, "Override")
		require.NoError(t, err)
		o.SetAttributes(map[string]string{"PartName": part, "ContentType": "x"})
	}
	d, _ := doc.AppendChild(RootID, "Default")
	d.SetAttributes(map[string]string{"Extension": "xml"})

	assert.Equal(t, []int{1, 2}, doc.ElementsByTag(RootID, "Override"))
	assert.Nil(t, doc.ElementsByTag(RootID, "Missing"))
	assert.Nil(t, doc.ElementsByTag(42, "Override"))

	styles, ok := doc.ElementByAttribute(RootID, "PartName", "/xl/styles.xml")
	require.True(t, ok)
	assert.Equal(t, 2, styles.ID())
	_, ok = doc.ElementByAttribute(RootID, "PartName", "/nope")
	assert.False(t, ok)

	first, ok := doc.FirstChildID(RootID)
	require.True(t, ok)
	assert.Equal(t, 1, first)
	_, ok = doc.FirstChildID(3)
	assert.False(t, ok)

	_, ok = doc.ElementByPath("Types", "Default")
	assert.True(t, ok)
	_, ok = doc.ElementByPath("Wrong", "Default")
	assert.False(t, ok)
}

func TestSetAttributesReplaces(t *testing.T) {
	doc := NewDocument()
	root, _ := doc.CreateRoot("c")
	root.SetAttributes(map[string]string{"r": "A1", "i": "1"})
	root.SetAttributes(map[string]string{"r": "B2"})
	assert.Equal(t, map[string]string{"r": "B2"}, root.Attributes())

	attrs := root.Attributes()
	attrs["r"] = "mutated"
	v, _ := root.Attribute("r")
	assert.Equal(t, "B2", v)

	root.SetAttribute("l", "1")
	root.RemoveAttribute("r")
	assert.Equal(t, map[string]string{"l": "1"}, root.Attributes())
}

func TestPopElement(t *testing.T) {
	doc, err := Parse([]byte(`<sst><si><t>Hello</t></si><si><r><t>Wor</t></r><r><t>ld</t></r></si><extLst/></sst>`))
	require.NoError(t, err)

	popped := doc.PopElementsByTag(RootID, "si")
	require.Len(t, popped, 2)
	assert.Equal(t, 2, doc.Len())
	assert.Nil(t, doc.ElementsByTag(RootID, "si"))
	require.NoError(t, doc.Validate())

	// Descendants of popped elements are reachable by id while detached.
	var texts []string
	for _, si := range popped {
		for _, ref := range si.Children() {
			child, ok := doc.PopElement(ref.ID)
			require.True(t, ok)
			if child.Tag() == "t" {
				texts = append(texts, child.Value())
				continue
			}
			for _, inner := range child.Children() {
				tEl, ok := doc.PopElement(inner.ID)
				require.True(t, ok)
				texts = append(texts, tEl.Value())
			}
		}
	}
	assert.Equal(t, []string{"Hello", "Wor", "ld"}, texts)
	assert.Zero(t, doc.Detached())

	_, ok := doc.PopElement(RootID)
	assert.False(t, ok)
	_, ok = doc.PopElement(1000)
	assert.False(t, ok)
}

func TestRemoveElement(t *testing.T) {
	doc, err := Parse([]byte(`<a><b><c/><d/></b><e/></a>`))
	require.NoError(t, err)
	b, _ := doc.FirstByTag(RootID, "b")

	assert.True(t, doc.RemoveElement(b.ID()))
	assert.Equal(t, 2, doc.Len())
	assert.Zero(t, doc.Detached())

	require.NoError(t, doc.RemoveChildren(RootID))
	assert.Equal(t, 1, doc.Len())
	assert.ErrorIs(t, doc.RemoveChildren(77), ErrElementNotFound)
}

func TestTreeInvariantsUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	doc := NewDocument()
	_, err := doc.CreateRoot("root")
	require.NoError(t, err)

	seen := map[int]bool{RootID: true}
	for step := 0; step < 2000; step++ {
		ids := doc.IDs()
		target := ids[rng.IntN(len(ids))]
		if rng.IntN(3) == 0 && target != RootID {
			_, ok := doc.PopElement(target)
			require.True(t, ok)
			continue
		}
		child, err := doc.AppendChild(target, "n")
		require.NoError(t, err)
		require.False(t, seen[child.ID()], "id %d reused", child.ID())
		seen[child.ID()] = true
	}
	require.NoError(t, doc.Validate())
}

func TestValidateDetectsCorruption(t *testing.T) {
	doc, err := Parse([]byte(`<a><b/><c>text</c></a>`))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	c, _ := doc.FirstByTag(RootID, "c")
	_, err = doc.AppendChild(c.ID(), "d")
	require.NoError(t, err)
	assert.Error(t, doc.Validate())

	doc2, _ := Parse([]byte(`<a><b/></a>`))
	b, _ := doc2.FirstByTag(RootID, "b")
	b.parentID = 42
	assert.Error(t, doc2.Validate())
}

func TestElementNames(t *testing.T) {
	doc := NewDocument()
	root, _ := doc.CreateRoot("cp:coreProperties")
	assert.Equal(t, "cp", root.Prefix())
	assert.Equal(t, "coreProperties", root.LocalName())

	plain, _ := doc.AppendChild(RootID, "title")
	assert.Equal(t, "", plain.Prefix())
	assert.Equal(t, "title", plain.LocalName())
}
