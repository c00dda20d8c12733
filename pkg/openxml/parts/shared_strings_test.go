package parts

import (
	"testing"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sstPath = "xl/sharedStrings.xml"

func TestSharedStringsRoundTrip(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	putPart(t, s, sstPath, `<sst><si><t>Hello</t></si><si><t>World</t></si></sst>`)

	sst, err := OpenSharedStrings(reg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sst.Len())
	require.NoError(t, sst.Close())

	assert.Equal(t, xml.Prolog+`<sst count="2" uniqueCount="2"><si><t>Hello</t></si><si><t>World</t></si></sst>`,
		getPart(t, s, sstPath))
}

func TestSharedStringsUniqueCount(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	putPart(t, s, sstPath, `<sst xmlns="`+NamespaceSpreadsheet+`" count="2" uniqueCount="2">`+
		`<si><t>a</t></si><si><t>a</t></si></sst>`)

	sst, err := OpenSharedStrings(reg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, sst.Close())

	assert.Equal(t, xml.Prolog+`<sst xmlns="`+NamespaceSpreadsheet+`" count="2" uniqueCount="1">`+
		`<si><t>a</t></si><si><t>a</t></si></sst>`, getPart(t, s, sstPath))
}

func TestSharedStringsIndex(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	putPart(t, s, sstPath, `<sst xmlns="`+NamespaceSpreadsheet+`" count="9" uniqueCount="4">`+
		`<si><t>alpha</t></si>`+
		`<si><r><rPr><b/></rPr><t>be</t></r><r><t>ta</t></r><rPh sb="0" eb="1"><t>x</t></rPh></si>`+
		`<si><t>alpha</t></si>`+
		`<si><t xml:space="preserve"> padded </t></si>`+
		`<extLst><ext uri="{x}"/></extLst></sst>`)

	sst, err := OpenSharedStrings(reg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, sst.Len())

	values, err := sst.Values()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "alpha", " padded "}, values)

	idx, err := sst.Index("alpha")
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "duplicates resolve to the first index")

	idx, err = sst.Index("gamma")
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
	idx, err = sst.Index("gamma")
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
	assert.Equal(t, 5, sst.Len())

	_, ok, err := sst.Lookup("delta")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := sst.Value(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "beta", v)
	_, ok, err = sst.Value(99)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sst.Close())
	_, err = sst.Index("late")
	assert.ErrorIs(t, err, ErrPartClosed)

	out := getPart(t, s, sstPath)
	assert.Contains(t, out, `count="5" uniqueCount="4"`)
	assert.Contains(t, out, `<si><t xml:space="preserve"> padded </t></si><si><t>gamma</t></si><extLst>`)

	// Reopening sees the same table.
	sst, err = OpenSharedStrings(reg, nil, nil)
	require.NoError(t, err)
	defer sst.Close()
	values, err = sst.Values()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "alpha", " padded ", "gamma"}, values)
}

func TestSharedStringsLinkedThroughRelations(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	types, err := OpenContentTypes(reg)
	require.NoError(t, err)
	rels, err := OpenRelations(reg, KindWorkbook.DefaultPath)
	require.NoError(t, err)

	sst, err := OpenSharedStrings(reg, rels, types)
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, sst.State())
	_, err = sst.Index("only")
	require.NoError(t, err)
	require.NoError(t, sst.Close())
	require.NoError(t, reg.CloseAll())

	assert.Contains(t, getPart(t, s, sstPath), `<sst xmlns="`+NamespaceSpreadsheet+`" count="1" uniqueCount="1"><si><t>only</t></si></sst>`)
	assert.Contains(t, getPart(t, s, "xl/_rels/workbook.xml.rels"), `Target="sharedStrings.xml"`)
	assert.Contains(t, getPart(t, s, ContentTypesPath), `PartName="/xl/sharedStrings.xml"`)
}

func TestSharedStringsEmptyWithoutRelationsIsWritten(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	sst, err := OpenSharedStrings(reg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, sst.Close())
	assert.Equal(t, xml.Prolog+`<sst xmlns="`+NamespaceSpreadsheet+`" count="0" uniqueCount="0"/>`, getPart(t, s, sstPath))
}

func TestNeedsPreserve(t *testing.T) {
	for value, want := range map[string]bool{
		"":        false,
		"plain":   false,
		"in side": false,
		" lead":   true,
		"trail\t": true,
		"line\n":  true,
	} {
		assert.Equal(t, want, needsPreserve(value), "%q", value)
	}
}
