package parts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorePropertiesStampsModified(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})

	cp, err := OpenCoreProperties(reg)
	require.NoError(t, err)
	require.NoError(t, cp.SetTitle("Q1 & Q2"))
	require.NoError(t, cp.SetCreator("finance"))
	created := time.Date(2023, time.December, 31, 23, 59, 59, 0, time.FixedZone("CET", 3600))
	require.NoError(t, cp.SetCreated(created))
	require.NoError(t, cp.Close())

	out := getPart(t, s, "docProps/core.xml")
	assert.Contains(t, out, `<dc:title>Q1 &amp; Q2</dc:title>`)
	assert.Contains(t, out, `<dcterms:modified xsi:type="dcterms:W3CDTF">2024-03-05T14:30:00Z</dcterms:modified>`)
	assert.Contains(t, out, `<dcterms:created xsi:type="dcterms:W3CDTF">2023-12-31T22:59:59Z</dcterms:created>`)

	cp, err = OpenCoreProperties(reg)
	require.NoError(t, err)
	defer cp.Close()
	props, err := cp.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Q1 & Q2", props.Title)
	assert.Equal(t, "finance", props.Creator)
	require.NotNil(t, props.Modified)
	assert.True(t, props.Modified.Equal(fixedNow))
	require.NotNil(t, props.Created)
	assert.True(t, props.Created.Equal(created))
}

func TestCorePropertiesEmptyRemoves(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	putPart(t, s, "docProps/core.xml", `<cp:coreProperties xmlns:cp="`+NamespaceCoreProps+`" xmlns:dc="`+NamespaceDublinCore+`">`+
		`<dc:title>Old</dc:title><cp:keywords>a, b</cp:keywords></cp:coreProperties>`)

	cp, err := OpenCoreProperties(reg)
	require.NoError(t, err)
	keywords, err := cp.Keywords()
	require.NoError(t, err)
	assert.Equal(t, "a, b", keywords)

	require.NoError(t, cp.SetTitle(""))
	title, err := cp.Title()
	require.NoError(t, err)
	assert.Empty(t, title)
	require.NoError(t, cp.Close())

	out := getPart(t, s, "docProps/core.xml")
	assert.NotContains(t, out, "dc:title")
	// Stamping adds the namespaces the stored part did not declare.
	assert.Contains(t, out, `xmlns:dcterms="`+NamespaceDCTerms+`"`)
	assert.Contains(t, out, `xmlns:xsi="`+NamespaceXSI+`"`)

	_, err = cp.Title()
	assert.ErrorIs(t, err, ErrPartClosed)
}

func TestCorePropertiesBadDate(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	putPart(t, s, "docProps/core.xml", `<cp:coreProperties xmlns:cp="`+NamespaceCoreProps+`" xmlns:dcterms="`+NamespaceDCTerms+`">`+
		`<dcterms:created>yesterday</dcterms:created></cp:coreProperties>`)

	cp, err := OpenCoreProperties(reg)
	require.NoError(t, err)
	defer cp.Close()
	_, _, err = cp.Created()
	assert.ErrorIs(t, err, ErrInvalidPart)
}

func TestTheme(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	theme, err := OpenTheme(reg, "")
	require.NoError(t, err)

	name, err := theme.ThemeName()
	require.NoError(t, err)
	assert.Equal(t, "Office Theme", name)

	colors, err := theme.Colors()
	require.NoError(t, err)
	require.Len(t, colors, 12)
	assert.Equal(t, ThemeColor{Slot: "dk1", RGB: "000000", System: "windowText"}, colors[0])
	assert.Equal(t, ThemeColor{Slot: "accent1", RGB: "4472C4"}, colors[4])

	major, minor, err := theme.Fonts()
	require.NoError(t, err)
	assert.Equal(t, "Calibri Light", major)
	assert.Equal(t, "Calibri", minor)

	require.NoError(t, theme.SetColor("accent1", "#1f4e79"))
	assert.ErrorIs(t, theme.SetColor("accent9", "000000"), ErrInvalidPart)
	require.NoError(t, theme.SetThemeName("Corporate"))
	require.NoError(t, theme.Close())

	out := getPart(t, s, "xl/theme/theme1.xml")
	assert.Contains(t, out, `<a:accent1><a:srgbClr val="1F4E79"/></a:accent1>`)
	assert.Contains(t, out, `name="Corporate"`)
}
