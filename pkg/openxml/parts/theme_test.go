package parts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeFromTemplate(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})

	th, err := OpenTheme(reg, "")
	require.NoError(t, err)

	name, err := th.ThemeName()
	require.NoError(t, err)
	assert.Equal(t, "Office Theme", name)

	colors, err := th.Colors()
	require.NoError(t, err)
	require.NotEmpty(t, colors)
	assert.Equal(t, ThemeColor{Slot: "dk1", RGB: "000000", System: "windowText"}, colors[0])

	major, minor, err := th.Fonts()
	require.NoError(t, err)
	assert.Equal(t, "Calibri Light", major)
	assert.Equal(t, "Calibri", minor)

	require.NoError(t, th.SetColor("accent1", "#1f4e79"))
	require.NoError(t, th.SetThemeName("Custom"))
	assert.ErrorIs(t, th.SetColor("accent9", "000000"), ErrInvalidPart)
	require.NoError(t, th.Close())

	out := getPart(t, s, KindTheme.DefaultPath)
	assert.Contains(t, out, `<a:accent1><a:srgbClr val="1F4E79"/></a:accent1>`)
	assert.Contains(t, out, `name="Custom"`)
}

func TestThemeWithoutColorScheme(t *testing.T) {
	reg, s := newTestRegistry(t, Options{})
	putPart(t, s, KindTheme.DefaultPath, `<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><a:themeElements/></a:theme>`)

	th, err := OpenTheme(reg, "")
	require.NoError(t, err)
	defer th.Close()

	_, err = th.Colors()
	assert.ErrorIs(t, err, ErrInvalidPart)
	major, minor, err := th.Fonts()
	require.NoError(t, err)
	assert.Empty(t, major)
	assert.Empty(t, minor)
}
