package parts

import (
	"fmt"
	"strings"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
)

// ThemeColor is one slot of a theme's color scheme.
type ThemeColor struct {
	// Slot is dk1, lt1, accent1 and so on.
	Slot string
	// RGB is the hex value, taken from lastClr for system colors.
	RGB    string
	System string
}

// Theme controls a theme part.
type Theme struct {
	*Part
	prefix string
}

// OpenTheme opens the theme part at name, the default path when empty.
func OpenTheme(reg *Registry, name string) (*Theme, error) {
	if name == "" {
		name = KindTheme.DefaultPath
	}
	p, err := OpenPart(reg, name, parseTemplate("theme.xml"))
	if err != nil {
		return nil, err
	}
	t := &Theme{Part: p}
	if root := p.doc.Root(); root != nil && root.Prefix() != "" {
		t.prefix = root.Prefix() + ":"
	}
	return t, nil
}

func (t *Theme) tag(local string) string { return t.prefix + local }

// ThemeName returns the theme's name attribute.
func (t *Theme) ThemeName() (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	root, err := t.root()
	if err != nil {
		return "", err
	}
	v, _ := root.Attribute("name")
	return v, nil
}

// SetThemeName sets the theme's name attribute.
func (t *Theme) SetThemeName(name string) error {
	if err := t.check(); err != nil {
		return err
	}
	root, err := t.root()
	if err != nil {
		return err
	}
	root.SetAttribute("name", name)
	t.touch()
	return nil
}

func (t *Theme) colorScheme() (*xml.Element, error) {
	e, ok := t.doc.ElementByPath(t.tag("theme"), t.tag("themeElements"), t.tag("clrScheme"))
	if !ok {
		return nil, fmt.Errorf("%w: %s has no color scheme", ErrInvalidPart, t.name)
	}
	return e, nil
}

// Colors returns the color scheme in document order.
func (t *Theme) Colors() ([]ThemeColor, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	scheme, err := t.colorScheme()
	if err != nil {
		return nil, err
	}
	var out []ThemeColor
	for _, ref := range scheme.Children() {
		slot, _ := t.doc.Element(ref.ID)
		c := ThemeColor{Slot: strings.TrimPrefix(slot.Tag(), t.prefix)}
		if v, ok := t.doc.FirstByTag(ref.ID, t.tag("srgbClr")); ok {
			c.RGB, _ = v.Attribute("val")
		} else if v, ok := t.doc.FirstByTag(ref.ID, t.tag("sysClr")); ok {
			c.System, _ = v.Attribute("val")
			c.RGB, _ = v.Attribute("lastClr")
		}
		out = append(out, c)
	}
	return out, nil
}

// SetColor replaces a slot's color with a plain RGB value.
func (t *Theme) SetColor(slot, rgb string) error {
	if err := t.check(); err != nil {
		return err
	}
	scheme, err := t.colorScheme()
	if err != nil {
		return err
	}
	e, ok := t.doc.FirstByTag(scheme.ID(), t.tag(slot))
	if !ok {
		return fmt.Errorf("%w: no theme color slot %q", ErrInvalidPart, slot)
	}
	if err := t.doc.RemoveChildren(e.ID()); err != nil {
		return err
	}
	c, err := t.doc.AppendChild(e.ID(), t.tag("srgbClr"))
	if err != nil {
		return err
	}
	c.SetAttribute("val", strings.ToUpper(strings.TrimPrefix(rgb, "#")))
	t.touch()
	return nil
}

// Fonts returns the latin typefaces of the major and minor fonts.
func (t *Theme) Fonts() (major, minor string, err error) {
	if err := t.check(); err != nil {
		return "", "", err
	}
	for _, f := range []struct {
		tag string
		dst *string
	}{
		{"majorFont", &major},
		{"minorFont", &minor},
	} {
		e, ok := t.doc.ElementByPath(t.tag("theme"), t.tag("themeElements"), t.tag("fontScheme"), t.tag(f.tag), t.tag("latin"))
		if ok {
			*f.dst, _ = e.Attribute("typeface")
		}
	}
	return major, minor, nil
}
