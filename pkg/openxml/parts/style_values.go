package parts

import "fmt"

// HorizontalAlignment is the horizontal attribute of a cell alignment.
type HorizontalAlignment uint8

const (
	HorizontalNone HorizontalAlignment = iota
	HorizontalLeft
	HorizontalCenter
	HorizontalRight
	HorizontalJustify
)

var horizontalNames = []string{"", "left", "center", "right", "justify"}

func (h HorizontalAlignment) String() string { return valueName(horizontalNames, h) }

// ParseHorizontalAlignment maps an attribute value to its constant. The
// empty string is HorizontalNone.
func ParseHorizontalAlignment(s string) (HorizontalAlignment, error) {
	return parseValue[HorizontalAlignment]("horizontal alignment", horizontalNames, s)
}

// VerticalAlignment is the vertical attribute of a cell alignment.
type VerticalAlignment uint8

const (
	VerticalNone VerticalAlignment = iota
	VerticalTop
	VerticalMiddle
	VerticalBottom
)

var verticalNames = []string{"", "top", "center", "bottom"}

func (v VerticalAlignment) String() string { return valueName(verticalNames, v) }

// ParseVerticalAlignment maps an attribute value to its constant. The
// empty string is VerticalNone.
func ParseVerticalAlignment(s string) (VerticalAlignment, error) {
	return parseValue[VerticalAlignment]("vertical alignment", verticalNames, s)
}

// BorderStyle is the line style of one border edge.
type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderThin
	BorderMedium
	BorderDashed
	BorderDotted
	BorderThick
	BorderDouble
	BorderHair
	BorderMediumDashed
	BorderDashDot
	BorderMediumDashDot
	BorderDashDotDot
	BorderMediumDashDotDot
	BorderSlantDashDot
)

var borderNames = []string{
	"", "thin", "medium", "dashed", "dotted", "thick", "double", "hair",
	"mediumDashed", "dashDot", "mediumDashDot", "dashDotDot", "mediumDashDotDot", "slantDashDot",
}

func (b BorderStyle) String() string { return valueName(borderNames, b) }

// ParseBorderStyle maps an attribute value to its constant. "none" is
// accepted as BorderNone.
func ParseBorderStyle(s string) (BorderStyle, error) {
	if s == "none" {
		return BorderNone, nil
	}
	return parseValue[BorderStyle]("border style", borderNames, s)
}

// UnderlineStyle is the val of a font's u element.
type UnderlineStyle uint8

const (
	UnderlineNone UnderlineStyle = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineSingleAccounting
	UnderlineDoubleAccounting
)

var underlineNames = []string{"", "single", "double", "singleAccounting", "doubleAccounting"}

func (u UnderlineStyle) String() string { return valueName(underlineNames, u) }

// ParseUnderlineStyle maps a u val to its constant; "none" is
// UnderlineNone.
func ParseUnderlineStyle(s string) (UnderlineStyle, error) {
	if s == "none" {
		return UnderlineNone, nil
	}
	return parseValue[UnderlineStyle]("underline style", underlineNames, s)
}

// ColorKind tells which attribute of a color element carries its value.
type ColorKind uint8

const (
	ColorNone ColorKind = iota
	ColorIndexed
	ColorTheme
	ColorRGB
	ColorAuto
)

var colorKindNames = []string{"", "indexed", "theme", "rgb", "auto"}

func (k ColorKind) String() string { return valueName(colorKindNames, k) }

// ParseColorKind parses a name as produced by ColorKind.String.
func ParseColorKind(s string) (ColorKind, error) {
	return parseValue[ColorKind]("color kind", colorKindNames, s)
}

// Color is a SpreadsheetML color reference.
type Color struct {
	Kind  ColorKind
	Value string
}

// RGB is an ARGB hex color such as FFFF0000.
func RGB(hex string) Color { return Color{Kind: ColorRGB, Value: hex} }

// ThemeColorIndex refers to slot i of the theme color scheme.
func ThemeColorIndex(i int) Color { return Color{Kind: ColorTheme, Value: fmt.Sprint(i)} }

// IndexedColor refers to entry i of the legacy palette.
func IndexedColor(i int) Color { return Color{Kind: ColorIndexed, Value: fmt.Sprint(i)} }

// IsZero reports whether c is unset.
func (c Color) IsZero() bool { return c.Kind == ColorNone }

func (c Color) attrs() map[string]string {
	switch c.Kind {
	case ColorNone:
		return nil
	case ColorAuto:
		return map[string]string{"auto": "1"}
	default:
		return map[string]string{c.Kind.String(): c.Value}
	}
}

// colorFromAttrs reads a color element. rgb wins over theme over indexed.
func colorFromAttrs(attrs map[string]string) Color {
	for _, k := range []ColorKind{ColorRGB, ColorTheme, ColorIndexed} {
		if v, ok := attrs[k.String()]; ok {
			return Color{Kind: k, Value: v}
		}
	}
	if isTrue(attrs["auto"]) {
		return Color{Kind: ColorAuto}
	}
	return Color{}
}

func valueName[T ~uint8](names []string, v T) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%d", uint8(v))
}

func parseValue[T ~uint8](kind string, names []string, s string) (T, error) {
	for i, name := range names {
		if name == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown %s %q", ErrInvalidPart, kind, s)
}
