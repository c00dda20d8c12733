package parts

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
	"zombiezen.com/go/sqlite"
)

// FirstCustomNumberFormat is the lowest id given to a custom format.
const FirstCustomNumberFormat = 164

// builtinNumberFormats are the implicit formats every reader knows.
var builtinNumberFormats = map[int]string{
	0: "General", 1: "0", 2: "0.00", 3: "#,##0", 4: "#,##0.00",
	9: "0%", 10: "0.00%", 11: "0.00E+00", 12: "# ?/?", 13: "# ??/??",
	14: "mm-dd-yy", 15: "d-mmm-yy", 16: "d-mmm", 17: "mmm-yy",
	18: "h:mm AM/PM", 19: "h:mm:ss AM/PM", 20: "h:mm", 21: "h:mm:ss", 22: "m/d/yy h:mm",
	37: "#,##0 ;(#,##0)", 38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)", 40: "#,##0.00;[Red](#,##0.00)",
	45: "mm:ss", 46: "[h]:mm:ss", 47: "mmss.0", 48: "##0.0E+0", 49: "@",
}

// styleSheetOrder is the child sequence of styleSheet.
var styleSheetOrder = []string{
	"numFmts", "fonts", "fills", "borders", "cellStyleXfs", "cellXfs",
	"cellStyles", "dxfs", "tableStyles", "colors", "extLst",
}

// NumberFormat is a custom number format.
type NumberFormat struct {
	ID   int
	Code string
}

// Font is one entry of the fonts table.
type Font struct {
	Name   string
	Size   float64
	Color  Color
	Family int
	// Charset is nil when the font carries no charset element.
	Charset   *int
	Scheme    string
	Bold      bool
	Italic    bool
	Strike    bool
	Underline UnderlineStyle
}

// BorderSide is one edge of a border.
type BorderSide struct {
	Style BorderStyle
	Color Color
}

// Border is one entry of the borders table.
type Border struct {
	Left, Right, Top, Bottom, Diagonal BorderSide
}

// IsZero reports whether b has no styled side.
func (b Border) IsZero() bool { return b == Border{} }

// Fill is a pattern fill. An empty Pattern with a foreground color means
// solid.
type Fill struct {
	Pattern    string
	Foreground Color
	Background Color
}

// CellFormat is one xf of cellXfs.
type CellFormat struct {
	NumFmtID   int
	FontID     int
	FillID     int
	BorderID   int
	XfID       int
	Horizontal HorizontalAlignment
	Vertical   VerticalAlignment
	WrapText   bool
}

func (f CellFormat) hasAlignment() bool {
	return f.Horizontal != HorizontalNone || f.Vertical != VerticalNone || f.WrapText
}

// StyleSetting describes a complete cell style in one value; AddStyle turns
// it into the font, fill, border, number format and xf it needs.
type StyleSetting struct {
	FontName        string
	FontSize        float64
	Bold            bool
	Italic          bool
	Underline       UnderlineStyle
	TextColor       Color
	BackgroundColor Color
	Border          Border
	NumberFormat    string
	Horizontal      HorizontalAlignment
	Vertical        VerticalAlignment
	WrapText        bool
}

// Styles controls xl/styles.xml. Number formats and fonts live in the
// number_format and font tables while the part is open; the other
// sections stay in the tree.
type Styles struct {
	*Part
	fonts int
}

// OpenStyles opens the styles part at name, the default path when empty.
func OpenStyles(reg *Registry, name string) (*Styles, error) {
	if name == "" {
		name = KindStyles.DefaultPath
	}
	p, err := OpenPart(reg, name, parseTemplate("styles.xml"))
	if err != nil {
		return nil, err
	}
	s := &Styles{Part: p}
	if err := s.extract(); err != nil {
		p.abandon()
		return nil, fmt.Errorf("parts: open %s: %w", name, err)
	}
	p.beforeFlush = s.expand
	return s, nil
}

func (s *Styles) extract() error {
	b := s.reg.backend
	if err := b.ExecScript(queries.MustGet("create_style_tables")); err != nil {
		return err
	}

	var formats []NumberFormat
	if numFmts, ok := s.doc.FirstByTag(xml.RootID, "numFmts"); ok {
		for _, id := range s.doc.ElementsByTag(numFmts.ID(), "numFmt") {
			e, _ := s.doc.Element(id)
			v, _ := e.Attribute("numFmtId")
			fid, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: numFmtId %q", ErrInvalidPart, v)
			}
			code, _ := e.Attribute("formatCode")
			formats = append(formats, NumberFormat{ID: fid, Code: code})
			s.doc.RemoveElement(id)
		}
	}

	var fonts []Font
	if fontsEl, ok := s.doc.FirstByTag(xml.RootID, "fonts"); ok {
		for _, id := range s.doc.ElementsByTag(fontsEl.ID(), "font") {
			f, err := s.readFont(id)
			if err != nil {
				return err
			}
			fonts = append(fonts, f)
			s.doc.RemoveElement(id)
		}
	}

	err := b.Transaction(func() error {
		for _, nf := range formats {
			if err := b.Exec(queries.MustGet("insert_number_format"), nf.ID, nf.Code); err != nil {
				return err
			}
		}
		for i, f := range fonts {
			if err := s.insertFont(i, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.fonts = len(fonts)
	return nil
}

func (s *Styles) readFont(id int) (Font, error) {
	var f Font
	font, _ := s.doc.Element(id)
	for _, ref := range font.Children() {
		e, _ := s.doc.Element(ref.ID)
		val, hasVal := e.Attribute("val")
		var err error
		switch ref.Tag {
		case "b":
			f.Bold = !hasVal || isTrue(val)
		case "i":
			f.Italic = !hasVal || isTrue(val)
		case "strike":
			f.Strike = !hasVal || isTrue(val)
		case "u":
			if !hasVal {
				val = "single"
			}
			f.Underline, err = ParseUnderlineStyle(val)
		case "sz":
			f.Size, err = strconv.ParseFloat(val, 64)
		case "color":
			f.Color = colorFromAttrs(e.Attributes())
		case "name":
			f.Name = val
		case "family":
			f.Family, err = strconv.Atoi(val)
		case "charset":
			var cs int
			if cs, err = strconv.Atoi(val); err == nil {
				f.Charset = &cs
			}
		case "scheme":
			f.Scheme = val
		}
		if err != nil {
			return Font{}, fmt.Errorf("%w: font %s: %v", ErrInvalidPart, ref.Tag, err)
		}
	}
	return f, nil
}

func fontArgs(f Font) []any {
	return []any{
		f.Name, f.Size, f.Color.Kind.String(), f.Color.Value, f.Family, charsetArg(f.Charset), f.Scheme,
		boolInt(f.Bold), boolInt(f.Italic), boolInt(f.Strike), f.Underline.String(),
	}
}

// noCharset is the charset column value of a font without one.
const noCharset = -1

func charsetArg(cs *int) int {
	if cs == nil {
		return noCharset
	}
	return *cs
}

func (s *Styles) insertFont(idx int, f Font) error {
	return s.reg.backend.Exec(queries.MustGet("insert_font"), append([]any{idx}, fontArgs(f)...)...)
}

// AddNumberFormat returns the id of a format code, adding a custom format
// when the code is neither built in nor already defined.
func (s *Styles) AddNumberFormat(code string) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	for fid, builtin := range builtinNumberFormats {
		if builtin == code {
			return fid, nil
		}
	}
	b := s.reg.backend
	found := -1
	err := b.Query(queries.MustGet("select_number_format_id"), func(stmt *sqlite.Stmt) error {
		found = stmt.ColumnInt(0)
		return nil
	}, code)
	if err != nil || found >= 0 {
		return found, err
	}

	next := FirstCustomNumberFormat
	err = b.Query(queries.MustGet("max_number_format_id"), func(stmt *sqlite.Stmt) error {
		next = max(next, stmt.ColumnInt(0)+1)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := b.Exec(queries.MustGet("insert_number_format"), next, code); err != nil {
		return 0, fmt.Errorf("parts: add number format: %w", err)
	}
	s.touch()
	return next, nil
}

// NumberFormat returns the code of a custom or built-in format id.
func (s *Styles) NumberFormat(id int) (string, bool, error) {
	if err := s.check(); err != nil {
		return "", false, err
	}
	var (
		code string
		ok   bool
	)
	err := s.reg.backend.Query(queries.MustGet("select_number_format_code"), func(stmt *sqlite.Stmt) error {
		code, ok = stmt.ColumnText(0), true
		return nil
	}, id)
	if err != nil || ok {
		return code, ok, err
	}
	code, ok = builtinNumberFormats[id]
	return code, ok, nil
}

// NumberFormats returns the custom formats by id.
func (s *Styles) NumberFormats() ([]NumberFormat, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var out []NumberFormat
	err := s.reg.backend.Query(queries.MustGet("select_number_formats"), func(stmt *sqlite.Stmt) error {
		out = append(out, NumberFormat{ID: stmt.ColumnInt(0), Code: stmt.ColumnText(1)})
		return nil
	})
	return out, err
}

// AddFont returns the index of an identical font, adding f when there is
// none.
func (s *Styles) AddFont(f Font) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	found := -1
	err := s.reg.backend.Query(queries.MustGet("select_font_idx"), func(stmt *sqlite.Stmt) error {
		found = stmt.ColumnInt(0)
		return nil
	}, fontArgs(f)...)
	if err != nil || found >= 0 {
		return found, err
	}
	if err := s.insertFont(s.fonts, f); err != nil {
		return 0, fmt.Errorf("parts: add font: %w", err)
	}
	s.touch()
	s.fonts++
	return s.fonts - 1, nil
}

// Fonts returns the fonts in index order.
func (s *Styles) Fonts() ([]Font, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	out := make([]Font, 0, s.fonts)
	err := s.reg.backend.Query(queries.MustGet("select_fonts"), func(stmt *sqlite.Stmt) error {
		kind, err := ParseColorKind(stmt.ColumnText(3))
		if err != nil {
			return err
		}
		underline, err := ParseUnderlineStyle(stmt.ColumnText(11))
		if err != nil {
			return err
		}
		f := Font{
			Name:      stmt.ColumnText(1),
			Size:      stmt.ColumnFloat(2),
			Color:     Color{Kind: kind, Value: stmt.ColumnText(4)},
			Family:    stmt.ColumnInt(5),
			Scheme:    stmt.ColumnText(7),
			Bold:      stmt.ColumnInt(8) != 0,
			Italic:    stmt.ColumnInt(9) != 0,
			Strike:    stmt.ColumnInt(10) != 0,
			Underline: underline,
		}
		if cs := stmt.ColumnInt(6); cs != noCharset {
			f.Charset = &cs
		}
		out = append(out, f)
		return nil
	})
	return out, err
}

// section returns the styleSheet child tag, inserting an empty one in
// schema order when missing.
func (s *Styles) section(tag string) (*xml.Element, error) {
	if e, ok := s.doc.FirstByTag(xml.RootID, tag); ok {
		return e, nil
	}
	return s.doc.InsertChild(xml.RootID, s.sectionIndex(tag), tag)
}

func (s *Styles) sectionIndex(tag string) int {
	rank := slices.Index(styleSheetOrder, tag)
	children := s.doc.Root().Children()
	for i, ref := range children {
		if r := slices.Index(styleSheetOrder, ref.Tag); r > rank {
			return i
		}
	}
	return len(children)
}

// appendEntry adds a child to a counted section and returns its index.
func (s *Styles) appendEntry(section, tag string) (*xml.Element, int, error) {
	parent, err := s.section(section)
	if err != nil {
		return nil, 0, err
	}
	idx := len(s.doc.ElementsByTag(parent.ID(), tag))
	e, err := s.doc.AppendChild(parent.ID(), tag)
	if err != nil {
		return nil, 0, err
	}
	parent.SetAttribute("count", strconv.Itoa(idx+1))
	s.touch()
	return e, idx, nil
}

func (s *Styles) appendColor(parentID int, tag string, c Color) error {
	if c.IsZero() {
		return nil
	}
	e, err := s.doc.AppendChild(parentID, tag)
	if err != nil {
		return err
	}
	e.SetAttributes(c.attrs())
	return nil
}

// AddBorder appends a border and returns its index.
func (s *Styles) AddBorder(b Border) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	e, idx, err := s.appendEntry("borders", "border")
	if err != nil {
		return 0, err
	}
	for _, side := range []struct {
		tag string
		BorderSide
	}{
		{"left", b.Left}, {"right", b.Right}, {"top", b.Top}, {"bottom", b.Bottom}, {"diagonal", b.Diagonal},
	} {
		el, err := s.doc.AppendChild(e.ID(), side.tag)
		if err != nil {
			return 0, err
		}
		if side.Style != BorderNone {
			el.SetAttribute("style", side.Style.String())
		}
		if err := s.appendColor(el.ID(), "color", side.Color); err != nil {
			return 0, err
		}
	}
	return idx, nil
}

// AddFill appends a pattern fill and returns its index.
func (s *Styles) AddFill(f Fill) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	e, idx, err := s.appendEntry("fills", "fill")
	if err != nil {
		return 0, err
	}
	pf, err := s.doc.AppendChild(e.ID(), "patternFill")
	if err != nil {
		return 0, err
	}
	pattern := f.Pattern
	if pattern == "" {
		pattern = "solid"
		if f.Foreground.IsZero() {
			pattern = "none"
		}
	}
	pf.SetAttribute("patternType", pattern)
	if err := s.appendColor(pf.ID(), "fgColor", f.Foreground); err != nil {
		return 0, err
	}
	if err := s.appendColor(pf.ID(), "bgColor", f.Background); err != nil {
		return 0, err
	}
	return idx, nil
}

// AddCellFormat appends an xf to cellXfs and returns its index, the value
// a cell's s attribute refers to.
func (s *Styles) AddCellFormat(f CellFormat) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	e, idx, err := s.appendEntry("cellXfs", "xf")
	if err != nil {
		return 0, err
	}
	attrs := map[string]string{
		"numFmtId": strconv.Itoa(f.NumFmtID),
		"fontId":   strconv.Itoa(f.FontID),
		"fillId":   strconv.Itoa(f.FillID),
		"borderId": strconv.Itoa(f.BorderID),
		"xfId":     strconv.Itoa(f.XfID),
	}
	for attr, set := range map[string]bool{
		"applyNumberFormat": f.NumFmtID != 0,
		"applyFont":         f.FontID != 0,
		"applyFill":         f.FillID != 0,
		"applyBorder":       f.BorderID != 0,
		"applyAlignment":    f.hasAlignment(),
	} {
		if set {
			attrs[attr] = "1"
		}
	}
	e.SetAttributes(attrs)

	if f.hasAlignment() {
		a, err := s.doc.AppendChild(e.ID(), "alignment")
		if err != nil {
			return 0, err
		}
		if f.Horizontal != HorizontalNone {
			a.SetAttribute("horizontal", f.Horizontal.String())
		}
		if f.Vertical != VerticalNone {
			a.SetAttribute("vertical", f.Vertical.String())
		}
		if f.WrapText {
			a.SetAttribute("wrapText", "1")
		}
	}
	return idx, nil
}

// CellFormatCount returns the number of xf entries in cellXfs.
func (s *Styles) CellFormatCount() (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	e, ok := s.doc.FirstByTag(xml.RootID, "cellXfs")
	if !ok {
		return 0, nil
	}
	return len(s.doc.ElementsByTag(e.ID(), "xf")), nil
}

// AddStyle adds everything setting needs and returns the cell format
// index.
func (s *Styles) AddStyle(setting StyleSetting) (int, error) {
	font := Font{
		Name:      setting.FontName,
		Size:      setting.FontSize,
		Color:     setting.TextColor,
		Bold:      setting.Bold,
		Italic:    setting.Italic,
		Underline: setting.Underline,
	}
	if font.Name == "" {
		font.Name, font.Family, font.Scheme = "Calibri", 2, "minor"
	}
	if font.Size == 0 {
		font.Size = 11
	}
	if font.Color.IsZero() {
		font.Color = ThemeColorIndex(1)
	}
	format := CellFormat{Horizontal: setting.Horizontal, Vertical: setting.Vertical, WrapText: setting.WrapText}

	var err error
	if format.FontID, err = s.AddFont(font); err != nil {
		return 0, err
	}
	if !setting.BackgroundColor.IsZero() {
		fill := Fill{Foreground: setting.BackgroundColor, Background: IndexedColor(64)}
		if format.FillID, err = s.AddFill(fill); err != nil {
			return 0, err
		}
	}
	if !setting.Border.IsZero() {
		if format.BorderID, err = s.AddBorder(setting.Border); err != nil {
			return 0, err
		}
	}
	if setting.NumberFormat != "" {
		if format.NumFmtID, err = s.AddNumberFormat(setting.NumberFormat); err != nil {
			return 0, err
		}
	}
	return s.AddCellFormat(format)
}

func (s *Styles) expand() (bool, error) {
	formats, err := s.NumberFormats()
	if err != nil {
		return false, err
	}
	if len(formats) > 0 {
		numFmts, err := s.section("numFmts")
		if err != nil {
			return false, err
		}
		for _, nf := range formats {
			e, err := s.doc.AppendChild(numFmts.ID(), "numFmt")
			if err != nil {
				return false, err
			}
			e.SetAttributes(map[string]string{"numFmtId": strconv.Itoa(nf.ID), "formatCode": nf.Code})
		}
		numFmts.SetAttribute("count", strconv.Itoa(len(formats)))
	} else {
		s.dropSection("numFmts")
	}

	fonts, err := s.Fonts()
	if err != nil {
		return false, err
	}
	if len(fonts) > 0 {
		fontsEl, err := s.section("fonts")
		if err != nil {
			return false, err
		}
		for _, f := range fonts {
			if err := s.writeFont(fontsEl.ID(), f); err != nil {
				return false, err
			}
		}
		fontsEl.SetAttribute("count", strconv.Itoa(len(fonts)))
	} else {
		s.dropSection("fonts")
	}
	return true, nil
}

// dropSection removes an emptied styleSheet section.
func (s *Styles) dropSection(tag string) {
	if e, ok := s.doc.FirstByTag(xml.RootID, tag); ok && e.ChildCount() == 0 {
		s.doc.RemoveElement(e.ID())
	}
}

func (s *Styles) writeFont(parentID int, f Font) error {
	font, err := s.doc.AppendChild(parentID, "font")
	if err != nil {
		return err
	}
	leaf := func(tag, val string) error {
		e, err := s.doc.AppendChild(font.ID(), tag)
		if err == nil && val != "" {
			e.SetAttribute("val", val)
		}
		return err
	}
	steps := []struct {
		write bool
		tag   string
		val   string
	}{
		{f.Bold, "b", ""},
		{f.Italic, "i", ""},
		{f.Strike, "strike", ""},
		{f.Underline != UnderlineNone, "u", underlineVal(f.Underline)},
		{f.Size != 0, "sz", formatSize(f.Size)},
	}
	for _, st := range steps {
		if st.write {
			if err := leaf(st.tag, st.val); err != nil {
				return err
			}
		}
	}
	if err := s.appendColor(font.ID(), "color", f.Color); err != nil {
		return err
	}
	for _, st := range []struct {
		write bool
		tag   string
		val   string
	}{
		{f.Name != "", "name", f.Name},
		{f.Family != 0, "family", strconv.Itoa(f.Family)},
		{f.Charset != nil, "charset", strconv.Itoa(charsetArg(f.Charset))},
		{f.Scheme != "", "scheme", f.Scheme},
	} {
		if st.write {
			if err := leaf(st.tag, st.val); err != nil {
				return err
			}
		}
	}
	return nil
}

// underlineVal omits the default single underline.
func underlineVal(u UnderlineStyle) string {
	if u == UnderlineSingle {
		return ""
	}
	return u.String()
}

func formatSize(size float64) string {
	if size == math.Trunc(size) {
		return strconv.FormatInt(int64(size), 10)
	}
	return strconv.FormatFloat(size, 'f', -1, 64)
}
