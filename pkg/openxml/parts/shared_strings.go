package parts

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
	"zombiezen.com/go/sqlite"
)

// SharedStrings controls the workbook's shared string table. While open,
// the strings live in the shared_string table; the si elements are
// rebuilt from it on Close.
type SharedStrings struct {
	*Part
	rels  *Relations
	types *ContentTypes
	n     int
}

// OpenSharedStrings opens the shared string part. With rels, the part is
// found through (or linked into) the workbook's relationships, and an
// empty table at close removes the part and its links. Without rels the
// default path is used. types may be nil.
func OpenSharedStrings(reg *Registry, rels *Relations, types *ContentTypes) (*SharedStrings, error) {
	name := KindSharedStrings.DefaultPath
	if rels != nil {
		var err error
		if name, _, err = rels.EnsurePart(KindSharedStrings, types); err != nil {
			return nil, err
		}
	}
	p, err := OpenPart(reg, name, rootTemplate("sst", NamespaceSpreadsheet))
	if err != nil {
		return nil, err
	}
	s := &SharedStrings{Part: p, rels: rels, types: types}
	if err := s.extract(); err != nil {
		p.abandon()
		return nil, fmt.Errorf("parts: open %s: %w", name, err)
	}
	p.beforeFlush = s.expand
	return s, nil
}

// stringItemText flattens a string item: plain text or the concatenated
// runs of rich text. Phonetic runs are not part of the value.
func stringItemText(doc *xml.Document, id int) string {
	si, _ := doc.Element(id)
	var b strings.Builder
	for _, ref := range si.Children() {
		switch ref.Tag {
		case "t":
			child, _ := doc.Element(ref.ID)
			b.WriteString(child.Value())
		case "r":
			if t, ok := doc.FirstByTag(ref.ID, "t"); ok {
				b.WriteString(t.Value())
			}
		}
	}
	return b.String()
}

func (s *SharedStrings) extract() error {
	b := s.reg.backend
	if err := b.ExecScript(queries.MustGet("create_shared_string_table")); err != nil {
		return err
	}
	var values []string
	for _, id := range s.doc.ElementsByTag(xml.RootID, "si") {
		values = append(values, stringItemText(s.doc, id))
	}
	s.doc.PopElementsByTag(xml.RootID, "si")
	s.doc.Prune()

	insert := queries.MustGet("insert_shared_string")
	err := b.Transaction(func() error {
		for i, v := range values {
			if err := b.Exec(insert, i, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.n = len(values)
	return nil
}

// Len returns the number of strings.
func (s *SharedStrings) Len() int { return s.n }

// Index returns the index of value, adding it when it is new.
func (s *SharedStrings) Index(value string) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	idx, ok, err := s.lookup(value)
	if err != nil || ok {
		return idx, err
	}
	if err := s.reg.backend.Exec(queries.MustGet("insert_shared_string"), s.n, value); err != nil {
		return 0, fmt.Errorf("parts: add shared string: %w", err)
	}
	s.touch()
	s.n++
	return s.n - 1, nil
}

// Lookup returns the index of value without adding it.
func (s *SharedStrings) Lookup(value string) (int, bool, error) {
	if err := s.check(); err != nil {
		return 0, false, err
	}
	return s.lookup(value)
}

func (s *SharedStrings) lookup(value string) (idx int, ok bool, err error) {
	err = s.reg.backend.Query(queries.MustGet("select_shared_string_idx"), func(stmt *sqlite.Stmt) error {
		idx, ok = stmt.ColumnInt(0), true
		return nil
	}, value)
	return idx, ok, err
}

// Value returns the string at idx.
func (s *SharedStrings) Value(idx int) (string, bool, error) {
	if err := s.check(); err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	err := s.reg.backend.Query(queries.MustGet("select_shared_string_value"), func(stmt *sqlite.Stmt) error {
		value, ok = stmt.ColumnText(0), true
		return nil
	}, idx)
	return value, ok, err
}

// Values returns every string in index order.
func (s *SharedStrings) Values() ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	out := make([]string, 0, s.n)
	err := s.reg.backend.Query(queries.MustGet("select_shared_strings"), func(stmt *sqlite.Stmt) error {
		out = append(out, stmt.ColumnText(1))
		return nil
	})
	return out, err
}

// needsPreserve reports whether value has whitespace at either end, which
// readers drop unless xml:space="preserve" is set.
func needsPreserve(value string) bool {
	if value == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(value)
	last, _ := utf8.DecodeLastRuneInString(value)
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}

func (s *SharedStrings) expand() (bool, error) {
	if s.n == 0 {
		unlinked, err := unlink(s.rels, s.types, s.name)
		if err != nil || unlinked {
			return false, err
		}
	}

	values, err := s.Values()
	if err != nil {
		return false, err
	}
	root, err := s.root()
	if err != nil {
		return false, err
	}
	var unique int
	err = s.reg.backend.Query(queries.MustGet("count_distinct_shared_strings"), func(stmt *sqlite.Stmt) error {
		unique = stmt.ColumnInt(0)
		return nil
	})
	if err != nil {
		return false, err
	}
	root.SetAttribute("count", strconv.Itoa(len(values)))
	root.SetAttribute("uniqueCount", strconv.Itoa(unique))

	// String items precede extLst.
	at := s.doc.ChildIndex(xml.RootID, "extLst")
	if at < 0 {
		at = root.ChildCount()
	}
	for i, v := range values {
		si, err := s.doc.InsertChild(xml.RootID, at+i, "si")
		if err != nil {
			return false, err
		}
		t, err := s.doc.AppendChild(si.ID(), "t")
		if err != nil {
			return false, err
		}
		t.SetValue(v)
		if needsPreserve(v) {
			t.SetAttribute("xml:space", "preserve")
		}
	}
	return true, nil
}
