package parts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
	"zombiezen.com/go/sqlite"
)

// CalcEntry is one cell of the calculation chain.
type CalcEntry struct {
	CellRef string
	SheetID int
	// NewLevel marks the start of a new dependency level (l="1").
	NewLevel bool
}

// CalculationChain controls xl/calcChain.xml. While open, the entries live
// in the calc_chain table in evaluation order.
type CalculationChain struct {
	*Part
	rels    *Relations
	types   *ContentTypes
	n       int
	nextSeq int
}

// OpenCalculationChain opens the calculation chain. rels and types behave
// as for OpenSharedStrings.
func OpenCalculationChain(reg *Registry, rels *Relations, types *ContentTypes) (*CalculationChain, error) {
	name := KindCalcChain.DefaultPath
	if rels != nil {
		var err error
		if name, _, err = rels.EnsurePart(KindCalcChain, types); err != nil {
			return nil, err
		}
	}
	p, err := OpenPart(reg, name, rootTemplate("calcChain", NamespaceSpreadsheet))
	if err != nil {
		return nil, err
	}
	c := &CalculationChain{Part: p, rels: rels, types: types}
	if err := c.extract(); err != nil {
		p.abandon()
		return nil, fmt.Errorf("parts: open %s: %w", name, err)
	}
	p.beforeFlush = c.expand
	return c, nil
}

func (c *CalculationChain) extract() error {
	b := c.reg.backend
	if err := b.ExecScript(queries.MustGet("create_calc_chain_table")); err != nil {
		return err
	}

	var entries []CalcEntry
	sheet := 0
	for _, id := range c.doc.ElementsByTag(xml.RootID, "c") {
		e, _ := c.doc.Element(id)
		ref, ok := e.Attribute("r")
		if !ok || ref == "" {
			return fmt.Errorf("%w: calc chain entry %d has no cell reference", ErrInvalidPart, len(entries))
		}
		if v, ok := e.Attribute("i"); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: calc chain entry %s: sheet id %q", ErrInvalidPart, ref, v)
			}
			sheet = n
		} else if len(entries) == 0 {
			return fmt.Errorf("%w: first calc chain entry %s has no sheet id", ErrInvalidPart, ref)
		}
		l, _ := e.Attribute("l")
		entries = append(entries, CalcEntry{CellRef: ref, SheetID: sheet, NewLevel: isTrue(l)})
	}
	c.doc.PopElementsByTag(xml.RootID, "c")
	c.doc.Prune()

	insert := queries.MustGet("insert_calc_chain")
	err := b.Transaction(func() error {
		for i, entry := range entries {
			if err := b.Exec(insert, i, entry.CellRef, entry.SheetID, boolInt(entry.NewLevel)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.n, c.nextSeq = len(entries), len(entries)
	return nil
}

func isTrue(v string) bool { return v == "1" || strings.EqualFold(v, "true") }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Len returns the number of entries.
func (c *CalculationChain) Len() int { return c.n }

// Contains reports whether a cell is in the chain.
func (c *CalculationChain) Contains(cellRef string, sheetID int) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	return c.contains(cellRef, sheetID)
}

func (c *CalculationChain) contains(cellRef string, sheetID int) (found bool, err error) {
	err = c.reg.backend.Query(queries.MustGet("select_calc_chain_cell"), func(*sqlite.Stmt) error {
		found = true
		return nil
	}, cellRef, sheetID)
	return found, err
}

// Add appends a cell to the end of the chain. A cell already present is
// left where it is.
func (c *CalculationChain) Add(cellRef string, sheetID int) error {
	if err := c.check(); err != nil {
		return err
	}
	found, err := c.contains(cellRef, sheetID)
	if err != nil || found {
		return err
	}
	if err := c.reg.backend.Exec(queries.MustGet("insert_calc_chain"), c.nextSeq, cellRef, sheetID, 0); err != nil {
		return fmt.Errorf("parts: add calc chain entry %s: %w", cellRef, err)
	}
	c.touch()
	c.n++
	c.nextSeq++
	return nil
}

// Remove drops a cell from the chain and reports whether it was there.
func (c *CalculationChain) Remove(cellRef string, sheetID int) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	found, err := c.contains(cellRef, sheetID)
	if err != nil || !found {
		return false, err
	}
	if err := c.reg.backend.Exec(queries.MustGet("delete_calc_chain_cell"), cellRef, sheetID); err != nil {
		return false, err
	}
	c.touch()
	return true, c.recount()
}

// RemoveSheet drops every entry of one sheet and returns how many there
// were.
func (c *CalculationChain) RemoveSheet(sheetID int) (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	before := c.n
	if err := c.reg.backend.Exec(queries.MustGet("delete_calc_chain_sheet"), sheetID); err != nil {
		return 0, err
	}
	if err := c.recount(); err != nil {
		return 0, err
	}
	if c.n != before {
		c.touch()
	}
	return before - c.n, nil
}

func (c *CalculationChain) recount() error {
	return c.reg.backend.Query(queries.MustGet("count_calc_chain"), func(stmt *sqlite.Stmt) error {
		c.n = stmt.ColumnInt(0)
		return nil
	})
}

// Entries returns the chain in evaluation order.
func (c *CalculationChain) Entries() ([]CalcEntry, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	out := make([]CalcEntry, 0, c.n)
	err := c.reg.backend.Query(queries.MustGet("select_calc_chain"), func(stmt *sqlite.Stmt) error {
		out = append(out, CalcEntry{
			CellRef:  stmt.ColumnText(0),
			SheetID:  stmt.ColumnInt(1),
			NewLevel: stmt.ColumnInt(2) != 0,
		})
		return nil
	})
	return out, err
}

func (c *CalculationChain) expand() (bool, error) {
	if c.n == 0 {
		unlinked, err := unlink(c.rels, c.types, c.name)
		if err != nil || unlinked {
			return false, err
		}
	}
	entries, err := c.Entries()
	if err != nil {
		return false, err
	}
	at := c.doc.ChildIndex(xml.RootID, "extLst")
	if at < 0 {
		at = c.doc.Root().ChildCount()
	}
	for i, entry := range entries {
		e, err := c.doc.InsertChild(xml.RootID, at+i, "c")
		if err != nil {
			return false, err
		}
		attrs := map[string]string{"r": entry.CellRef, "i": strconv.Itoa(entry.SheetID)}
		if entry.NewLevel {
			attrs["l"] = "1"
		}
		e.SetAttributes(attrs)
	}
	return true, nil
}
