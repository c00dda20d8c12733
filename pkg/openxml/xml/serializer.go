package xml

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Prolog is written at the start of every serialized document.
const Prolog = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\r", "&#xD;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
)

// Serialize writes doc in canonical form. The tree is not modified.
func Serialize(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// frame is one open element on the serializer stack.
type frame struct {
	e        *Element
	children []ChildRef
	next     int
}

// Encode writes doc in canonical form to w. Traversal uses an explicit
// stack; each element is entered once and closed once, so more than
// 2 × Len steps means the tree is inconsistent.
func Encode(w io.Writer, doc *Document) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%w: document has no root", ErrElementNotFound)
	}

	var buf bytes.Buffer
	buf.WriteString(Prolog)

	budget := 2 * doc.Len()
	steps := 0
	var stack []frame

	enter := func(e *Element) {
		steps++
		if len(e.children) == 0 {
			writeLeaf(&buf, doc, e)
			return
		}
		writeStart(&buf, doc, e, false)
		stack = append(stack, frame{e: e, children: e.Children()})
	}

	enter(root)
	for len(stack) > 0 {
		if steps > budget {
			return fmt.Errorf("%w: %d steps for %d elements", ErrSerializeLoopSafety, steps, doc.Len())
		}
		top := &stack[len(stack)-1]
		if top.next == len(top.children) {
			steps++
			writeEnd(&buf, top.e.tag)
			stack = stack[:len(stack)-1]
			continue
		}
		ref := top.children[top.next]
		top.next++
		child, ok := doc.live[ref.ID]
		if !ok || child.parentID != top.e.id || ref.ID == RootID {
			return fmt.Errorf("%w: dangling child %d of <%s>", ErrSerializeLoopSafety, ref.ID, top.e.tag)
		}
		enter(child)
	}
	if steps > budget {
		return fmt.Errorf("%w: %d steps for %d elements", ErrSerializeLoopSafety, steps, doc.Len())
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeLeaf(buf *bytes.Buffer, doc *Document, e *Element) {
	if e.value == "" {
		writeStart(buf, doc, e, true)
		return
	}
	writeStart(buf, doc, e, false)
	textEscaper.WriteString(buf, e.value)
	writeEnd(buf, e.tag)
}

func writeStart(buf *bytes.Buffer, doc *Document, e *Element, selfClose bool) {
	buf.WriteByte('<')
	buf.WriteString(e.tag)

	declared := map[string]bool{}
	if e.id == RootID {
		for _, ns := range doc.ns.List() {
			name := declAttr(ns.Prefix)
			declared[name] = true
			writeAttr(buf, name, ns.URI)
		}
	}

	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		if !declared[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeAttr(buf, k, e.attrs[k])
	}

	if selfClose {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	attrEscaper.WriteString(buf, value)
	buf.WriteByte('"')
}

func writeEnd(buf *bytes.Buffer, tag string) {
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteByte('>')
}
