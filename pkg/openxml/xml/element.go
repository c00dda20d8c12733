package xml

import (
	"maps"
	"strings"
)

// ChildRef is an entry of an element's child list.
type ChildRef struct {
	ID  int
	Tag string
}

// Element is one node of a Document. Elements are created through the
// Document and must not be shared between documents.
type Element struct {
	id       int
	parentID int
	tag      string
	attrs    map[string]string
	value    string
	children []ChildRef
}

// ID returns the element's id within its document.
func (e *Element) ID() int { return e.id }

// ParentID returns the parent's id. The root reports 0.
func (e *Element) ParentID() int { return e.parentID }

// Tag returns the qualified name, e.g. "cp:coreProperties".
func (e *Element) Tag() string { return e.tag }

// Prefix returns the namespace prefix of the tag, or "".
func (e *Element) Prefix() string {
	prefix, _, ok := strings.Cut(e.tag, ":")
	if !ok {
		return ""
	}
	return prefix
}

// LocalName returns the tag without its prefix.
func (e *Element) LocalName() string {
	if _, local, ok := strings.Cut(e.tag, ":"); ok {
		return local
	}
	return e.tag
}

// Attribute returns the value of key.
func (e *Element) Attribute(key string) (string, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// Attributes returns a copy of the attribute map.
func (e *Element) Attributes() map[string]string {
	if len(e.attrs) == 0 {
		return nil
	}
	return maps.Clone(e.attrs)
}

// HasAttributes reports whether any attribute is set.
func (e *Element) HasAttributes() bool { return len(e.attrs) > 0 }

// SetAttributes replaces the whole attribute map with a copy of attrs.
func (e *Element) SetAttributes(attrs map[string]string) {
	if len(attrs) == 0 {
		e.attrs = nil
		return
	}
	e.attrs = maps.Clone(attrs)
}

// SetAttribute sets a single attribute, leaving the others in place.
func (e *Element) SetAttribute(key, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[key] = value
}

// RemoveAttribute deletes key if present.
func (e *Element) RemoveAttribute(key string) {
	delete(e.attrs, key)
	if len(e.attrs) == 0 {
		e.attrs = nil
	}
}

// Value returns the text content.
func (e *Element) Value() string { return e.value }

// HasValue reports whether the element carries text.
func (e *Element) HasValue() bool { return e.value != "" }

// SetValue replaces the text content. The element must not have
// children; this is not checked here, see Document.Validate.
func (e *Element) SetValue(v string) { e.value = v }

// Children returns a copy of the child list in document order.
func (e *Element) Children() []ChildRef {
	if len(e.children) == 0 {
		return nil
	}
	out := make([]ChildRef, len(e.children))
	copy(out, e.children)
	return out
}

// ChildCount returns the number of children.
func (e *Element) ChildCount() int { return len(e.children) }

// FirstChildID returns the id of the first child without removing it.
func (e *Element) FirstChildID() (int, bool) {
	if len(e.children) == 0 {
		return 0, false
	}
	return e.children[0].ID, true
}

// IsEmpty reports whether the element has neither value nor children.
func (e *Element) IsEmpty() bool { return e.value == "" && len(e.children) == 0 }

func (e *Element) removeChild(id int) bool {
	for i, ref := range e.children {
		if ref.ID == id {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return true
		}
	}
	return false
}
