package xml

import (
	"fmt"
	"sort"
)

// RootID is the id of every document's root element.
const RootID = 0

// Document is an id-addressed XML tree with a single root.
type Document struct {
	live     map[int]*Element
	detached map[int]*Element
	nextID   int
	ns       *Namespaces
}

// NewDocument returns an empty document without a root.
func NewDocument() *Document {
	return &Document{
		live:     make(map[int]*Element),
		detached: make(map[int]*Element),
		ns:       newNamespaces(),
	}
}

// CreateRoot creates the root element with id 0.
func (d *Document) CreateRoot(tag string) (*Element, error) {
	if _, ok := d.live[RootID]; ok || d.nextID > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRootExists, tag)
	}
	root := &Element{id: RootID, parentID: RootID, tag: tag}
	d.live[RootID] = root
	d.nextID = RootID + 1
	return root, nil
}

// Root returns the root element, or nil for an empty document.
func (d *Document) Root() *Element { return d.live[RootID] }

// Element returns the live element with id.
func (d *Document) Element(id int) (*Element, bool) {
	e, ok := d.live[id]
	return e, ok
}

// Len returns the number of live elements.
func (d *Document) Len() int { return len(d.live) }

// NextID returns the id the next new element will receive.
func (d *Document) NextID() int { return d.nextID }

// Namespaces returns the document's namespace table.
func (d *Document) Namespaces() *Namespaces { return d.ns }

// SetNamespace binds prefix to uri on the root. An empty prefix sets the
// default namespace.
func (d *Document) SetNamespace(prefix, uri string) { d.ns.Set(prefix, uri) }

// Namespace returns the uri bound to prefix.
func (d *Document) Namespace(prefix string) (string, bool) { return d.ns.Lookup(prefix) }

// NamespaceOf resolves the namespace of a live element's tag.
func (d *Document) NamespaceOf(id int) (string, bool) {
	e, ok := d.live[id]
	if !ok {
		return "", false
	}
	return d.ns.Lookup(e.Prefix())
}

// AppendChild adds a new element as the last child of parentID.
func (d *Document) AppendChild(parentID int, tag string) (*Element, error) {
	parent, ok := d.live[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d (append %s)", ErrParentNotFound, parentID, tag)
	}
	child := d.newElement(parentID, tag)
	parent.children = append(parent.children, ChildRef{ID: child.id, Tag: tag})
	return child, nil
}

// InsertChild adds a new element at position index of parentID's child
// list. index may equal the current child count.
func (d *Document) InsertChild(parentID, index int, tag string) (*Element, error) {
	parent, ok := d.live[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d (insert %s)", ErrParentNotFound, parentID, tag)
	}
	if index < 0 || index > len(parent.children) {
		return nil, fmt.Errorf("xml: insert %s: index %d out of range [0,%d]", tag, index, len(parent.children))
	}
	child := d.newElement(parentID, tag)
	parent.children = append(parent.children, ChildRef{})
	copy(parent.children[index+1:], parent.children[index:])
	parent.children[index] = ChildRef{ID: child.id, Tag: tag}
	return child, nil
}

func (d *Document) newElement(parentID int, tag string) *Element {
	e := &Element{id: d.nextID, parentID: parentID, tag: tag}
	d.nextID++
	d.live[e.id] = e
	return e
}

// ChildIndex returns the first position in parentID's child list whose
// tag is one of tags, or -1.
func (d *Document) ChildIndex(parentID int, tags ...string) int {
	parent, ok := d.live[parentID]
	if !ok {
		return -1
	}
	for i, ref := range parent.children {
		for _, tag := range tags {
			if ref.Tag == tag {
				return i
			}
		}
	}
	return -1
}

// ElementsByTag returns the ids of parentID's direct children named tag,
// in document order. It returns nil when there are none.
func (d *Document) ElementsByTag(parentID int, tag string) []int {
	parent, ok := d.live[parentID]
	if !ok {
		return nil
	}
	var ids []int
	for _, ref := range parent.children {
		if ref.Tag == tag {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}

// FirstByTag returns parentID's first direct child named tag.
func (d *Document) FirstByTag(parentID int, tag string) (*Element, bool) {
	parent, ok := d.live[parentID]
	if !ok {
		return nil, false
	}
	for _, ref := range parent.children {
		if ref.Tag == tag {
			return d.live[ref.ID], true
		}
	}
	return nil, false
}

// ElementByAttribute returns the first direct child of parentID whose
// attribute key equals value.
func (d *Document) ElementByAttribute(parentID int, key, value string) (*Element, bool) {
	parent, ok := d.live[parentID]
	if !ok {
		return nil, false
	}
	for _, ref := range parent.children {
		child := d.live[ref.ID]
		if v, ok := child.attrs[key]; ok && v == value {
			return child, true
		}
	}
	return nil, false
}

// ElementByPath walks from the root through first children with the
// given tags. The first tag names the root itself.
func (d *Document) ElementByPath(tags ...string) (*Element, bool) {
	root := d.Root()
	if root == nil || len(tags) == 0 || root.tag != tags[0] {
		return nil, false
	}
	current := root
	for _, tag := range tags[1:] {
		next, ok := d.FirstByTag(current.id, tag)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// FirstChildID returns the first child of id without removing it.
func (d *Document) FirstChildID(id int) (int, bool) {
	e, ok := d.live[id]
	if !ok {
		return 0, false
	}
	return e.FirstChildID()
}

// PopElement removes the element with id and returns it. A live element
// is unlinked from its parent and its descendants become detached; a
// detached element is released from the detached set. The root cannot be
// popped.
func (d *Document) PopElement(id int) (*Element, bool) {
	if id == RootID {
		return nil, false
	}
	if e, ok := d.live[id]; ok {
		if parent, ok := d.live[e.parentID]; ok {
			parent.removeChild(id)
		}
		delete(d.live, id)
		d.detachDescendants(e)
		return e, true
	}
	if e, ok := d.detached[id]; ok {
		if parent, ok := d.detached[e.parentID]; ok {
			parent.removeChild(id)
		}
		delete(d.detached, id)
		return e, true
	}
	return nil, false
}

// PopElementsByTag pops every direct child of parentID named tag and
// returns them in document order, or nil when there are none.
func (d *Document) PopElementsByTag(parentID int, tag string) []*Element {
	ids := d.ElementsByTag(parentID, tag)
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Element, 0, len(ids))
	for _, id := range ids {
		if e, ok := d.PopElement(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// RemoveElement pops id and drops its whole subtree, detached
// descendants included.
func (d *Document) RemoveElement(id int) bool {
	e, ok := d.PopElement(id)
	if !ok {
		return false
	}
	d.dropDetached(e)
	return true
}

// RemoveChildren drops every child subtree of id.
func (d *Document) RemoveChildren(id int) error {
	e, ok := d.live[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrElementNotFound, id)
	}
	for _, ref := range e.Children() {
		d.RemoveElement(ref.ID)
	}
	return nil
}

func (d *Document) detachDescendants(e *Element) {
	stack := append([]ChildRef(nil), e.children...)
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		child, ok := d.live[ref.ID]
		if !ok {
			continue
		}
		delete(d.live, ref.ID)
		d.detached[ref.ID] = child
		stack = append(stack, child.children...)
	}
}

func (d *Document) dropDetached(e *Element) {
	stack := append([]ChildRef(nil), e.children...)
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if child, ok := d.detached[ref.ID]; ok {
			delete(d.detached, ref.ID)
			stack = append(stack, child.children...)
		}
	}
}

// Detached returns the number of elements taken out of the live tree but
// still addressable by PopElement.
func (d *Document) Detached() int { return len(d.detached) }

// Prune forgets every detached element.
func (d *Document) Prune() { clear(d.detached) }

// IDs returns every live id in ascending order.
func (d *Document) IDs() []int {
	ids := make([]int, 0, len(d.live))
	for id := range d.live {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Validate checks the structural invariants: every non-root element has a
// live parent that lists it exactly once, every child reference points to
// a live element with matching parent and tag, ids are below NextID, and
// no element has both a value and children.
func (d *Document) Validate() error {
	if len(d.live) == 0 {
		return nil
	}
	if _, ok := d.live[RootID]; !ok {
		return fmt.Errorf("%w: root missing", ErrElementNotFound)
	}
	for _, id := range d.IDs() {
		e := d.live[id]
		if e.id != id {
			return fmt.Errorf("xml: element stored under %d reports id %d", id, e.id)
		}
		if id >= d.nextID {
			return fmt.Errorf("xml: id %d not below next id %d", id, d.nextID)
		}
		if e.value != "" && len(e.children) > 0 {
			return fmt.Errorf("xml: element %d <%s> has both value and children", id, e.tag)
		}
		seen := make(map[int]bool, len(e.children))
		for _, ref := range e.children {
			if seen[ref.ID] {
				return fmt.Errorf("xml: element %d lists child %d twice", id, ref.ID)
			}
			seen[ref.ID] = true
			child, ok := d.live[ref.ID]
			if !ok {
				return fmt.Errorf("%w: child %d of %d", ErrElementNotFound, ref.ID, id)
			}
			if child.parentID != id || child.tag != ref.Tag || ref.ID == RootID {
				return fmt.Errorf("xml: child reference %d of %d is inconsistent", ref.ID, id)
			}
		}
		if id == RootID {
			continue
		}
		parent, ok := d.live[e.parentID]
		if !ok {
			return fmt.Errorf("%w: parent %d of %d", ErrParentNotFound, e.parentID, id)
		}
		count := 0
		for _, ref := range parent.children {
			if ref.ID == id {
				count++
			}
		}
		if count != 1 {
			return fmt.Errorf("xml: element %d listed %d times by parent %d", id, count, e.parentID)
		}
	}
	return nil
}
