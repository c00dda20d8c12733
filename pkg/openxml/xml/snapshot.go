package xml

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const snapshotVersion = 1

// Snapshot layout. Integer keys keep the encoding compact; live elements
// are listed in id order.
type snapshot struct {
	Version    int               `cbor:"1,keyasint"`
	NextID     int               `cbor:"2,keyasint"`
	Namespaces []Namespace       `cbor:"3,keyasint,omitempty"`
	Elements   []snapshotElement `cbor:"4,keyasint"`
}

type snapshotElement struct {
	ID       int               `cbor:"1,keyasint"`
	Parent   int               `cbor:"2,keyasint"`
	Tag      string            `cbor:"3,keyasint"`
	Attrs    map[string]string `cbor:"4,keyasint,omitempty"`
	Value    string            `cbor:"5,keyasint,omitempty"`
	Children []int             `cbor:"6,keyasint,omitempty"`
}

var (
	snapshotEnc cbor.EncMode
	snapshotDec cbor.DecMode
)

func init() {
	var err error
	snapshotEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("xml: CBOR encoder initialization failed: " + err.Error())
	}
	snapshotDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("xml: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeSnapshot returns a deterministic CBOR encoding of the live tree.
// Detached elements are not included.
func EncodeSnapshot(doc *Document) ([]byte, error) {
	snap := snapshot{
		Version:    snapshotVersion,
		NextID:     doc.nextID,
		Namespaces: doc.ns.List(),
		Elements:   make([]snapshotElement, 0, doc.Len()),
	}
	for _, id := range doc.IDs() {
		e := doc.live[id]
		se := snapshotElement{
			ID:     e.id,
			Parent: e.parentID,
			Tag:    e.tag,
			Attrs:  e.attrs,
			Value:  e.value,
		}
		for _, ref := range e.children {
			se.Children = append(se.Children, ref.ID)
		}
		snap.Elements = append(snap.Elements, se)
	}
	data, err := snapshotEnc.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("xml: encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot rebuilds a document from EncodeSnapshot output and
// checks its invariants.
func DecodeSnapshot(data []byte) (*Document, error) {
	var snap snapshot
	if err := snapshotDec.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("xml: decoding snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("xml: snapshot version %d not supported", snap.Version)
	}

	doc := NewDocument()
	doc.nextID = snap.NextID
	for _, ns := range snap.Namespaces {
		doc.ns.Set(ns.Prefix, ns.URI)
	}
	for _, se := range snap.Elements {
		if _, dup := doc.live[se.ID]; dup {
			return nil, fmt.Errorf("xml: snapshot repeats id %d", se.ID)
		}
		doc.live[se.ID] = &Element{
			id:       se.ID,
			parentID: se.Parent,
			tag:      se.Tag,
			attrs:    se.Attrs,
			value:    se.Value,
		}
	}
	for _, se := range snap.Elements {
		e := doc.live[se.ID]
		for _, childID := range se.Children {
			child, ok := doc.live[childID]
			if !ok {
				return nil, fmt.Errorf("xml: snapshot child %d of %d missing", childID, se.ID)
			}
			e.children = append(e.children, ChildRef{ID: childID, Tag: child.tag})
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("xml: invalid snapshot: %w", err)
	}
	return doc, nil
}

// Clone returns a deep copy of the live tree.
func (d *Document) Clone() *Document {
	out := NewDocument()
	out.nextID = d.nextID
	for _, ns := range d.ns.List() {
		out.ns.Set(ns.Prefix, ns.URI)
	}
	for id, e := range d.live {
		c := *e
		c.attrs = e.Attributes()
		c.children = e.Children()
		out.live[id] = &c
	}
	return out
}
