package parts

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
)

// PackageRelationsPath is the relationships part of the package itself.
const PackageRelationsPath = "_rels/.rels"

// TargetModeExternal marks a relationship whose target is outside the
// package.
const TargetModeExternal = "External"

// RelationsPathFor returns the relationships part of source. An empty
// source names the package.
func RelationsPathFor(source string) string {
	source = strings.TrimPrefix(source, "/")
	if source == "" {
		return PackageRelationsPath
	}
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

// SourceOf is the inverse of RelationsPathFor.
func SourceOf(relsPath string) (string, bool) {
	relsPath = strings.TrimPrefix(relsPath, "/")
	if relsPath == PackageRelationsPath {
		return "", true
	}
	dir, file := path.Split(relsPath)
	base, ok := strings.CutSuffix(file, ".rels")
	if !ok || !strings.HasSuffix(dir, "_rels/") {
		return "", false
	}
	return strings.TrimSuffix(dir, "_rels/") + base, true
}

// Relationship is one entry of a relationships part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// External reports whether the target lies outside the package.
func (r Relationship) External() bool { return r.TargetMode == TargetModeExternal }

// Relations controls one .rels part.
type Relations struct {
	*Part
	source string
}

// OpenRelations opens the relationships part of source, "" for the
// package. A missing part starts as an empty Relationships root.
func OpenRelations(reg *Registry, source string) (*Relations, error) {
	name := RelationsPathFor(source)
	p, err := OpenPart(reg, name, rootTemplate("Relationships", NamespaceRelationships))
	if err != nil {
		return nil, err
	}
	return &Relations{Part: p, source: strings.TrimPrefix(source, "/")}, nil
}

// Source returns the part the relationships belong to.
func (r *Relations) Source() string { return r.source }

func (r *Relations) baseDir() string {
	if r.source == "" {
		return ""
	}
	return path.Dir(r.source)
}

// Resolve turns an internal target into a package part name.
func (r *Relations) Resolve(target string) string {
	if abs, ok := strings.CutPrefix(target, "/"); ok {
		return path.Clean(abs)
	}
	return path.Clean(path.Join(r.baseDir(), target))
}

// relativeTarget expresses a part name relative to the source's directory.
func (r *Relations) relativeTarget(name string) string {
	name = strings.TrimPrefix(name, "/")
	dir := r.baseDir()
	if dir == "" || dir == "." {
		return name
	}
	if rest, ok := strings.CutPrefix(name, dir+"/"); ok {
		return rest
	}
	return "/" + name
}

func toRelationship(e *xml.Element) Relationship {
	var rel Relationship
	rel.ID, _ = e.Attribute("Id")
	rel.Type, _ = e.Attribute("Type")
	rel.Target, _ = e.Attribute("Target")
	rel.TargetMode, _ = e.Attribute("TargetMode")
	return rel
}

// List returns the relationships in document order.
func (r *Relations) List() ([]Relationship, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	ids := r.doc.ElementsByTag(xml.RootID, "Relationship")
	out := make([]Relationship, 0, len(ids))
	for _, id := range ids {
		e, _ := r.doc.Element(id)
		out = append(out, toRelationship(e))
	}
	return out, nil
}

// Get returns the relationship with id.
func (r *Relations) Get(id string) (Relationship, bool, error) {
	if err := r.check(); err != nil {
		return Relationship{}, false, err
	}
	e, ok := r.doc.ElementByAttribute(xml.RootID, "Id", id)
	if !ok {
		return Relationship{}, false, nil
	}
	return toRelationship(e), true, nil
}

// TargetByType returns the target of the first relationship of relType,
// as written in the part.
func (r *Relations) TargetByType(relType string) (string, bool, error) {
	if err := r.check(); err != nil {
		return "", false, err
	}
	e, ok := r.doc.ElementByAttribute(xml.RootID, "Type", relType)
	if !ok {
		return "", false, nil
	}
	target, _ := e.Attribute("Target")
	return target, true, nil
}

// PartByType returns the package part name targeted by the first internal
// relationship of relType.
func (r *Relations) PartByType(relType string) (string, bool, error) {
	rels, err := r.List()
	if err != nil {
		return "", false, err
	}
	for _, rel := range rels {
		if rel.Type == relType && !rel.External() {
			return r.Resolve(rel.Target), true, nil
		}
	}
	return "", false, nil
}

func (r *Relations) nextID() string {
	highest := 0
	for _, id := range r.doc.ElementsByTag(xml.RootID, "Relationship") {
		e, _ := r.doc.Element(id)
		v, _ := e.Attribute("Id")
		if n, err := strconv.Atoi(strings.TrimPrefix(v, "rId")); err == nil && n > highest {
			highest = n
		}
	}
	return "rId" + strconv.Itoa(highest+1)
}

func (r *Relations) add(relType, target, mode string) (string, error) {
	if err := r.check(); err != nil {
		return "", err
	}
	if relType == "" || target == "" {
		return "", fmt.Errorf("%w: relationship needs a type and a target", ErrInvalidPart)
	}
	id := r.nextID()
	e, err := r.doc.AppendChild(xml.RootID, "Relationship")
	if err != nil {
		return "", err
	}
	attrs := map[string]string{"Id": id, "Type": relType, "Target": target}
	if mode != "" {
		attrs["TargetMode"] = mode
	}
	e.SetAttributes(attrs)
	r.touch()
	return id, nil
}

// Add appends a relationship with the next free rIdN and returns the id.
// target is written as given.
func (r *Relations) Add(relType, target string) (string, error) {
	return r.add(relType, target, "")
}

// AddPart appends a relationship to a package part, writing the target
// relative to the source.
func (r *Relations) AddPart(relType, name string) (string, error) {
	return r.add(relType, r.relativeTarget(name), "")
}

// AddExternal appends a relationship to a resource outside the package.
func (r *Relations) AddExternal(relType, uri string) (string, error) {
	return r.add(relType, uri, TargetModeExternal)
}

// Remove deletes the relationship with id.
func (r *Relations) Remove(id string) (bool, error) {
	if err := r.check(); err != nil {
		return false, err
	}
	e, ok := r.doc.ElementByAttribute(xml.RootID, "Id", id)
	if !ok {
		return false, nil
	}
	r.touch()
	return r.doc.RemoveElement(e.ID()), nil
}

// RemoveByTarget deletes every relationship whose target, as written or
// resolved to a part name, equals target. It returns how many were removed.
func (r *Relations) RemoveByTarget(target string) (int, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	want := strings.TrimPrefix(target, "/")
	removed := 0
	for _, id := range r.doc.ElementsByTag(xml.RootID, "Relationship") {
		e, _ := r.doc.Element(id)
		rel := toRelationship(e)
		match := rel.Target == target
		if !match && !rel.External() {
			match = r.Resolve(rel.Target) == want
		}
		if match && r.doc.RemoveElement(id) {
			removed++
		}
	}
	if removed > 0 {
		r.touch()
	}
	return removed, nil
}

// EnsurePart returns the part targeted by the first relationship of kind.
// When there is none, it links kind's default path and, if types is not
// nil, registers the part's content type. created reports whether the
// relationship was added.
func (r *Relations) EnsurePart(kind Kind, types *ContentTypes) (name string, created bool, err error) {
	name, ok, err := r.PartByType(kind.RelationshipType)
	if err != nil || ok {
		return name, false, err
	}
	if kind.DefaultPath == "" {
		return "", false, fmt.Errorf("%w: %s has no default path", ErrInvalidPart, kind.Name)
	}
	name = kind.DefaultPath
	if _, err := r.AddPart(kind.RelationshipType, name); err != nil {
		return "", false, err
	}
	if types != nil && kind.ContentType != "" {
		if err := types.SetOverride(name, kind.ContentType); err != nil {
			return "", false, err
		}
	}
	return name, true, nil
}

// unlink removes the relationship and content type override of a part
// that is going away. It reports false when the relationships part is
// already closed.
func unlink(rels *Relations, types *ContentTypes, name string) (bool, error) {
	if rels == nil || rels.Closed() {
		return false, nil
	}
	if _, err := rels.RemoveByTarget(name); err != nil {
		return false, err
	}
	if types != nil && !types.Closed() {
		if _, err := types.RemoveOverride(name); err != nil {
			return false, err
		}
	}
	return true, nil
}
