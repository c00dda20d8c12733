package parts

import (
	"fmt"
	"time"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
)

// Element names of docProps/core.xml.
const (
	coreTitle          = "dc:title"
	coreSubject        = "dc:subject"
	coreCreator        = "dc:creator"
	coreKeywords       = "cp:keywords"
	coreDescription    = "dc:description"
	coreLastModifiedBy = "cp:lastModifiedBy"
	coreCategory       = "cp:category"
	coreRevision       = "cp:revision"
	coreCreated        = "dcterms:created"
	coreModified       = "dcterms:modified"
)

// w3cdtf is the timestamp layout of dcterms dates.
const w3cdtf = "2006-01-02T15:04:05Z"

// CoreProperties controls docProps/core.xml. Closing it stamps
// dcterms:modified with the registry's clock.
type CoreProperties struct {
	*Part
}

// OpenCoreProperties opens docProps/core.xml.
func OpenCoreProperties(reg *Registry) (*CoreProperties, error) {
	p, err := OpenPart(reg, KindCoreProperties.DefaultPath, parseTemplate("core.xml"))
	if err != nil {
		return nil, err
	}
	cp := &CoreProperties{Part: p}
	p.beforeFlush = cp.stamp
	return cp, nil
}

func (cp *CoreProperties) stamp() (bool, error) {
	return true, cp.setTime(coreModified, cp.reg.now())
}

func (cp *CoreProperties) text(tag string) (string, error) {
	if err := cp.check(); err != nil {
		return "", err
	}
	e, ok := cp.doc.FirstByTag(xml.RootID, tag)
	if !ok {
		return "", nil
	}
	return e.Value(), nil
}

// setText sets the value of tag, creating the element when missing. An
// empty value removes the element.
func (cp *CoreProperties) setText(tag, value string) error {
	if err := cp.check(); err != nil {
		return err
	}
	cp.touch()
	e, ok := cp.doc.FirstByTag(xml.RootID, tag)
	if value == "" {
		if ok {
			cp.doc.RemoveElement(e.ID())
		}
		return nil
	}
	if !ok {
		var err error
		if e, err = cp.doc.AppendChild(xml.RootID, tag); err != nil {
			return err
		}
	}
	e.SetValue(value)
	return nil
}

func (cp *CoreProperties) setTime(tag string, t time.Time) error {
	if err := cp.setText(tag, t.UTC().Format(w3cdtf)); err != nil {
		return err
	}
	e, _ := cp.doc.FirstByTag(xml.RootID, tag)
	e.SetAttribute("xsi:type", "dcterms:W3CDTF")
	for prefix, uri := range map[string]string{"dcterms": NamespaceDCTerms, "xsi": NamespaceXSI} {
		if _, ok := cp.doc.Namespace(prefix); !ok {
			cp.doc.SetNamespace(prefix, uri)
		}
	}
	return nil
}

func (cp *CoreProperties) date(tag string) (time.Time, bool, error) {
	v, err := cp.text(tag)
	if err != nil || v == "" {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %s: %v", ErrInvalidPart, tag, err)
	}
	return t, true, nil
}

// Title returns the title property, empty when absent.
func (cp *CoreProperties) Title() (string, error) { return cp.text(coreTitle) }

// SetTitle sets the title property. An empty value removes it.
func (cp *CoreProperties) SetTitle(v string) error { return cp.setText(coreTitle, v) }

// Subject returns the subject property, empty when absent.
func (cp *CoreProperties) Subject() (string, error) { return cp.text(coreSubject) }

// SetSubject sets the subject property. An empty value removes it.
func (cp *CoreProperties) SetSubject(v string) error { return cp.setText(coreSubject, v) }

// Creator returns the creator property, empty when absent.
func (cp *CoreProperties) Creator() (string, error) { return cp.text(coreCreator) }

// SetCreator sets the creator property. An empty value removes it.
func (cp *CoreProperties) SetCreator(v string) error { return cp.setText(coreCreator, v) }

// Keywords returns the keywords property, empty when absent.
func (cp *CoreProperties) Keywords() (string, error) { return cp.text(coreKeywords) }

// SetKeywords sets the keywords property. An empty value removes it.
func (cp *CoreProperties) SetKeywords(v string) error { return cp.setText(coreKeywords, v) }

// Description returns the description property, empty when absent.
func (cp *CoreProperties) Description() (string, error) { return cp.text(coreDescription) }

// SetDescription sets the description property. An empty value removes it.
func (cp *CoreProperties) SetDescription(v string) error { return cp.setText(coreDescription, v) }

// LastModifiedBy returns the lastModifiedBy property, empty when absent.
func (cp *CoreProperties) LastModifiedBy() (string, error) { return cp.text(coreLastModifiedBy) }

// SetLastModifiedBy sets the lastModifiedBy property. An empty value removes it.
func (cp *CoreProperties) SetLastModifiedBy(v string) error { return cp.setText(coreLastModifiedBy, v) }

// Category returns the category property, empty when absent.
func (cp *CoreProperties) Category() (string, error) { return cp.text(coreCategory) }

// SetCategory sets the category property. An empty value removes it.
func (cp *CoreProperties) SetCategory(v string) error { return cp.setText(coreCategory, v) }

// Revision returns the revision property, empty when absent.
func (cp *CoreProperties) Revision() (string, error) { return cp.text(coreRevision) }

// SetRevision sets the revision property. An empty value removes it.
func (cp *CoreProperties) SetRevision(v string) error { return cp.setText(coreRevision, v) }

// Created returns dcterms:created. ok is false when it is absent.
func (cp *CoreProperties) Created() (time.Time, bool, error) { return cp.date(coreCreated) }

// SetCreated stores t in UTC as dcterms:created.
func (cp *CoreProperties) SetCreated(t time.Time) error { return cp.setTime(coreCreated, t) }

// Modified returns dcterms:modified. ok is false when it is absent.
func (cp *CoreProperties) Modified() (time.Time, bool, error) { return cp.date(coreModified) }

// Properties is a snapshot of the text properties.
type Properties struct {
	Title          string     `json:"title,omitempty" yaml:"title,omitempty"`
	Subject        string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Creator        string     `json:"creator,omitempty" yaml:"creator,omitempty"`
	Keywords       string     `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	LastModifiedBy string     `json:"lastModifiedBy,omitempty" yaml:"lastModifiedBy,omitempty"`
	Category       string     `json:"category,omitempty" yaml:"category,omitempty"`
	Revision       string     `json:"revision,omitempty" yaml:"revision,omitempty"`
	Created        *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Modified       *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// Snapshot reads every property at once.
func (cp *CoreProperties) Snapshot() (Properties, error) {
	var p Properties
	for _, f := range []struct {
		tag string
		dst *string
	}{
		{coreTitle, &p.Title},
		{coreSubject, &p.Subject},
		{coreCreator, &p.Creator},
		{coreKeywords, &p.Keywords},
		{coreDescription, &p.Description},
		{coreLastModifiedBy, &p.LastModifiedBy},
		{coreCategory, &p.Category},
		{coreRevision, &p.Revision},
	} {
		v, err := cp.text(f.tag)
		if err != nil {
			return Properties{}, err
		}
		*f.dst = v
	}
	for _, f := range []struct {
		tag string
		dst **time.Time
	}{
		{coreCreated, &p.Created},
		{coreModified, &p.Modified},
	} {
		t, ok, err := cp.date(f.tag)
		if err != nil {
			return Properties{}, err
		}
		if ok {
			*f.dst = &t
		}
	}
	return p, nil
}
