package parts

import (
	"path"
	"strings"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
)

// ContentTypes controls [Content_Types].xml.
type ContentTypes struct {
	*Part
}

// OpenContentTypes opens the content types part, starting from the
// rels/xml defaults when the package has none.
func OpenContentTypes(reg *Registry) (*ContentTypes, error) {
	p, err := OpenPart(reg, ContentTypesPath, parseTemplate("content_types.xml"))
	if err != nil {
		return nil, err
	}
	return &ContentTypes{Part: p}, nil
}

// partName returns name in the absolute form used by Override elements.
func partName(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

// Default returns the content type registered for an extension.
// Extensions match case-insensitively.
func (c *ContentTypes) Default(ext string) (string, bool, error) {
	if err := c.check(); err != nil {
		return "", false, err
	}
	ext = strings.TrimPrefix(ext, ".")
	for _, id := range c.doc.ElementsByTag(xml.RootID, "Default") {
		e, _ := c.doc.Element(id)
		if v, _ := e.Attribute("Extension"); strings.EqualFold(v, ext) {
			ct, _ := e.Attribute("ContentType")
			return ct, true, nil
		}
	}
	return "", false, nil
}

// AddDefault registers contentType for an extension, replacing an existing
// registration.
func (c *ContentTypes) AddDefault(ext, contentType string) error {
	if err := c.check(); err != nil {
		return err
	}
	ext = strings.TrimPrefix(ext, ".")
	c.touch()
	for _, id := range c.doc.ElementsByTag(xml.RootID, "Default") {
		e, _ := c.doc.Element(id)
		if v, _ := e.Attribute("Extension"); strings.EqualFold(v, ext) {
			e.SetAttribute("ContentType", contentType)
			return nil
		}
	}
	// Defaults precede overrides.
	index := c.doc.ChildIndex(xml.RootID, "Override")
	if index < 0 {
		index = c.doc.Root().ChildCount()
	}
	e, err := c.doc.InsertChild(xml.RootID, index, "Default")
	if err != nil {
		return err
	}
	e.SetAttributes(map[string]string{"Extension": ext, "ContentType": contentType})
	return nil
}

// Override returns the content type overridden for one part.
func (c *ContentTypes) Override(name string) (string, bool, error) {
	if err := c.check(); err != nil {
		return "", false, err
	}
	e, ok := c.doc.ElementByAttribute(xml.RootID, "PartName", partName(name))
	if !ok || e.Tag() != "Override" {
		return "", false, nil
	}
	ct, _ := e.Attribute("ContentType")
	return ct, true, nil
}

// SetOverride sets the content type of one part.
func (c *ContentTypes) SetOverride(name, contentType string) error {
	if err := c.check(); err != nil {
		return err
	}
	c.touch()
	name = partName(name)
	if e, ok := c.doc.ElementByAttribute(xml.RootID, "PartName", name); ok {
		e.SetAttribute("ContentType", contentType)
		return nil
	}
	e, err := c.doc.AppendChild(xml.RootID, "Override")
	if err != nil {
		return err
	}
	e.SetAttributes(map[string]string{"PartName": name, "ContentType": contentType})
	return nil
}

// RemoveOverride drops the override of one part and reports whether there
// was one.
func (c *ContentTypes) RemoveOverride(name string) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	e, ok := c.doc.ElementByAttribute(xml.RootID, "PartName", partName(name))
	if !ok {
		return false, nil
	}
	c.touch()
	return c.doc.RemoveElement(e.ID()), nil
}

// ContentTypeOf resolves the content type of a part: its override if it
// has one, otherwise the default for its extension.
func (c *ContentTypes) ContentTypeOf(name string) (string, bool, error) {
	ct, ok, err := c.Override(name)
	if err != nil || ok {
		return ct, ok, err
	}
	ext := path.Ext(name)
	if ext == "" {
		return "", false, nil
	}
	return c.Default(ext)
}

// Overrides returns every overridden part name with its content type.
func (c *ContentTypes) Overrides() (map[string]string, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, id := range c.doc.ElementsByTag(xml.RootID, "Override") {
		e, _ := c.doc.Element(id)
		name, _ := e.Attribute("PartName")
		out[name], _ = e.Attribute("ContentType")
	}
	return out, nil
}
