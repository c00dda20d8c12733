package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Parse decodes data into a Document. On error no document is returned.
func Parse(data []byte) (*Document, error) {
	data, transcoded, err := normalizeEncoding(data)
	if err != nil {
		return nil, &SyntaxError{Message: "decoding input", Err: err}
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return charsetReader(label, input, transcoded)
	}

	p := &parser{dec: dec, doc: NewDocument()}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// normalizeEncoding strips a UTF-8 byte order mark and transcodes UTF-16
// input to UTF-8. transcoded reports the latter, after which the declared
// encoding in the prolog no longer describes the bytes.
func normalizeEncoding(data []byte) (out []byte, transcoded bool, err error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], false, nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err = transform.Bytes(decoder, data)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}
	return data, false, nil
}

func charsetReader(label string, input io.Reader, transcoded bool) (io.Reader, error) {
	if transcoded && strings.HasPrefix(strings.ToLower(label), "utf-16") {
		return input, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

type parser struct {
	dec *xml.Decoder
	doc *Document
}

func (p *parser) fail(msg string, err error) error {
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		return &SyntaxError{Offset: p.dec.InputOffset(), Message: syntax.Msg}
	}
	return &SyntaxError{Offset: p.dec.InputOffset(), Message: msg, Err: err}
}

func (p *parser) next() (xml.Token, error) {
	tok, err := p.dec.RawToken()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, p.fail("tokenizing", err)
	}
	return tok, nil
}

func (p *parser) parse() error {
	seenRoot := false
	for {
		tok, err := p.next()
		if err == io.EOF {
			if !seenRoot {
				return p.fail("no root element", nil)
			}
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if seenRoot {
				return p.fail("multiple root elements", nil)
			}
			seenRoot = true
			root, err := p.doc.CreateRoot(qualifiedName(t.Name))
			if err != nil {
				return p.fail("creating root", err)
			}
			p.applyAttributes(root, t.Attr, true)
			if err := p.element(root); err != nil {
				return err
			}
		case xml.EndElement:
			return p.fail(fmt.Sprintf("unexpected end tag </%s>", qualifiedName(t.Name)), nil)
		case xml.CharData:
			if !isBlank(t) {
				return p.fail("text outside the root element", nil)
			}
		}
		// Comments, processing instructions and directives are skipped.
	}
}

// element consumes the content of e up to and including its end tag.
func (p *parser) element(e *Element) error {
	var text strings.Builder
	for {
		tok, err := p.next()
		if err == io.EOF {
			return p.fail(fmt.Sprintf("unexpected end of input inside <%s>", e.tag), io.ErrUnexpectedEOF)
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := p.doc.AppendChild(e.id, qualifiedName(t.Name))
			if err != nil {
				return p.fail("appending child", err)
			}
			p.applyAttributes(child, t.Attr, false)
			if err := p.element(child); err != nil {
				return err
			}
		case xml.EndElement:
			if name := qualifiedName(t.Name); name != e.tag {
				return p.fail(fmt.Sprintf("end tag </%s> does not match <%s>", name, e.tag), nil)
			}
			return p.finish(e, text.String())
		case xml.CharData:
			text.Write(t)
		}
	}
}

func (p *parser) finish(e *Element, text string) error {
	if len(e.children) > 0 {
		if !isBlank([]byte(text)) {
			return p.fail(fmt.Sprintf("mixed content in <%s>", e.tag), nil)
		}
		return nil
	}
	if isBlank([]byte(text)) && !preservesSpace(e) {
		return nil
	}
	e.value = text
	return nil
}

// applyAttributes copies attrs onto e. Namespace declarations go to the
// document table: always on the root, and on descendants when the prefix
// is not yet bound. A conflicting rebinding on a descendant is kept as an
// ordinary attribute.
func (p *parser) applyAttributes(e *Element, attrs []xml.Attr, root bool) {
	for _, attr := range attrs {
		prefix, isDecl := declaredPrefix(attr.Name)
		if isDecl {
			bound, ok := p.doc.ns.Lookup(prefix)
			switch {
			case root || !ok:
				p.doc.ns.Set(prefix, attr.Value)
				continue
			case bound == attr.Value:
				continue
			}
		}
		e.SetAttribute(qualifiedName(attr.Name), attr.Value)
	}
}

func declaredPrefix(name xml.Name) (string, bool) {
	switch {
	case name.Space == "" && name.Local == xmlnsPrefix:
		return "", true
	case name.Space == xmlnsPrefix:
		return name.Local, true
	}
	return "", false
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func preservesSpace(e *Element) bool {
	v, ok := e.attrs["xml:space"]
	return ok && v == "preserve"
}

func isBlank(b []byte) bool {
	return len(bytes.TrimLeft(b, " \t\r\n")) == 0
}
