// Package xml provides the normalized tree used to edit individual package
// parts.
//
// A Document is an arena of Elements addressed by integer id. The root is
// always id 0 and ids are handed out from a monotonic counter, so an id is
// never reused within a document even after elements are removed. Each
// Element keeps an ordered list of child references (id and tag), which is
// the document order, and either a text value or children, never both.
//
// # Namespaces
//
// Namespace declarations live in one table owned by the Document and are
// written on the root element only. The parser hoists declarations found on
// descendants into that table when their prefix is still free.
//
// # Parsing and serializing
//
// Parse builds a Document from a byte buffer using a streaming tokenizer
// and recursive descent. Serialize writes the canonical form:
//
//   - an XML declaration with standalone="yes"
//   - namespace declarations on the root, default first, then by prefix
//   - attributes in lexicographic order
//   - self-closing tags for elements with neither value nor children
//
// Values and attributes are held unescaped in the tree and escaped on
// output, so parse(serialize(doc)) reproduces doc for any document this
// package produced.
//
// # Popping
//
// PopElement and PopElementsByTag take elements out of the live tree. The
// popped element's descendants remain reachable through PopElement by id,
// which lets callers drain a subtree one level at a time:
//
//	for _, si := range doc.PopElementsByTag(0, "si") {
//	    for _, ref := range si.Children() {
//	        t, _ := doc.PopElement(ref.ID)
//	        fmt.Println(t.Value())
//	    }
//	}
package xml
