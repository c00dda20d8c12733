package xml

import "sort"

// Well-known bindings that never need declaring.
const (
	xmlPrefix   = "xml"
	xmlURI      = "http://www.w3.org/XML/1998/namespace"
	xmlnsPrefix = "xmlns"
)

// Namespace is one prefix binding. An empty Prefix is the default
// namespace.
type Namespace struct {
	Prefix string `cbor:"1,keyasint"`
	URI    string `cbor:"2,keyasint"`
}

// Namespaces is the prefix table of a document.
type Namespaces struct {
	bindings map[string]string
}

func newNamespaces() *Namespaces {
	return &Namespaces{bindings: make(map[string]string)}
}

// Set binds prefix to uri, replacing an earlier binding.
func (n *Namespaces) Set(prefix, uri string) {
	n.bindings[prefix] = uri
}

// Remove drops the binding for prefix.
func (n *Namespaces) Remove(prefix string) {
	delete(n.bindings, prefix)
}

// Lookup returns the uri for prefix. The xml prefix is always bound.
func (n *Namespaces) Lookup(prefix string) (string, bool) {
	if prefix == xmlPrefix {
		return xmlURI, true
	}
	uri, ok := n.bindings[prefix]
	return uri, ok
}

// PrefixOf returns a prefix bound to uri. The default namespace wins over
// named prefixes, after which the smallest prefix is chosen.
func (n *Namespaces) PrefixOf(uri string) (string, bool) {
	for _, ns := range n.List() {
		if ns.URI == uri {
			return ns.Prefix, true
		}
	}
	return "", false
}

// Len returns the number of bindings.
func (n *Namespaces) Len() int { return len(n.bindings) }

// List returns the bindings in declaration order: the default namespace
// first, then by prefix.
func (n *Namespaces) List() []Namespace {
	out := make([]Namespace, 0, len(n.bindings))
	for prefix, uri := range n.bindings {
		out = append(out, Namespace{Prefix: prefix, URI: uri})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

// declAttr returns the attribute name that declares prefix.
func declAttr(prefix string) string {
	if prefix == "" {
		return xmlnsPrefix
	}
	return xmlnsPrefix + ":" + prefix
}
