// Package xml wraps xmlquery with the small query surface the linkbase,
// schema and label readers need.
//
// Security Notes:
//   - xmlquery parses with Go's encoding/xml, which never fetches external
//     entities, so XBRL documents from untrusted filings are safe to load.
//
// Element names in XBRL documents are prefixed (link:loc, xsd:element) and the
// prefixes vary between publishers, so queries match on local-name() and
// attributes are looked up by local name.
package xml

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML node (element, text, attribute, etc.).
type Node struct {
	node *xmlquery.Node
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader parses XML from r and returns a Document.
func ParseReader(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Elements returns every element in the document whose local name is local,
// in document order.
func (d *Document) Elements(local string) ([]*Node, error) {
	return queryAll(d.root, "//*[local-name()="+literal(local)+"]")
}

func queryAll(n *xmlquery.Node, expr string) ([]*Node, error) {
	if n == nil {
		return nil, nil
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	nodes := xmlquery.QuerySelectorAll(n, compiled)
	result := make([]*Node, len(nodes))
	for i, m := range nodes {
		result[i] = &Node{node: m}
	}
	return result, nil
}

// literal quotes s as an XPath string literal. XPath 1.0 has no escape
// sequences, so a value holding both quote kinds is spliced with concat().
func literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}

// Text returns the text content of the node and its descendants.
func (n *Node) Text() string {
	if n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Elements returns descendant elements of n whose local name is local.
func (n *Node) Elements(local string) ([]*Node, error) {
	return queryAll(n.node, ".//*[local-name()="+literal(local)+"]")
}

// Attr returns the value of the attribute whose local name is local,
// ignoring its prefix. Missing attributes yield "".
func (n *Node) Attr(local string) string {
	v, _ := n.LookupAttr(local)
	return v
}

// LookupAttr is Attr with a presence flag.
func (n *Node) LookupAttr(local string) (string, bool) {
	if n.node == nil {
		return "", false
	}
	for _, attr := range n.node.Attr {
		if attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}
