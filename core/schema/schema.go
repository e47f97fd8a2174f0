// Package schema classifies presentation nodes from their element
// definitions in the taxonomy schemas.
package schema

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/source"
	"github.com/FocuswithJustin/xbrltree/core/tree"
	"github.com/FocuswithJustin/xbrltree/core/xml"
	"github.com/FocuswithJustin/xbrltree/internal/logging"
)

// Attributes are the declared attributes of one xsd:element, with QName
// prefixes stripped.
type Attributes struct {
	Name              string
	Type              string
	SubstitutionGroup string
	Abstract          string
}

// ReadAttributes extracts Attributes from an element definition. An absent
// abstract attribute reads as "false".
func ReadAttributes(el *xml.Node) Attributes {
	a := Attributes{
		Name:              localPart(el.Attr("name")),
		Type:              localPart(el.Attr("type")),
		SubstitutionGroup: localPart(el.Attr("substitutionGroup")),
		Abstract:          "false",
	}
	if v, ok := el.LookupAttr("abstract"); ok {
		a.Abstract = localPart(v)
	}
	return a
}

func localPart(qname string) string {
	if i := strings.LastIndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

// rule is one row of the usage table. Empty fields match anything.
type rule struct {
	nameContains string
	types        []string
	subst        string
	abstract     string
	usage        tree.Usage
}

var numericTypes = []string{
	"monetaryItemType",
	"perShareItemType",
	"sharesItemType",
	"percentItemType",
	"decimalItemType",
	"nonNegativeIntegerItemType",
}

// rules are tried top to bottom.
var rules = []rule{
	{"Heading", []string{"stringItemType"}, "identifierItem", "true", tree.UsageHeading},
	{"Abstract", []string{"stringItemType"}, "item", "true", tree.UsageTitle},
	{"Table", []string{"stringItemType"}, "hypercubeItem", "true", tree.UsageTable},
	{"Axis", []string{"stringItemType"}, "dimensionItem", "true", tree.UsageAxis},
	{"Member", []string{"domainItemType"}, "item", "true", tree.UsageMember},
	{"LineItems", []string{"stringItemType"}, "item", "true", tree.UsageLineItems},
	{"", numericTypes, "", "false", tree.UsageNumber},
	{"", []string{"dateItemType"}, "", "false", tree.UsageDate},
	{"TextBlock", []string{"textBlockItemType"}, "", "false", tree.UsageTextBlock},
	{"", []string{"stringItemType"}, "item", "false", tree.UsageText},
	{"", []string{"stringItemType"}, "item", "true", tree.UsageTitle},
}

func (r rule) matches(a Attributes) bool {
	return (r.nameContains == "" || strings.Contains(a.Name, r.nameContains)) &&
		slices.Contains(r.types, a.Type) &&
		(r.subst == "" || r.subst == a.SubstitutionGroup) &&
		r.abstract == a.Abstract
}

// Match returns the usage of the first table row a satisfies.
func Match(a Attributes) (tree.Usage, bool) {
	for _, r := range rules {
		if r.matches(a) {
			return r.usage, true
		}
	}
	return tree.UsageNone, false
}

// Classifier sets Name and Usage on the nodes of a group.
type Classifier struct {
	Source source.Source
}

// schemaDoc indexes one schema's element definitions by id.
type schemaDoc struct {
	byID map[string]*xml.Node
}

func loadSchema(doc *xml.Document) (*schemaDoc, error) {
	elements, err := doc.Elements("element")
	if err != nil {
		return nil, err
	}
	s := &schemaDoc{byID: make(map[string]*xml.Node, len(elements))}
	for _, el := range elements {
		if id := el.Attr("id"); id != "" {
			if _, dup := s.byID[id]; !dup {
				s.byID[id] = el
			}
		}
	}
	return s, nil
}

// Classify walks the subtree at group and classifies every content node.
// The first node that cannot be classified stops the pass with a
// *errors.ClassificationError; nodes already visited keep their values.
// Running Classify again yields the same values.
func (c *Classifier) Classify(ctx context.Context, t *tree.Tree, group tree.NodeID) error {
	start := time.Now()
	schemas := make(map[string]*schemaDoc)
	count := 0

	cur := t.Walk(group)
	for cur.Next() {
		n := t.Node(cur.Node())
		if n.Kind != tree.KindContent {
			continue
		}
		if err := c.classifyNode(ctx, t, n, schemas); err != nil {
			return err
		}
		count++
	}
	if err := cur.Err(); err != nil {
		return &errors.ClassificationError{
			Locator:    t.Node(group).Href,
			FragmentID: t.Node(group).FragmentID,
			Reason:     "walk group",
			Err:        err,
		}
	}

	args := append([]any{"schemas", len(schemas)}, source.CacheLogArgs(c.Source)...)
	logging.PassCompleted(ctx, "classify", t.Node(group).FragmentID, count, time.Since(start), args...)
	return nil
}

func (c *Classifier) classifyNode(ctx context.Context, t *tree.Tree, n *tree.Node, schemas map[string]*schemaDoc) error {
	locator := t.SchemaLocator(n.ID)
	s, ok := schemas[locator]
	if !ok {
		doc, err := c.Source.Fetch(ctx, locator)
		if err != nil {
			return &errors.ClassificationError{
				Locator:    locator,
				FragmentID: n.FragmentID,
				Reason:     "schema document not available",
				Err:        err,
			}
		}
		if s, err = loadSchema(doc); err != nil {
			return &errors.ClassificationError{
				Locator:    locator,
				FragmentID: n.FragmentID,
				Reason:     "read schema elements",
				Err:        err,
			}
		}
		schemas[locator] = s
	}

	el, ok := s.byID[n.FragmentID]
	if !ok {
		return &errors.ClassificationError{
			Locator:    locator,
			FragmentID: n.FragmentID,
			Reason:     "no element definition",
		}
	}

	a := ReadAttributes(el)
	n.Name = a.Name
	usage, ok := Match(a)
	if !ok {
		return &errors.ClassificationError{
			Locator:           locator,
			FragmentID:        n.FragmentID,
			Name:              a.Name,
			Type:              a.Type,
			SubstitutionGroup: a.SubstitutionGroup,
			Abstract:          a.Abstract,
			Reason:            "no usage for attribute combination",
		}
	}
	n.Usage = usage
	return nil
}
