// Package linkbase builds the presentation tree of a filing from its
// presentation linkbase (*_pre.xml).
//
// Each presentationLink becomes a group under the tree root. Arcs inside a
// link are materialized as content nodes, one per xlink:label, and linked
// parent to child. Nodes left without a parent are then reattached: the one
// whose fragment contains "Heading" goes directly under the group, and every
// other one replaces the placeholder that shares its fragment somewhere
// below the heading.
package linkbase

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/source"
	"github.com/FocuswithJustin/xbrltree/core/tree"
	"github.com/FocuswithJustin/xbrltree/core/xml"
)

// HeadingMarker identifies the heading node of a presentation link by its
// fragment identifier.
const HeadingMarker = "Heading"

// DefaultOrder is the XBRL 2.1 value of an arc without an order attribute.
const DefaultOrder = 1.0

// Result describes the linkbase a tree was built from.
type Result struct {
	Locator string
	Dir     string

	// Roles holds the fragment of every roleRef href in document order,
	// e.g. "rol_BalanceSheet".
	Roles []string

	// SchemaLocator and LabelLocator are the filing's own X.xsd and
	// X_lab.xml next to X_pre.xml. Neither is checked for existence.
	SchemaLocator string
	LabelLocator  string
}

// Siblings derives the schema and label locators that accompany a
// presentation linkbase.
func Siblings(preLocator string) (schema, label string) {
	dir := source.Dir(preLocator)
	base := strings.TrimSuffix(source.Base(preLocator), "_pre.xml")
	return source.Join(dir, base+".xsd"), source.Join(dir, base+"_lab.xml")
}

// Build fetches the presentation linkbase at locator and builds its tree.
// Any error is a *errors.ConstructionError and no tree is returned.
func Build(ctx context.Context, src source.Source, locator string) (*tree.Tree, *Result, error) {
	doc, err := src.Fetch(ctx, locator)
	if err != nil {
		return nil, nil, &errors.ConstructionError{
			Locator: locator,
			Reason:  "read presentation linkbase",
			Err:     err,
		}
	}
	return FromDocument(ctx, doc, locator)
}

// FromDocument builds the tree of an already parsed linkbase. locator is
// used to resolve relative hrefs.
func FromDocument(ctx context.Context, doc *xml.Document, locator string) (*tree.Tree, *Result, error) {
	b := &builder{
		t:       tree.New(),
		locator: locator,
		dir:     source.Dir(locator),
	}
	schema, label := Siblings(locator)
	res := &Result{
		Locator:       locator,
		Dir:           b.dir,
		SchemaLocator: schema,
		LabelLocator:  label,
	}

	if err := b.readRoleRefs(doc); err != nil {
		return nil, nil, err
	}
	for _, r := range b.roleRefs {
		_, role := source.SplitFragment(r.href)
		res.Roles = append(res.Roles, role)
	}

	docLocs, err := readLocs(doc.Elements)
	if err != nil {
		return nil, nil, b.fail("", "read loc elements", "", err)
	}
	b.docLocs = docLocs

	links, err := doc.Elements("presentationLink")
	if err != nil {
		return nil, nil, b.fail("", "read presentation links", "", err)
	}
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, nil, b.fail("", "build cancelled", "", err)
		}
		if err := b.buildLink(link, i+1); err != nil {
			return nil, nil, err
		}
	}

	b.t.CascadePreferredLabels()
	return b.t, res, nil
}

type roleRef struct {
	uri  string
	href string
}

type builder struct {
	t        *tree.Tree
	locator  string
	dir      string
	roleRefs []roleRef
	docLocs  map[string]string
}

func (b *builder) fail(role, reason, identifier string, err error) error {
	return &errors.ConstructionError{
		Locator:    b.locator,
		Role:       role,
		Identifier: identifier,
		Reason:     reason,
		Err:        err,
	}
}

func (b *builder) readRoleRefs(doc *xml.Document) error {
	refs, err := doc.Elements("roleRef")
	if err != nil {
		return b.fail("", "read roleRef elements", "", err)
	}
	for _, r := range refs {
		b.roleRefs = append(b.roleRefs, roleRef{uri: r.Attr("roleURI"), href: r.Attr("href")})
	}
	return nil
}

// readLocs maps xlink:label to xlink:href. The first loc of a label wins.
func readLocs(elements func(string) ([]*xml.Node, error)) (map[string]string, error) {
	locs, err := elements("loc")
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(locs))
	for _, l := range locs {
		label := l.Attr("label")
		if _, dup := m[label]; !dup {
			m[label] = l.Attr("href")
		}
	}
	return m, nil
}

func (b *builder) buildLink(link *xml.Node, position int) error {
	t := b.t
	role := link.Attr("role")

	group := t.NewNode(role, tree.KindGroup)
	for _, r := range b.roleRefs {
		if r.uri == role {
			t.SetHref(group, r.href)
			break
		}
	}
	t.AppendChild(t.Root(), group, tree.At(float64(position)))
	t.SetParent(group, t.Root())

	// Step 1 and 2: materialize and link arc endpoints.
	arcs, err := link.Elements("presentationArc")
	if err != nil {
		return b.fail(role, "read presentation arcs", "", err)
	}
	nodes := make(map[string]tree.NodeID)
	var created []tree.NodeID
	get := func(label string) tree.NodeID {
		if id, ok := nodes[label]; ok {
			return id
		}
		id := t.NewNode(label, tree.KindContent)
		nodes[label] = id
		created = append(created, id)
		return id
	}

	for _, arc := range arcs {
		from, to := arc.Attr("from"), arc.Attr("to")
		if from == "" || to == "" {
			return b.fail(role, "arc without endpoint", from+" -> "+to, nil)
		}
		order, err := parseOrder(arc)
		if err != nil {
			return b.fail(role, "malformed order", to, err)
		}
		parent, child := get(from), get(to)
		t.AppendChild(parent, child, order)
		t.SetParent(child, parent)
		if pl, ok := arc.LookupAttr("preferredLabel"); ok && pl != "" {
			t.Node(child).PreferredLabel = pl
		}
	}

	// Step 3: locators.
	locs, err := readLocs(link.Elements)
	if err != nil {
		return b.fail(role, "read loc elements", "", err)
	}
	for _, id := range created {
		label := t.Node(id).LinkbaseLabel
		href, ok := locs[label]
		if !ok {
			href, ok = b.docLocs[label]
		}
		if !ok {
			continue
		}
		if !strings.HasPrefix(href, "http") {
			href = source.Join(b.dir, href)
		}
		t.SetHref(id, href)
	}

	// Step 4: heading.
	var orphans []tree.NodeID
	for _, id := range created {
		if t.Node(id).Parent == tree.None {
			orphans = append(orphans, id)
		}
	}
	hi := slices.IndexFunc(orphans, func(id tree.NodeID) bool {
		return strings.Contains(t.Node(id).FragmentID, HeadingMarker)
	})
	if hi < 0 {
		return b.fail(role, "no heading node", "", nil)
	}
	heading := orphans[hi]
	orphans = slices.Delete(orphans, hi, hi+1)
	t.AppendChild(group, heading, tree.At(DefaultOrder))
	t.SetParent(heading, group)

	// Step 5 and 6: reattach orphans one match per round.
	for len(orphans) > 0 {
		matched := false
		for i, o := range orphans {
			holder, index, ok := findSlot(t, heading, t.Node(o).FragmentID)
			if !ok {
				continue
			}
			slot := t.Node(t.Node(holder).Children[index])
			on := t.Node(o)
			on.Order = slot.Order
			on.PreferredLabel = slot.PreferredLabel
			if err := t.ReplaceChild(holder, index, o); err != nil {
				return b.fail(role, "reattach orphan", on.LinkbaseLabel, err)
			}
			t.SetParent(o, holder)
			orphans = slices.Delete(orphans, i, i+1)
			matched = true
			break
		}
		if !matched {
			return b.fail(role, "orphan not reachable from heading", t.Node(orphans[0]).LinkbaseLabel, nil)
		}
	}

	if _, err := t.Collect(group); err != nil {
		return b.fail(role, "invalid subtree", "", err)
	}
	return nil
}

// parseOrder reads the arc's order attribute.
func parseOrder(arc *xml.Node) (tree.Order, error) {
	s, ok := arc.LookupAttr("order")
	if !ok {
		return tree.At(DefaultOrder), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return tree.NoOrder, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return tree.NoOrder, fmt.Errorf("order %q is not finite", s)
	}
	return tree.At(v), nil
}

// findSlot searches depth-first from start, checking a node's own children
// before descending, for a child whose fragment is frag. It returns the
// holder and the child's index.
func findSlot(t *tree.Tree, start tree.NodeID, frag string) (tree.NodeID, int, bool) {
	visited := make(map[tree.NodeID]bool)
	stack := []tree.NodeID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		children := t.Node(id).Children
		for i, c := range children {
			if t.Node(c).FragmentID == frag {
				return id, i, true
			}
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return tree.None, -1, false
}
