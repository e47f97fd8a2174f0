package schema

import (
	"context"
	"testing"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/source"
	"github.com/FocuswithJustin/xbrltree/core/tree"
	"github.com/FocuswithJustin/xbrltree/core/xml"
)

const corLocator = "http://example.com/taxonomy/jppfs_cor.xsd"

const corSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xsd:schema xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xbrli="http://www.xbrl.org/2003/instance"
    xmlns:xbrldt="http://xbrl.org/2005/xbrldt" xmlns:nonnum="http://www.xbrl.org/dtr/type/non-numeric">
  <xsd:element id="jppfs_cor_BalanceSheetHeading" name="BalanceSheetHeading" type="xbrli:stringItemType" substitutionGroup="jppfs_cor:identifierItem" abstract="true"/>
  <xsd:element id="jppfs_cor_AssetsAbstract" name="AssetsAbstract" type="xbrli:stringItemType" substitutionGroup="xbrli:item" abstract="true"/>
  <xsd:element id="jppfs_cor_Assets" name="Assets" type="xbrli:monetaryItemType" substitutionGroup="xbrli:item"/>
  <xsd:element id="jppfs_cor_FilingDate" name="FilingDate" type="xbrli:dateItemType" substitutionGroup="xbrli:item" abstract="false"/>
  <xsd:element id="jppfs_cor_Mystery" name="Mystery" type="xbrli:booleanItemType" substitutionGroup="xbrli:item" abstract="false"/>
</xsd:schema>`

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		a    Attributes
		want tree.Usage
	}{
		{"heading", Attributes{"BalanceSheetHeading", "stringItemType", "identifierItem", "true"}, tree.UsageHeading},
		{"abstract title", Attributes{"AssetsAbstract", "stringItemType", "item", "true"}, tree.UsageTitle},
		{"table", Attributes{"SegmentTable", "stringItemType", "hypercubeItem", "true"}, tree.UsageTable},
		{"axis", Attributes{"SegmentsAxis", "stringItemType", "dimensionItem", "true"}, tree.UsageAxis},
		{"member", Attributes{"ReportableSegmentsMember", "domainItemType", "item", "true"}, tree.UsageMember},
		{"line items", Attributes{"SegmentLineItems", "stringItemType", "item", "true"}, tree.UsageLineItems},
		{"monetary", Attributes{"Assets", "monetaryItemType", "item", "false"}, tree.UsageNumber},
		{"per share", Attributes{"EPS", "perShareItemType", "item", "false"}, tree.UsageNumber},
		{"shares", Attributes{"Shares", "sharesItemType", "item", "false"}, tree.UsageNumber},
		{"percent", Attributes{"Ratio", "percentItemType", "item", "false"}, tree.UsageNumber},
		{"decimal", Attributes{"Rate", "decimalItemType", "item", "false"}, tree.UsageNumber},
		{"count", Attributes{"Employees", "nonNegativeIntegerItemType", "item", "false"}, tree.UsageNumber},
		{"date", Attributes{"FilingDate", "dateItemType", "item", "false"}, tree.UsageDate},
		{"text block", Attributes{"NotesTextBlock", "textBlockItemType", "item", "false"}, tree.UsageTextBlock},
		{"text", Attributes{"CompanyName", "stringItemType", "item", "false"}, tree.UsageText},
		{"untagged abstract string", Attributes{"SomethingElse", "stringItemType", "item", "true"}, tree.UsageTitle},
		{"heading first", Attributes{"AbstractHeading", "stringItemType", "identifierItem", "true"}, tree.UsageHeading},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.a)
			if !ok || got != tt.want {
				t.Errorf("Match(%+v) = %v, %v, want %v", tt.a, got, ok, tt.want)
			}
		})
	}
}

func TestMatchRejectsUnknownCombinations(t *testing.T) {
	for _, a := range []Attributes{
		{"Flag", "booleanItemType", "item", "false"},
		{"Assets", "monetaryItemType", "item", "true"},
		{"Notes", "textBlockItemType", "item", "false"},
		{"Member", "domainItemType", "item", "false"},
	} {
		if got, ok := Match(a); ok {
			t.Errorf("Match(%+v) = %v, want no match", a, got)
		}
	}
}

func TestReadAttributes(t *testing.T) {
	doc, err := xml.Parse([]byte(corSchema))
	if err != nil {
		t.Fatal(err)
	}
	idx, err := loadSchema(doc)
	if err != nil {
		t.Fatalf("loadSchema: %v", err)
	}
	el, ok := idx.byID["jppfs_cor_Assets"]
	if !ok {
		t.Fatal("schema index is missing jppfs_cor_Assets")
	}
	want := Attributes{"Assets", "monetaryItemType", "item", "false"}
	if got := ReadAttributes(el); got != want {
		t.Errorf("ReadAttributes = %+v, want %+v", got, want)
	}
}

// fixture builds root -> group -> heading -> [abstract -> assets].
func fixture() (*tree.Tree, tree.NodeID, map[string]tree.NodeID) {
	tr := tree.New()
	group := tr.NewNode("http://example.com/role/BS", tree.KindGroup)
	tr.SetHref(group, "x.xsd#rol_BalanceSheet")
	tr.AppendChild(tr.Root(), group, tree.At(1))
	tr.SetParent(group, tr.Root())

	ids := map[string]tree.NodeID{}
	add := func(parent tree.NodeID, frag string, order float64) tree.NodeID {
		id := tr.NewNode(frag, tree.KindContent)
		tr.SetHref(id, corLocator+"#"+frag)
		tr.AppendChild(parent, id, tree.At(order))
		tr.SetParent(id, parent)
		ids[frag] = id
		return id
	}
	h := add(group, "jppfs_cor_BalanceSheetHeading", 1)
	abs := add(h, "jppfs_cor_AssetsAbstract", 1)
	add(abs, "jppfs_cor_Assets", 1)
	return tr, group, ids
}

func TestClassifierClassify(t *testing.T) {
	ctx := context.Background()
	src := source.NewMemory(map[string]string{corLocator: corSchema})
	c := &Classifier{Source: src}
	tr, group, ids := fixture()

	if err := c.Classify(ctx, tr, group); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	want := map[string]struct {
		name  string
		usage tree.Usage
	}{
		"jppfs_cor_BalanceSheetHeading": {"BalanceSheetHeading", tree.UsageHeading},
		"jppfs_cor_AssetsAbstract":      {"AssetsAbstract", tree.UsageTitle},
		"jppfs_cor_Assets":              {"Assets", tree.UsageNumber},
	}
	for frag, w := range want {
		n := tr.Node(ids[frag])
		if n.Name != w.name || n.Usage != w.usage {
			t.Errorf("%s: name %q usage %v, want %q %v", frag, n.Name, n.Usage, w.name, w.usage)
		}
	}
	if g := tr.Node(group); g.Usage != tree.UsageNone || g.Name != "" {
		t.Errorf("group node was classified: %+v", g)
	}
	if n := src.Fetches(corLocator); n != 1 {
		t.Errorf("schema fetched %d times, want 1", n)
	}

	// A second pass leaves the same values.
	if err := c.Classify(ctx, tr, group); err != nil {
		t.Fatalf("second Classify: %v", err)
	}
	for frag, w := range want {
		if n := tr.Node(ids[frag]); n.Usage != w.usage {
			t.Errorf("%s changed to %v on second pass", frag, n.Usage)
		}
	}
}

func TestClassifierErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unmatched combination", func(t *testing.T) {
		tr, group, ids := fixture()
		mystery := tr.NewNode("mystery", tree.KindContent)
		tr.SetHref(mystery, corLocator+"#jppfs_cor_Mystery")
		tr.AppendChild(ids["jppfs_cor_AssetsAbstract"], mystery, tree.At(2))

		c := &Classifier{Source: source.NewMemory(map[string]string{corLocator: corSchema})}
		err := c.Classify(ctx, tr, group)
		var ce *errors.ClassificationError
		if !errors.As(err, &ce) {
			t.Fatalf("Classify = %v, want ClassificationError", err)
		}
		if ce.Type != "booleanItemType" || ce.FragmentID != "jppfs_cor_Mystery" || ce.Locator != corLocator {
			t.Errorf("error context = %+v", ce)
		}
		if tr.Node(mystery).Name != "Mystery" {
			t.Errorf("name not set on error path: %q", tr.Node(mystery).Name)
		}
		if tr.Node(ids["jppfs_cor_Assets"]).Usage != tree.UsageNumber {
			t.Error("earlier nodes lost their usage")
		}
	})

	t.Run("missing element", func(t *testing.T) {
		tr, group, ids := fixture()
		tr.SetHref(ids["jppfs_cor_Assets"], corLocator+"#jppfs_cor_Liabilities")
		c := &Classifier{Source: source.NewMemory(map[string]string{corLocator: corSchema})}
		err := c.Classify(ctx, tr, group)
		if !errors.Is(err, errors.ErrClassification) {
			t.Errorf("Classify = %v, want ErrClassification", err)
		}
	})

	t.Run("missing schema", func(t *testing.T) {
		tr, group, _ := fixture()
		c := &Classifier{Source: source.NewMemory(nil)}
		err := c.Classify(ctx, tr, group)
		if !errors.Is(err, errors.ErrClassification) || !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("Classify = %v, want classification and not-found", err)
		}
	})
}
