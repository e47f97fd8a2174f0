// Package label attaches localized labels to presentation nodes.
//
// Label linkbases are discovered from the filing schema, parsed into flat
// (element id, role, text) records and kept in a labelcache.Store. Each node
// takes its label from the first label linkbase that lives under its
// schema's directory, preferring the node's preferred label role and
// falling back to the standard label role.
package label

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/labelcache"
	"github.com/FocuswithJustin/xbrltree/core/source"
	"github.com/FocuswithJustin/xbrltree/core/tree"
	"github.com/FocuswithJustin/xbrltree/core/xml"
	"github.com/FocuswithJustin/xbrltree/internal/logging"
)

// DefaultRole is the XBRL 2.1 standard label role.
const DefaultRole = "http://www.xbrl.org/2003/role/label"

// LabelSuffix ends the file name of every label linkbase.
const LabelSuffix = "_lab.xml"

// Discover lists the label linkbases of a filing: the remote linkbaseRef
// targets of its schema, then localLabel if the source has it.
func Discover(ctx context.Context, src source.Source, schemaLocator, localLabel string) ([]string, error) {
	doc, err := src.Fetch(ctx, schemaLocator)
	if err != nil {
		return nil, errors.Wrapf(err, "discover label linkbases from %s", schemaLocator)
	}
	refs, err := doc.Elements("linkbaseRef")
	if err != nil {
		return nil, errors.Wrapf(err, "read linkbaseRef elements of %s", schemaLocator)
	}

	var files []string
	for _, ref := range refs {
		href := ref.Attr("href")
		if strings.HasPrefix(href, "http") && strings.HasSuffix(href, LabelSuffix) {
			files = append(files, href)
		}
	}

	if localLabel != "" {
		ok, err := src.Exists(ctx, localLabel)
		if err != nil {
			return nil, errors.Wrapf(err, "check %s", localLabel)
		}
		if ok {
			files = append(files, localLabel)
		}
	}
	return files, nil
}

// Parse flattens a label linkbase. For every loc, each labelArc leaving its
// xlink:label leads to the label elements whose xlink:label is the arc's
// xlink:to; every such label yields one record, in document order.
func Parse(doc *xml.Document) ([]labelcache.Record, error) {
	locs, err := doc.Elements("loc")
	if err != nil {
		return nil, err
	}
	arcs, err := doc.Elements("labelArc")
	if err != nil {
		return nil, err
	}
	labels, err := doc.Elements("label")
	if err != nil {
		return nil, err
	}

	arcsFrom := make(map[string][]string)
	for _, a := range arcs {
		from := a.Attr("from")
		arcsFrom[from] = append(arcsFrom[from], a.Attr("to"))
	}
	labelsByID := make(map[string][]*xml.Node)
	for _, l := range labels {
		id := l.Attr("label")
		labelsByID[id] = append(labelsByID[id], l)
	}

	records := []labelcache.Record{}
	for _, loc := range locs {
		_, id := source.SplitFragment(loc.Attr("href"))
		for _, to := range arcsFrom[loc.Attr("label")] {
			for _, l := range labelsByID[to] {
				records = append(records, labelcache.Record{
					ID:   id,
					Role: l.Attr("role"),
					Text: l.Text(),
				})
			}
		}
	}
	return records, nil
}

// Resolver sets Label on the nodes of a group.
type Resolver struct {
	Source source.Source

	// Cache holds parsed label linkbases across runs. Nil disables it.
	Cache labelcache.Store

	// DefaultRole is the fallback role. Empty means DefaultRole.
	DefaultRole string
}

func (r *Resolver) cache() labelcache.Store {
	if r.Cache == nil {
		return labelcache.Nop{}
	}
	return r.Cache
}

func (r *Resolver) defaultRole() string {
	if r.DefaultRole == "" {
		return DefaultRole
	}
	return r.DefaultRole
}

// Load returns the records of the label linkbase at locator, from the
// cache when it holds them. A cache that fails to load is logged and
// bypassed; the fresh parse is written back over it.
func (r *Resolver) Load(ctx context.Context, locator string) ([]labelcache.Record, error) {
	store := r.cache()
	records, err := store.Load(ctx, locator)
	switch {
	case err == nil:
		logging.CacheEvent(ctx, "hit", locator)
		return records, nil
	case errors.Is(err, labelcache.ErrMiss):
		logging.CacheEvent(ctx, "miss", locator)
	case errors.Is(err, labelcache.ErrCorrupt):
		logging.CacheEvent(ctx, "corrupt", locator, "error", err.Error())
	default:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.WarnContext(ctx, "label cache unavailable", "locator", locator, "error", err.Error())
	}

	doc, err := r.Source.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	records, err = Parse(doc)
	if err != nil {
		return nil, &errors.ParseError{Format: "label linkbase", Path: locator, Message: err.Error(), Err: err}
	}

	if err := store.Save(ctx, locator, records); err != nil {
		logging.WarnContext(ctx, "label cache write failed", "locator", locator, "error", err.Error())
	} else {
		logging.CacheEvent(ctx, "store", locator, "records", len(records))
	}
	return records, nil
}

// index maps element id to role to text. The first record of an
// (id, role) pair wins.
type index map[string]map[string]string

func newIndex(records []labelcache.Record) index {
	idx := make(index)
	for _, rec := range records {
		roles, ok := idx[rec.ID]
		if !ok {
			roles = make(map[string]string)
			idx[rec.ID] = roles
		}
		if _, dup := roles[rec.Role]; !dup {
			roles[rec.Role] = rec.Text
		}
	}
	return idx
}

func (idx index) lookup(id, preferred, fallback string) (string, bool) {
	roles := idx[id]
	if preferred != "" {
		if text, ok := roles[preferred]; ok {
			return text, true
		}
	}
	text, ok := roles[fallback]
	return text, ok
}

// Governing returns the first of files located under the directory of
// schemaLocator. Remote schemas are governed only by remote files and
// local schemas only by local ones. A local schema without a directory
// lives in ".", which holds every relative path that does not climb out
// of it.
func Governing(schemaLocator string, files []string) (string, bool) {
	if source.IsRemote(schemaLocator) {
		prefix := source.Dir(schemaLocator) + "/"
		for _, f := range files {
			if source.IsRemote(f) && strings.HasPrefix(f, prefix) {
				return f, true
			}
		}
		return "", false
	}

	dir := filepath.Clean(filepath.Dir(schemaLocator))
	for _, f := range files {
		if !source.IsRemote(f) && underDir(dir, filepath.Clean(f)) {
			return f, true
		}
	}
	return "", false
}

func underDir(dir, path string) bool {
	sep := string(filepath.Separator)
	if dir == "." {
		return !filepath.IsAbs(path) && path != ".." && !strings.HasPrefix(path, ".."+sep)
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, sep)+sep)
}

// Resolve walks the subtree at group and sets the label of every content
// node from labelFiles. A node with no governing file stops the pass with
// a *errors.LabelError. A node whose file has no matching record is left
// without a label. Running Resolve again yields the same labels.
func (r *Resolver) Resolve(ctx context.Context, t *tree.Tree, group tree.NodeID, labelFiles []string) error {
	start := time.Now()
	loaded := make(map[string]index)
	count := 0

	cur := t.Walk(group)
	for cur.Next() {
		n := t.Node(cur.Node())
		if n.Kind != tree.KindContent {
			continue
		}
		schema := t.SchemaLocator(n.ID)
		file, ok := Governing(schema, labelFiles)
		if !ok {
			return &errors.LabelError{
				Locator:    schema,
				FragmentID: n.FragmentID,
				Reason:     "no governing label linkbase",
			}
		}

		idx, ok := loaded[file]
		if !ok {
			records, err := r.Load(ctx, file)
			if err != nil {
				return &errors.LabelError{
					Locator:    schema,
					FragmentID: n.FragmentID,
					Reason:     "load label linkbase " + file,
					Err:        err,
				}
			}
			idx = newIndex(records)
			loaded[file] = idx
		}

		n.Label, n.HasLabel = idx.lookup(n.FragmentID, n.PreferredLabel, r.defaultRole())
		count++
	}
	if err := cur.Err(); err != nil {
		return &errors.LabelError{
			Locator:    t.Node(group).Href,
			FragmentID: t.Node(group).FragmentID,
			Reason:     "walk group",
			Err:        err,
		}
	}

	args := append([]any{"label_files", len(loaded)}, source.CacheLogArgs(r.Source)...)
	logging.PassCompleted(ctx, "labels", t.Node(group).FragmentID, count, time.Since(start), args...)
	return nil
}
