// Package filing is the entry point for reading one EDINET filing: it
// builds the presentation tree and runs the classification and label
// passes over groups chosen by name.
package filing

import (
	"context"
	"time"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/label"
	"github.com/FocuswithJustin/xbrltree/core/labelcache"
	"github.com/FocuswithJustin/xbrltree/core/linkbase"
	"github.com/FocuswithJustin/xbrltree/core/schema"
	"github.com/FocuswithJustin/xbrltree/core/source"
	"github.com/FocuswithJustin/xbrltree/core/tree"
	"github.com/FocuswithJustin/xbrltree/internal/logging"
)

// Options configures the passes.
type Options struct {
	// Cache stores parsed label linkbases. Nil disables caching.
	Cache labelcache.Store

	// DefaultRole is the label role used when a node's preferred role has
	// no label. Empty means the standard label role.
	DefaultRole string
}

// Filing is a built presentation tree plus the collaborators of its passes.
type Filing struct {
	src        source.Source
	tree       *tree.Tree
	result     *linkbase.Result
	classifier *schema.Classifier
	resolver   *label.Resolver

	labelFiles []string
	discovered bool
}

// Open builds the tree of the presentation linkbase at preLocator.
func Open(ctx context.Context, src source.Source, preLocator string, opts Options) (*Filing, error) {
	start := time.Now()
	t, res, err := linkbase.Build(ctx, src, preLocator)
	if err != nil {
		args := []any{"locator", preLocator, "error", err.Error()}
		var ce *errors.ConstructionError
		if errors.As(err, &ce) {
			args = append(args, "role", ce.Role, "identifier", ce.Identifier)
		}
		logging.ErrorContext(ctx, "tree build failed", args...)
		return nil, err
	}
	logging.TreeBuilt(ctx, preLocator, len(t.Groups()), t.Len(), time.Since(start),
		source.CacheLogArgs(src)...)

	return &Filing{
		src:        src,
		tree:       t,
		result:     res,
		classifier: &schema.Classifier{Source: src},
		resolver: &label.Resolver{
			Source:      src,
			Cache:       opts.Cache,
			DefaultRole: opts.DefaultRole,
		},
	}, nil
}

// Tree returns the presentation tree.
func (f *Filing) Tree() *tree.Tree { return f.tree }

// Result returns what the builder learned about the linkbase.
func (f *Filing) Result() *linkbase.Result { return f.result }

// Groups returns the group names, e.g. "rol_BalanceSheet", in link order.
func (f *Filing) Groups() []string {
	var names []string
	for _, g := range f.tree.Groups() {
		names = append(names, f.tree.Node(g).FragmentID)
	}
	return names
}

// Classify runs the schema classification pass over the named group. An
// unknown group is a no-op.
func (f *Filing) Classify(ctx context.Context, group string) error {
	id, ok := f.tree.FindGroup(group)
	if !ok {
		logging.DebugContext(ctx, "classify skipped", "group", group)
		return nil
	}
	if err := f.classifier.Classify(ctx, f.tree, id); err != nil {
		logging.PassError(ctx, "classify", group, err)
		return err
	}
	return nil
}

// LabelFiles returns the label linkbases discovered from the filing
// schema. A successful discovery is reused by later calls.
func (f *Filing) LabelFiles(ctx context.Context) ([]string, error) {
	if f.discovered {
		return f.labelFiles, nil
	}
	files, err := label.Discover(ctx, f.src, f.result.SchemaLocator, f.result.LabelLocator)
	if err != nil {
		return nil, err
	}
	f.labelFiles, f.discovered = files, true
	return files, nil
}

// ResolveLabels runs the label pass over the named group. An unknown group
// is a no-op.
func (f *Filing) ResolveLabels(ctx context.Context, group string) error {
	id, ok := f.tree.FindGroup(group)
	if !ok {
		logging.DebugContext(ctx, "label resolution skipped", "group", group)
		return nil
	}
	files, err := f.LabelFiles(ctx)
	if err != nil {
		err = &errors.LabelError{
			Locator: f.result.SchemaLocator,
			Reason:  "discover label linkbases",
			Err:     err,
		}
		logging.PassError(ctx, "labels", group, err)
		return err
	}
	if err := f.resolver.Resolve(ctx, f.tree, id, files); err != nil {
		logging.PassError(ctx, "labels", group, err)
		return err
	}
	return nil
}

// Nodes returns the walk of the named group, or of the whole tree when
// group is empty. The first node is the group (or root) itself.
func (f *Filing) Nodes(group string) ([]tree.NodeID, error) {
	start := f.tree.Root()
	if group != "" {
		id, ok := f.tree.FindGroup(group)
		if !ok {
			return nil, errors.NewNotFound("group", group)
		}
		start = id
	}
	return f.tree.Collect(start)
}
