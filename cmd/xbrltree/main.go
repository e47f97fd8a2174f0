// Command xbrltree prints the presentation tree of an EDINET XBRL filing
// with each node's usage and localized label.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/xbrltree/core/filing"
	"github.com/FocuswithJustin/xbrltree/core/labelcache"
	"github.com/FocuswithJustin/xbrltree/core/source"
	"github.com/FocuswithJustin/xbrltree/core/sqlite"
	"github.com/FocuswithJustin/xbrltree/core/tree"
	"github.com/FocuswithJustin/xbrltree/internal/config"
	"github.com/FocuswithJustin/xbrltree/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for xbrltree.
type CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"Configuration file" default:"xbrltree.yaml" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error); overrides the config file"`
	LogFormat string `name:"log-format" help:"Log format (text, json); overrides the config file"`

	Groups  GroupsCmd  `cmd:"" help:"List the presentation groups of a filing"`
	Show    ShowCmd    `cmd:"" help:"Print a group as an indented tree"`
	Nodes   NodesCmd   `cmd:"" help:"List the nodes of a group in walk order"`
	Cache   CacheGroup `cmd:"" help:"Label cache maintenance"`
	Init    InitCmd    `cmd:"" help:"Write a default configuration file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// CacheGroup contains label cache operations.
type CacheGroup struct {
	Clear CacheClearCmd `cmd:"" help:"Remove every cached label linkbase"`
}

// env is what every command runs against.
type env struct {
	ctx        context.Context
	out        io.Writer
	cfg        *config.Config
	configPath string
}

func (e *env) source() source.Source {
	var remote source.Source
	if e.cfg.Source.AllowNetwork {
		remote = source.NewHTTP(e.cfg.Source.Timeout)
	}
	var src source.Source = &source.Router{
		Files:  &source.Files{Mirror: e.cfg.Source.MirrorDir},
		Remote: remote,
	}
	if size := e.cfg.Source.DocumentCacheSize; size > 0 {
		src = source.NewCached(src, size)
	}
	return src
}

// open builds the filing at pre. The returned close func releases the
// label cache.
func (e *env) open(pre string) (*filing.Filing, func(), error) {
	store, err := labelcache.Open(e.ctx, e.cfg.CacheOptions())
	if err != nil {
		return nil, nil, err
	}
	f, err := filing.Open(e.ctx, e.source(), pre, filing.Options{
		Cache:       store,
		DefaultRole: e.cfg.Labels.DefaultRole,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return f, func() { store.Close() }, nil
}

// GroupsCmd lists group names and role URIs.
type GroupsCmd struct {
	Pre string `arg:"" help:"Presentation linkbase (*_pre.xml) path or URL"`
}

func (c *GroupsCmd) Run(e *env) error {
	f, done, err := e.open(c.Pre)
	if err != nil {
		return err
	}
	defer done()

	for _, id := range f.Tree().Groups() {
		n := f.Tree().Node(id)
		fmt.Fprintf(e.out, "%s\t%s\n", n.FragmentID, n.LinkbaseLabel)
	}
	return nil
}

// PassOptions selects which passes run before printing.
type PassOptions struct {
	NoClassify bool `name:"no-classify" help:"Skip schema classification"`
	NoLabels   bool `name:"no-labels" help:"Skip label resolution"`
}

func (p PassOptions) run(e *env, f *filing.Filing, group string) error {
	groups := []string{group}
	if group == "" {
		groups = f.Groups()
	}
	for _, g := range groups {
		if !p.NoClassify {
			if err := f.Classify(e.ctx, g); err != nil {
				return err
			}
		}
		if !p.NoLabels {
			if err := f.ResolveLabels(e.ctx, g); err != nil {
				return err
			}
		}
	}
	return nil
}

// ShowCmd prints one line per node, indented by depth:
// (usage)fragment(label)  : preferred-role
type ShowCmd struct {
	Pre    string      `arg:"" help:"Presentation linkbase (*_pre.xml) path or URL"`
	Group  string      `arg:"" optional:"" help:"Group name such as rol_BalanceSheet; the whole tree when omitted"`
	Passes PassOptions `embed:""`
}

func (c *ShowCmd) Run(e *env) error {
	f, done, err := e.open(c.Pre)
	if err != nil {
		return err
	}
	defer done()

	start := f.Tree().Root()
	if c.Group != "" {
		id, ok := f.Tree().FindGroup(c.Group)
		if !ok {
			return fmt.Errorf("unknown group %q (see 'xbrltree groups %s')", c.Group, c.Pre)
		}
		start = id
	}
	if err := c.Passes.run(e, f, c.Group); err != nil {
		return err
	}

	t := f.Tree()
	cur := t.Walk(start)
	for cur.Next() {
		fmt.Fprintln(e.out, formatLine(t.Node(cur.Node()), cur.Depth()))
	}
	return cur.Err()
}

func formatLine(n *tree.Node, depth int) string {
	label := "None"
	if n.HasLabel {
		label = n.Label
	}
	preferred := "None"
	if n.PreferredLabel != "" {
		preferred = n.PreferredLabel
	}
	return fmt.Sprintf("%s(%s)%s(%s)  : %s",
		strings.Repeat("     ", depth), n.Usage, n.FragmentID, label, preferred)
}

// NodesCmd lists nodes as tab-separated rows or JSON lines.
type NodesCmd struct {
	Pre    string      `arg:"" help:"Presentation linkbase (*_pre.xml) path or URL"`
	Group  string      `arg:"" optional:"" help:"Group name; the whole tree when omitted"`
	JSON   bool        `name:"json" help:"Emit one JSON object per line"`
	Passes PassOptions `embed:""`
}

// nodeRow is the JSON form of one node.
type nodeRow struct {
	Kind           string   `json:"kind"`
	Fragment       string   `json:"fragment"`
	Href           string   `json:"href,omitempty"`
	Order          *float64 `json:"order,omitempty"`
	PreferredLabel string   `json:"preferred_label,omitempty"`
	Usage          string   `json:"usage,omitempty"`
	Name           string   `json:"name,omitempty"`
	Label          *string  `json:"label,omitempty"`
}

func newNodeRow(n *tree.Node) nodeRow {
	row := nodeRow{
		Kind:           n.Kind.String(),
		Fragment:       n.FragmentID,
		Href:           n.Href,
		PreferredLabel: n.PreferredLabel,
		Usage:          string(n.Usage),
		Name:           n.Name,
	}
	if v, ok := n.Order.Value(); ok {
		row.Order = &v
	}
	if n.HasLabel {
		label := n.Label
		row.Label = &label
	}
	return row
}

func (c *NodesCmd) Run(e *env) error {
	f, done, err := e.open(c.Pre)
	if err != nil {
		return err
	}
	defer done()

	ids, err := f.Nodes(c.Group)
	if err != nil {
		return err
	}
	if err := c.Passes.run(e, f, c.Group); err != nil {
		return err
	}

	enc := json.NewEncoder(e.out)
	for _, id := range ids {
		n := f.Tree().Node(id)
		if c.JSON {
			if err := enc.Encode(newNodeRow(n)); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(e.out, "%s\t%s\t%s\t%s\t%s\t%s\n",
			n.Kind, n.FragmentID, n.Order, n.Usage, n.Name, n.Label)
	}
	return nil
}

// CacheClearCmd empties the configured label cache.
type CacheClearCmd struct{}

func (c *CacheClearCmd) Run(e *env) error {
	store, err := labelcache.Open(e.ctx, e.cfg.CacheOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(e.ctx); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Cleared %s label cache\n", e.cfg.Cache.Backend)
	return nil
}

// InitCmd writes the default configuration to the --config path.
type InitCmd struct {
	Force bool `name:"force" short:"f" help:"Overwrite an existing file"`
}

func (c *InitCmd) Run(e *env) error {
	if err := config.Init(e.configPath, c.Force); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Wrote %s\n", e.configPath)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(e *env) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(e.out, "xbrltree version %s (sqlite driver %s, %s, %s)\n",
		version, info.DriverName, info.DriverType, info.Package)
	return nil
}

func newParser(cli *CLI, out io.Writer, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("xbrltree"),
		kong.Description("EDINET XBRL presentation tree viewer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(out, os.Stderr),
	}, options...)
	return kong.New(cli, options...)
}

// execute loads configuration, sets up logging and runs the selected
// command.
func execute(kctx *kong.Context, cli *CLI, out io.Writer) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)

	ctx := logging.WithRunID(context.Background(), logging.NewRunID())
	return kctx.Run(&env{ctx: ctx, out: out, cfg: cfg, configPath: cli.Config})
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	kctx.FatalIfErrorf(execute(kctx, &cli, os.Stdout))
}
