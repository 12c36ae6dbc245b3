package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/kahlstrm/sitegen"
	"github.com/kahlstrm/sitegen/fixtures"
	"github.com/kahlstrm/sitegen/posts"
	"github.com/kahlstrm/sitegen/scaffold"
)

// Global is passed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitegen.yaml" type:"path"`
	EnvFile string           `name:"env-file" help:"Environment file loaded before reading the environment" default:".env" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site into the output directory"`
	Serve    ServeCmd    `cmd:"" help:"Serve the output directory and rebuild on change"`
	Fixtures FixturesCmd `cmd:"" help:"Write the post listing snapshot used by offline tests"`
	Posts    PostsCmd    `cmd:"" help:"List the posts found in the content directory"`
	History  HistoryCmd  `cmd:"" help:"Show recent builds"`
	Images   ImagesCmd   `cmd:"" help:"List or prune optimized image records"`
	New      NewCmd      `cmd:"" help:"Create a new site or post"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// siteConfig resolves the configuration: the config file, then the
// environment file and the process environment, then defaults for whatever
// is still unset. Command flags are applied by the caller.
func (c *CLI) siteConfig() (sitegen.SiteConfig, error) {
	if err := sitegen.LoadEnvFile(c.EnvFile); err != nil {
		return sitegen.SiteConfig{}, err
	}
	cfg, err := sitegen.LoadConfig(c.Config)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg.WithDefaults(), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output     string `short:"o" help:"Output directory, overrides output_dir"`
	Offline    bool   `help:"Skip the GitHub API and write the post fixture"`
	Production bool   `help:"Hide example posts and drafts"`
	SkipImages bool   `name:"skip-images" help:"Do not resize and re-encode images"`
}

func (b *BuildCmd) apply(cfg *sitegen.SiteConfig) {
	if b.Output != "" {
		cfg.OutputDir = b.Output
	}
	if b.Offline {
		cfg.Offline = true
	}
	if b.Production {
		cfg.Production = true
	}
	if b.SkipImages {
		cfg.SkipImageOptimization = true
	}
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.siteConfig()
	if err != nil {
		return err
	}
	b.apply(&cfg)

	site, err := sitegen.New(cfg, sitegen.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	defer site.Close()

	ctx, cancel := signalContext()
	defer cancel()
	_, err = site.Build(ctx)
	return err
}

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `short:"a" help:"Listen address, overrides addr"`
	NoWatch bool   `name:"no-watch" help:"Do not rebuild when files change"`
	NoBuild bool   `name:"no-build" help:"Serve the existing output without building first"`
	Offline bool   `help:"Skip the GitHub API"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.siteConfig()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Addr = s.Addr
	}
	if s.Offline {
		cfg.Offline = true
	}

	site, err := sitegen.New(cfg, sitegen.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	defer site.Close()

	ctx, cancel := signalContext()
	defer cancel()
	if !s.NoBuild {
		if _, err := site.Build(ctx); err != nil {
			return err
		}
	}
	return site.Serve(ctx, site.Config.Addr, !s.NoWatch)
}

// FixturesCmd implements the 'fixtures' command.
type FixturesCmd struct {
	Output string `short:"o" help:"Snapshot path, overrides fixture_path"`
}

func (f *FixturesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.siteConfig()
	if err != nil {
		return err
	}
	out := cfg.FixturePath
	if f.Output != "" {
		out = f.Output
	}
	gen := fixtures.New(fixtures.Config{
		Enabled:    true,
		ContentDir: cfg.ContentDir,
		OutputPath: out,
	}, fixtures.WithLogger(g.Logger))
	_, err = gen.Generate()
	return err
}

// PostsCmd implements the 'posts' command.
type PostsCmd struct {
	JSON bool `help:"Print the listing as JSON"`
}

func (p *PostsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.siteConfig()
	if err != nil {
		return err
	}
	metas, err := posts.Enumerate(cfg.ContentDir)
	if err != nil {
		return err
	}
	return printPosts(os.Stdout, metas, p.JSON)
}

func printPosts(w io.Writer, metas []posts.Meta, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if metas == nil {
			metas = []posts.Meta{}
		}
		return enc.Encode(metas)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tDESCRIPTION")
	for _, m := range metas {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Slug, m.Title, m.Description)
	}
	return tw.Flush()
}

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.siteConfig()
	if err != nil {
		return err
	}
	site, err := sitegen.New(cfg, sitegen.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	defer site.Close()

	builds, err := site.Builds(h.Limit)
	if err != nil {
		return err
	}
	return printBuilds(os.Stdout, builds)
}

func printBuilds(w io.Writer, builds []sitegen.Build) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tSTATUS\tPOSTS\tPAGES\tIMAGES\tERROR")
	for _, b := range builds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			b.ID, b.StartedAt.Local().Format(time.DateTime), b.Duration().Round(time.Millisecond),
			b.Status, b.Posts, b.Pages, b.Images, b.Error)
	}
	return tw.Flush()
}

// ImagesCmd implements the 'images' command.
type ImagesCmd struct {
	Prune bool `help:"Forget images whose optimized file is missing from the output directory"`
}

func (i *ImagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.siteConfig()
	if err != nil {
		return err
	}
	site, err := sitegen.New(cfg, sitegen.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	defer site.Close()

	if i.Prune {
		removed, err := site.PruneImages()
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d image records\n", removed)
		return nil
	}
	images, err := site.Images()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tSOURCE\tSIZE\tDIMENSIONS")
	for _, img := range images {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%dx%d\n", img.Filename, img.Source, img.Size, img.Width, img.Height)
	}
	return tw.Flush()
}

// NewCmd groups the scaffolding commands.
type NewCmd struct {
	Site NewSiteCmd `cmd:"" help:"Create a new site directory"`
	Post NewPostCmd `cmd:"" help:"Create a draft post in the content directory"`
}

// NewSiteCmd implements 'new site'.
type NewSiteCmd struct {
	Dir    string `arg:"" help:"Directory to create"`
	Author string `help:"Author name, defaults to the site name"`
}

func (n *NewSiteCmd) Run(_ *Global, _ *CLI) error {
	fmt.Printf("Creating new site: %s\n\n", n.Dir)
	created, err := scaffold.Site(n.Dir, scaffold.NewSiteData(n.Dir, n.Author, time.Now()))
	if err != nil {
		return err
	}
	for _, f := range created {
		fmt.Printf("  created %s\n", filepath.Join(n.Dir, filepath.FromSlash(f)))
	}
	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", n.Dir)
	fmt.Println("  sitegen serve")
	return nil
}

// NewPostCmd implements 'new post'.
type NewPostCmd struct {
	Title  string `arg:"" help:"Post title"`
	Folder bool   `short:"f" help:"Create slug/index.md so images can sit next to the post"`
}

func (n *NewPostCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.siteConfig()
	if err != nil {
		return err
	}
	file, err := scaffold.Post(cfg.ContentDir, n.Title, time.Now(), n.Folder)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", file)
	return nil
}
