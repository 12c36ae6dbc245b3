// Package sitegen is a static site generator for a personal website and
// blog. It renders markdown posts with goldmark into templ pages, wraps post
// images in links, optimizes images, and writes a sitemap, an RSS feed and
// robots.txt. A preview server serves the output and rebuilds on change.
package sitegen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/kahlstrm/sitegen/fixtures"
	"github.com/kahlstrm/sitegen/imagewrap"
	"github.com/kahlstrm/sitegen/markdown"
	"github.com/kahlstrm/sitegen/posts"
	"github.com/kahlstrm/sitegen/showcase"
	"github.com/kahlstrm/sitegen/views"
)

// Site is the central sitegen object. It wires together the configuration,
// the build store, the showcase client and the metrics.
type Site struct {
	Config  SiteConfig
	Store   *Store
	Metrics *Metrics

	log        *slog.Logger
	showcase   showcase.Fetcher
	renderer   *markdown.Renderer
	strategies []imagewrap.Strategy
	ownsStore  bool

	mu sync.Mutex // one build at a time
}

// New creates a Site for cfg. Missing configuration values get defaults.
func New(cfg SiteConfig, opts ...Option) (*Site, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sitegen: invalid config: %w", err)
	}
	strategies, err := imagewrap.Parse(cfg.ImageLinks)
	if err != nil {
		return nil, fmt.Errorf("sitegen: %w", err)
	}

	s := &Site{
		Config:     cfg,
		log:        slog.Default(),
		renderer:   markdown.New(),
		strategies: strategies,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.showcase == nil {
		client := showcase.NewClient(cfg.GitHubToken,
			showcase.WithBaseURL(cfg.GitHubAPI),
			showcase.WithLogger(s.log))
		s.showcase = showcase.NewCache(client, cfg.ShowcaseTTL)
	}
	if s.Metrics == nil {
		s.Metrics = NewMetrics(nil)
	}
	return s, nil
}

// Close releases the build store if the Site opened it.
func (s *Site) Close() error {
	if s.Store != nil && s.ownsStore {
		err := s.Store.Close()
		s.Store = nil
		return err
	}
	return nil
}

func (s *Site) openStore() error {
	if s.Store != nil {
		return nil
	}
	store, err := NewStore(s.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("sitegen: init store: %w", err)
	}
	s.Store = store
	s.ownsStore = true
	return nil
}

// Build generates the whole site into the output directory. The previous
// output is removed first. Builds are serialized.
func (s *Site) Build(ctx context.Context) (BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := BuildResult{Build: Build{ID: uuid.NewString(), StartedAt: time.Now()}}
	if err := s.openStore(); err != nil {
		return res, err
	}
	log := s.log.With("build", res.ID)
	log.Info("Starting build", "content", s.Config.ContentDir, "output", s.Config.OutputDir)

	err := s.build(ctx, log, &res)

	res.FinishedAt = time.Now()
	res.Status = BuildSucceeded
	if err != nil {
		res.Status = BuildFailed
		res.Error = err.Error()
	}
	s.Metrics.observeBuild(res.Build)
	if rerr := s.Store.RecordBuild(res.Build); rerr != nil {
		log.Warn("Failed to record build", "error", rerr)
	}
	if err != nil {
		log.Error("Build failed", "error", err, "duration", res.Duration())
		return res, err
	}
	log.Info("Build finished",
		"posts", res.Posts,
		"pages", res.Pages,
		"images", res.Images,
		"wrapped", res.Wrapped,
		"rewritten", res.Rewritten,
		"duration", res.Duration())
	return res, nil
}

func (s *Site) build(ctx context.Context, log *slog.Logger, res *BuildResult) error {
	cfg := s.Config
	out := cfg.OutputDir

	all, err := posts.Load(cfg.ContentDir)
	if err != nil {
		return err
	}
	list := posts.FilterSorted(all, cfg.Production)
	res.Posts = len(list)
	log.Debug("Loaded posts", "count", len(all), "listed", len(list), "production", cfg.Production)

	repos, self, err := s.loadShowcase(ctx, log)
	if err != nil {
		return err
	}

	css, err := Stylesheet(cfg.Stylesheet)
	if err != nil {
		return err
	}
	site := views.SiteConfig{
		Name:        cfg.Name,
		URL:         cfg.URL,
		Description: cfg.Description,
		Author:      cfg.Author,
		Self:        self,
		Stylesheet:  css,
	}

	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("sitegen: clean output: %w", err)
	}
	if _, err := copyDir(cfg.PublicDir, out, nil); err != nil {
		return fmt.Errorf("sitegen: copy public: %w", err)
	}

	if err := s.writePages(ctx, log, site, list, repos, res); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if !cfg.SkipImageOptimization {
		opt := newImageOptimizer(out, s.Store, cfg.MaxImageWidth, cfg.JPEGQuality, log)
		stats, err := imagewrap.RewriteDir(out, imagewrap.DefaultPattern, opt)
		if err != nil {
			return fmt.Errorf("sitegen: optimize images: %w", err)
		}
		res.Images = len(opt.urls)
		s.Metrics.imagesOptimized.Add(float64(opt.processed))
		s.Metrics.filesRewritten.WithLabelValues("optimize").Add(float64(stats.Rewritten))
		log.Debug("Optimized images", "referenced", len(opt.urls), "encoded", opt.processed, "files", stats.Rewritten)
	}

	for _, st := range imagewrap.ForStage(s.strategies, imagewrap.StageOutput) {
		stats, err := imagewrap.RewriteDir(out, cfg.OutputPattern, st)
		if err != nil {
			return fmt.Errorf("sitegen: %s: %w", st.Mode(), err)
		}
		res.Rewritten += stats.Rewritten
		s.Metrics.filesRewritten.WithLabelValues(string(st.Mode())).Add(float64(stats.Rewritten))
		log.Info("Rewrote output", "strategy", st.Mode(), "scanned", stats.Scanned, "rewritten", stats.Rewritten, "changes", stats.Changes)
	}

	if err := writeSitemap(out, cfg.URL, list); err != nil {
		return fmt.Errorf("sitegen: sitemap: %w", err)
	}
	if err := writeRSS(out, cfg, list); err != nil {
		return fmt.Errorf("sitegen: rss: %w", err)
	}
	if err := writeFile(filepath.Join(out, "robots.txt"), []byte(robotsTxt(cfg.URL, cfg.ProductionHost))); err != nil {
		return fmt.Errorf("sitegen: robots: %w", err)
	}

	gen := fixtures.New(fixtures.Config{
		Enabled:    cfg.Offline,
		ContentDir: cfg.ContentDir,
		OutputPath: cfg.FixturePath,
	}, fixtures.WithLogger(log))
	wrote, err := gen.Generate()
	if err != nil {
		return err
	}
	res.Fixture = wrote
	return nil
}

// loadShowcase fetches the configured repositories. Offline builds and sites
// without a showcase file render no repositories.
func (s *Site) loadShowcase(ctx context.Context, log *slog.Logger) ([]showcase.Repo, string, error) {
	sc, err := showcase.LoadConfig(s.Config.ShowcasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("No showcase configured", "path", s.Config.ShowcasePath)
			return nil, "", nil
		}
		return nil, "", err
	}
	if s.Config.Offline {
		log.Info("Offline build, skipping GitHub API", "repos", len(sc.Repos))
		return nil, sc.Self, nil
	}
	repos, err := s.showcase.FetchAll(ctx, sc.Repos)
	if err != nil {
		return nil, "", err
	}
	return repos, sc.Self, nil
}

func (s *Site) writePages(ctx context.Context, log *slog.Logger, site views.SiteConfig, list []posts.Post, repos []showcase.Repo, res *BuildResult) error {
	out := s.Config.OutputDir
	render := imagewrap.ForStage(s.strategies, imagewrap.StageRender)

	for _, post := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		base := "/blog/" + post.Slug + "/"
		body, err := s.renderer.Render(post.Body, base)
		if err != nil {
			return fmt.Errorf("sitegen: render %s: %w", post.Slug, err)
		}
		for _, st := range render {
			var n int
			body, n, err = st.Rewrite(body)
			if err != nil {
				return fmt.Errorf("sitegen: %s %s: %w", st.Mode(), post.Slug, err)
			}
			res.Wrapped += n
			s.Metrics.imagesWrapped.WithLabelValues(string(st.Mode())).Add(float64(n))
			if n > 0 {
				log.Debug("Wrapped images", "slug", post.Slug, "strategy", st.Mode(), "count", n)
			}
		}

		dir := filepath.Join(out, "blog", post.Slug)
		if post.Dir != "" {
			if _, err := copyDir(filepath.Join(s.Config.ContentDir, post.Dir), dir, skipMarkdown); err != nil {
				return fmt.Errorf("sitegen: copy assets %s: %w", post.Slug, err)
			}
		}
		related := views.FilterRelatedPosts(post, list)
		page := views.Post(site, post, markdown.Markdown(body), markdown.ReadingTime(post.Body), related)
		if err := renderFile(ctx, filepath.Join(dir, "index.html"), page); err != nil {
			return fmt.Errorf("sitegen: write %s: %w", post.Slug, err)
		}
		res.Pages++
	}

	pages := []struct {
		name string
		page templ.Component
	}{
		{"index.html", views.Home(site, list, repos)},
		{"blog/index.html", views.BlogIndex(site, list)},
		{"404.html", views.NotFound(site)},
	}
	for _, p := range pages {
		if err := renderFile(ctx, filepath.Join(out, filepath.FromSlash(p.name)), p.page); err != nil {
			return fmt.Errorf("sitegen: write %s: %w", p.name, err)
		}
		res.Pages++
	}
	s.Metrics.pagesWritten.Add(float64(res.Pages))
	return nil
}

func skipMarkdown(rel string, d fs.DirEntry) bool {
	return !d.IsDir() && strings.HasSuffix(rel, posts.Ext)
}

// Builds returns up to limit recorded builds, newest first.
func (s *Site) Builds(limit int) ([]Build, error) {
	if err := s.openStore(); err != nil {
		return nil, err
	}
	return s.Store.ListBuilds(limit)
}

// Images returns the recorded optimized images.
func (s *Site) Images() ([]Image, error) {
	if err := s.openStore(); err != nil {
		return nil, err
	}
	return s.Store.ListImages()
}

// PruneImages forgets optimized images whose file is no longer in the
// output directory and returns how many records were removed.
func (s *Site) PruneImages() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	images, err := s.Images()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, img := range images {
		if fileExists(filepath.Join(s.Config.OutputDir, assetsDir, img.Filename)) {
			continue
		}
		if err := s.Store.DeleteImage(img.Hash); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("Pruned image records", "removed", removed, "kept", len(images)-removed)
	}
	return removed, nil
}
