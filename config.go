package sitegen

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kahlstrm/sitegen/fixtures"
	"github.com/kahlstrm/sitegen/imagewrap"
	"github.com/kahlstrm/sitegen/showcase"
)

// Environment variables read by ApplyEnv.
const (
	EnvSkipGitHubAPI = "PUBLIC_SKIP_GITHUB_API"
	EnvDeployment    = "VERCEL_ENV"
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvSiteURL       = "SITE_URL"
)

// SiteConfig holds all configuration for a site build.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "kahlstrm")
	URL         string `yaml:"url"`         // Canonical URL with trailing slash (default "http://localhost:4321/")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD and the footer

	ContentDir   string `yaml:"content_dir"`   // Markdown posts (default "src/content/blog")
	PublicDir    string `yaml:"public_dir"`    // Static files copied verbatim (default "public")
	OutputDir    string `yaml:"output_dir"`    // Generated site (default "dist")
	DatabasePath string `yaml:"database_path"` // SQLite build store (default ".sitegen/build.db")
	ShowcasePath string `yaml:"showcase_path"` // Repository list (default "src/reposhowcase.json")
	FixturePath  string `yaml:"fixture_path"`  // Offline snapshot (default fixtures.DefaultPath)
	Stylesheet   string `yaml:"stylesheet"`    // Extra CSS appended to the built-in stylesheet, optional

	// ImageLinks names the image wrapping strategies, in order
	// (default ["lightbox"]). See imagewrap.Modes.
	ImageLinks    []string `yaml:"image_links"`
	OutputPattern string   `yaml:"output_pattern"` // Files rewritten by output strategies (default "**/*.html")

	SkipImageOptimization bool `yaml:"skip_image_optimization"`
	MaxImageWidth         int  `yaml:"max_image_width"` // default 800
	JPEGQuality           int  `yaml:"jpeg_quality"`    // default 80

	Offline        bool          `yaml:"offline"`         // Skip the GitHub API and write fixtures
	Production     bool          `yaml:"production"`      // Hide example posts and drafts
	ProductionHost string        `yaml:"production_host"` // robots.txt allows crawling on this host (default "kahlstrm.xyz")
	GitHubAPI      string        `yaml:"github_api"`      // default showcase.DefaultBaseURL
	GitHubToken    string        `yaml:"-"`
	ShowcaseTTL    time.Duration `yaml:"showcase_ttl"` // default 10m

	Addr string `yaml:"addr"` // Preview listen address (default ":4321")
}

// WithDefaults returns c with every unset value replaced by its default.
func (c SiteConfig) WithDefaults() SiteConfig {
	c.setDefaults()
	return c
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "kahlstrm"
	}
	if c.URL == "" {
		c.URL = "http://localhost:4321/"
	}
	if !strings.HasSuffix(c.URL, "/") {
		c.URL += "/"
	}
	if c.Author == "" {
		c.Author = "Kalle Kahlström"
	}
	if c.ContentDir == "" {
		c.ContentDir = "src/content/blog"
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = ".sitegen/build.db"
	}
	if c.ShowcasePath == "" {
		c.ShowcasePath = "src/reposhowcase.json"
	}
	if c.FixturePath == "" {
		c.FixturePath = fixtures.DefaultPath
	}
	if c.ImageLinks == nil {
		c.ImageLinks = []string{string(imagewrap.ModeLightbox)}
	}
	if c.OutputPattern == "" {
		c.OutputPattern = imagewrap.DefaultPattern
	}
	if c.MaxImageWidth == 0 {
		c.MaxImageWidth = 800
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = 80
	}
	if c.ProductionHost == "" {
		c.ProductionHost = "kahlstrm.xyz"
	}
	if c.GitHubAPI == "" {
		c.GitHubAPI = showcase.DefaultBaseURL
	}
	if c.ShowcaseTTL == 0 {
		c.ShowcaseTTL = 10 * time.Minute
	}
	if c.Addr == "" {
		c.Addr = ":4321"
	}
}

// Validate reports configuration values no build can run with.
func (c SiteConfig) Validate() error {
	var errs []error
	if _, err := imagewrap.Parse(c.ImageLinks); err != nil {
		errs = append(errs, err)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality))
	}
	if c.MaxImageWidth < 1 {
		errs = append(errs, fmt.Errorf("max_image_width must be positive, got %d", c.MaxImageWidth))
	}
	if out := filepath.Clean(c.OutputDir); out == "." || out == string(filepath.Separator) {
		errs = append(errs, fmt.Errorf("output_dir %q would remove the working tree", c.OutputDir))
	} else {
		errs = append(errs, c.validateOutputDir()...)
	}
	return errors.Join(errs...)
}

// validateOutputDir rejects an output directory that holds any of the site's
// sources, since every build removes it first.
func (c SiteConfig) validateOutputDir() []error {
	sources := []struct{ key, path string }{
		{"content_dir", c.ContentDir},
		{"public_dir", c.PublicDir},
		{"showcase_path", c.ShowcasePath},
		{"database_path", c.DatabasePath},
		{"stylesheet", c.Stylesheet},
	}
	var errs []error
	for _, src := range sources {
		if src.path != "" && isWithin(c.OutputDir, src.path) {
			errs = append(errs, fmt.Errorf("output_dir %q must not contain %s %q", c.OutputDir, src.key, src.path))
		}
	}
	return errs
}

// isWithin reports whether path is dir or lies below it.
func isWithin(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// LoadConfig reads a YAML configuration file. A missing file yields the zero
// configuration so a site can run on defaults and environment alone.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("sitegen: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("sitegen: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnvFile loads a .env file into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("sitegen: load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with the deployment environment. lookup is usually
// os.LookupEnv.
func (c *SiteConfig) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSkipGitHubAPI); ok {
		c.Offline = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup(EnvDeployment); ok {
		c.Production = strings.TrimSpace(v) == "production"
	}
	if v, ok := lookup(EnvGitHubToken); ok && v != "" {
		c.GitHubToken = v
	}
	if v, ok := lookup(EnvSiteURL); ok && v != "" {
		c.URL = v
	}
}

// Option configures additional Site behavior.
type Option func(*Site)

// WithLogger sets the logger used by the build and the preview server.
func WithLogger(l *slog.Logger) Option {
	return func(s *Site) {
		s.log = l
	}
}

// WithShowcase replaces the GitHub client, typically with a stub in tests.
func WithShowcase(f showcase.Fetcher) Option {
	return func(s *Site) {
		s.showcase = f
	}
}

// WithStore shares an already open build store.
func WithStore(st *Store) Option {
	return func(s *Site) {
		s.Store = st
	}
}
