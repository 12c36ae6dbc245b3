// Package showcase fetches GitHub repository metadata for the home page.
package showcase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// ErrFetch is matched by every failed repository request.
var ErrFetch = errors.New("showcase: fetch failed")

// Repo is the subset of the GitHub repository resource the site renders.
type Repo struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
}

// Config lists the repositories to show, as "owner/name".
type Config struct {
	Repos []string `json:"repos"`
	// Self is the repository of the site itself, linked from the footer.
	Self string `json:"self"`
}

// LoadConfig reads a showcase configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("showcase: read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("showcase: decode %s: %w", path, err)
	}
	return cfg, nil
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	Repo       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("showcase: couldn't fetch repo %s: %d %s", e.Repo, e.StatusCode, strings.TrimSpace(e.Body))
}

// Unwrap lets errors.Is match ErrFetch.
func (e *StatusError) Unwrap() error { return ErrFetch }

// Fetcher fetches repository metadata in the configured order.
type Fetcher interface {
	FetchAll(ctx context.Context, names []string) ([]Repo, error)
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a Client. An empty token makes unauthenticated calls.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the metadata of one repository.
func (c *Client) Fetch(ctx context.Context, name string) (Repo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/repos/"+name, nil)
	if err != nil {
		return Repo{}, fmt.Errorf("showcase: %s: %w", name, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Repo{}, fmt.Errorf("showcase: %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("Error fetching repo", "repo", name, "status", resp.StatusCode)
		return Repo{}, &StatusError{Repo: name, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var repo Repo
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		return Repo{}, fmt.Errorf("showcase: decode %s: %w", name, err)
	}
	return repo, nil
}

// FetchAll fetches every named repository concurrently. The first failure
// cancels the remaining requests and fails the whole batch.
func (c *Client) FetchAll(ctx context.Context, names []string) ([]Repo, error) {
	repos := make([]Repo, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			repo, err := c.Fetch(ctx, name)
			if err != nil {
				return err
			}
			repos[i] = repo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return repos, nil
}
