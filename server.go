package sitegen

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the preview server's HTTP handler for the output
// directory.
func (s *Site) Handler() http.Handler {
	return s.newEcho()
}

// Serve serves the output directory at addr until ctx is cancelled. With
// watch set, changes to content and public files trigger rebuilds.
func (s *Site) Serve(ctx context.Context, addr string, watch bool) error {
	e := s.newEcho()

	if watch {
		go func() {
			if err := s.Watch(ctx); err != nil {
				s.log.Error("Watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("Preview server shutdown", "error", err)
		}
	}()

	s.log.Info("Preview server listening", "addr", addr, "output", s.Config.OutputDir, "watch", watch)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Site) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Debug("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/"+assetsDir+"/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'",
	}))

	e.Use(cacheControlMiddleware)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{})))

	// Directories redirect to their trailing-slash form and serve index.html.
	e.StaticFS("/", os.DirFS(s.Config.OutputDir))

	return e
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case strings.HasPrefix(path, "/"+assetsDir+"/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case path == "/metrics" || path == "/healthz":
			c.Response().Header().Set("Cache-Control", "no-store")
		default:
			c.Response().Header().Set("Cache-Control", "no-cache")
		}
		return next(c)
	}
}

func (s *Site) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusNotFound {
		if page, rerr := os.ReadFile(filepath.Join(s.Config.OutputDir, "404.html")); rerr == nil {
			_ = c.HTMLBlob(http.StatusNotFound, page)
			return
		}
	}
	code := http.StatusInternalServerError
	if he != nil {
		code = he.Code
	}
	if code >= 500 {
		s.log.Error("Server error", "uri", c.Request().RequestURI, "error", err)
	}
	c.Echo().DefaultHTTPErrorHandler(err, c)
}
