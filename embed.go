package sitegen

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
)

// EmbeddedAssets contains the stylesheet shipped with the generator.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

// Stylesheet returns the minified built-in stylesheet followed by the
// optional site stylesheet at extra.
func Stylesheet(extra string) (string, error) {
	css, err := EmbeddedAssets.ReadFile("embedded/site.css")
	if err != nil {
		return "", err
	}
	if extra != "" {
		custom, err := os.ReadFile(extra)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("sitegen: read stylesheet: %w", err)
		}
		css = append(append(css, '\n'), custom...)
	}
	return minifyCSS(string(css))
}

func minifyCSS(css string) (string, error) {
	result := esbuild.Transform(css, esbuild.TransformOptions{
		Loader:            esbuild.LoaderCSS,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, m := range result.Errors {
			msgs[i] = m.Text
		}
		return "", fmt.Errorf("sitegen: minify css: %s", strings.Join(msgs, "; "))
	}
	return strings.TrimSpace(string(result.Code)), nil
}
