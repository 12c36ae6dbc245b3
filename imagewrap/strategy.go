// Package imagewrap wraps images in generated markup with links.
//
// Two families of strategies provide the same capability. Tree strategies
// parse a rendered fragment with golang.org/x/net/html and rewrite the
// document tree while a page is being rendered. Output strategies run regex
// substitutions over finished HTML files after every other output pass, so
// they see final asset URLs at the cost of structural precision.
package imagewrap

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Mode names a wrapping strategy in configuration.
type Mode string

const (
	ModeOff        Mode = "off"
	ModeLink       Mode = "link"
	ModeLightbox   Mode = "lightbox"
	ModeWrapOutput Mode = "wrap-output"
	ModeFixOutput  Mode = "fix-output"
)

// Modes lists every accepted mode.
var Modes = []Mode{ModeOff, ModeLink, ModeLightbox, ModeWrapOutput, ModeFixOutput}

// Stage is the point of the build at which a strategy runs.
type Stage int

const (
	// StageNone strategies never run.
	StageNone Stage = iota
	// StageRender strategies run on each rendered post body.
	StageRender
	// StageOutput strategies run on generated files after the build.
	StageOutput
)

func (s Stage) String() string {
	switch s {
	case StageRender:
		return "render"
	case StageOutput:
		return "output"
	default:
		return "none"
	}
}

// Rewriter transforms a piece of markup. It returns the new markup and the
// number of changes made; when nothing changed the input is returned as is.
type Rewriter interface {
	Rewrite(markup []byte) ([]byte, int, error)
}

// RewriterFunc adapts a function to Rewriter.
type RewriterFunc func(markup []byte) ([]byte, int, error)

// Rewrite calls f.
func (f RewriterFunc) Rewrite(markup []byte) ([]byte, int, error) { return f(markup) }

// Strategy is a configured way of wrapping images.
type Strategy interface {
	Rewriter
	Mode() Mode
	Stage() Stage
}

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeOff, nil
	}
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("imagewrap: unknown mode %q", s)
}

// New returns the strategy for mode.
func New(mode Mode) (Strategy, error) {
	switch mode {
	case ModeOff, "":
		return noop{}, nil
	case ModeLink:
		return treeStrategy{mode: mode, fn: WrapLinks}, nil
	case ModeLightbox:
		return treeStrategy{mode: mode, fn: WrapLightbox}, nil
	case ModeWrapOutput:
		return textStrategy{mode: mode, fn: wrapImages}, nil
	case ModeFixOutput:
		return textStrategy{mode: mode, fn: fixHrefs}, nil
	default:
		return nil, fmt.Errorf("imagewrap: unknown mode %q", mode)
	}
}

// Parse builds the strategies named by modes, in order.
func Parse(modes []string) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(modes))
	for _, name := range modes {
		mode, err := ParseMode(name)
		if err != nil {
			return nil, err
		}
		s, err := New(mode)
		if err != nil {
			return nil, err
		}
		if s.Stage() == StageNone {
			continue
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

// ForStage returns the strategies that run at stage, preserving order.
func ForStage(strategies []Strategy, stage Stage) []Strategy {
	var out []Strategy
	for _, s := range strategies {
		if s.Stage() == stage {
			out = append(out, s)
		}
	}
	return out
}

type noop struct{}

func (noop) Mode() Mode   { return ModeOff }
func (noop) Stage() Stage { return StageNone }
func (noop) Rewrite(markup []byte) ([]byte, int, error) {
	return markup, 0, nil
}

type treeStrategy struct {
	mode Mode
	fn   func(root *html.Node) int
}

func (s treeStrategy) Mode() Mode   { return s.mode }
func (s treeStrategy) Stage() Stage { return StageRender }
func (s treeStrategy) Rewrite(markup []byte) ([]byte, int, error) {
	return rewriteFragment(markup, s.fn)
}

type textStrategy struct {
	mode Mode
	fn   func(markup string) (string, int)
}

func (s textStrategy) Mode() Mode   { return s.mode }
func (s textStrategy) Stage() Stage { return StageOutput }
func (s textStrategy) Rewrite(markup []byte) ([]byte, int, error) {
	out, n := s.fn(string(markup))
	if n == 0 {
		return markup, 0, nil
	}
	return []byte(out), n, nil
}
