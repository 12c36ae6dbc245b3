package sitegen

import "time"

// Image is an optimized copy of a raster image referenced by a page.
type Image struct {
	Hash        string // content hash of the source bytes
	Source      string // site path of the original, e.g. "/blog/post/cover.png"
	Filename    string // name under the assets directory
	Width       int
	Height      int
	Size        int
	ProcessedAt time.Time
}

// Build statuses.
const (
	BuildSucceeded = "succeeded"
	BuildFailed    = "failed"
)

// Build is the record of one site build.
type Build struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Posts      int
	Pages      int
	Images     int
	Status     string
	Error      string
}

// Duration is the wall time the build took.
func (b Build) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}

// BuildResult summarizes a successful build.
type BuildResult struct {
	Build
	Wrapped   int // images wrapped by render-stage strategies
	Rewritten int // files changed by output-stage strategies
	Fixture   bool
}
