package sitegen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/a-h/templ"
)

// renderFile renders a component into path, creating parent directories.
func renderFile(ctx context.Context, file string, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return err
	}
	return writeFile(file, buf.Bytes())
}

func writeFile(file string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}
