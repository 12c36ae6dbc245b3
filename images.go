package sitegen

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

// assetsDir is the output subdirectory holding optimized images.
const assetsDir = "_assets"

var (
	reImgSrc         = regexp.MustCompile(`(<img\s(?:[^>]*?\s)?src=")([^"]*)(")`)
	optimizableTypes = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}
)

// processImage decodes an image from src, resizes it to maxWidth when wider,
// flattens transparency onto white and encodes it as JPEG.
func processImage(src io.Reader, maxWidth, quality int) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return Image{
		Width:       w,
		Height:      h,
		Size:        buf.Len(),
		ProcessedAt: time.Now().UTC(),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	slug := Slugify(strings.TrimSuffix(name, ext))
	if slug == "" {
		return "image"
	}
	return slug
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:6])
}

// imageOptimizer replaces local raster images referenced by <img src> with
// resized JPEG copies under /_assets/. Only the src attribute changes.
type imageOptimizer struct {
	outDir   string
	store    *Store
	maxWidth int
	quality  int
	log      *slog.Logger

	urls      map[string]string // site path -> optimized URL, this build
	processed int
}

func newImageOptimizer(outDir string, store *Store, maxWidth, quality int, log *slog.Logger) *imageOptimizer {
	return &imageOptimizer{
		outDir:   outDir,
		store:    store,
		maxWidth: maxWidth,
		quality:  quality,
		log:      log,
		urls:     make(map[string]string),
	}
}

// Rewrite implements imagewrap.Rewriter.
func (o *imageOptimizer) Rewrite(markup []byte) ([]byte, int, error) {
	var firstErr error
	changed := 0
	out := reImgSrc.ReplaceAllFunc(markup, func(m []byte) []byte {
		if firstErr != nil {
			return m
		}
		parts := reImgSrc.FindSubmatch(m)
		src := string(parts[2])
		optimized, err := o.optimize(src)
		if err != nil {
			firstErr = err
			return m
		}
		if optimized == src {
			return m
		}
		changed++
		return append(append(append([]byte{}, parts[1]...), optimized...), parts[3]...)
	})
	if firstErr != nil {
		return nil, 0, firstErr
	}
	if changed == 0 {
		return markup, 0, nil
	}
	return out, changed, nil
}

// optimize returns the URL to use for src. Sources that are remote, already
// optimized, not raster images or not decodable are returned unchanged.
func (o *imageOptimizer) optimize(src string) (string, error) {
	if !strings.HasPrefix(src, "/") || strings.HasPrefix(src, "//") || strings.HasPrefix(src, "/"+assetsDir+"/") {
		return src, nil
	}
	if !optimizableTypes[strings.ToLower(path.Ext(src))] {
		return src, nil
	}
	if u, ok := o.urls[src]; ok {
		return u, nil
	}

	file := filepath.Join(o.outDir, filepath.FromSlash(strings.TrimPrefix(src, "/")))
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			o.log.Warn("Image not found in output", "src", src)
			o.urls[src] = src
			return src, nil
		}
		return "", fmt.Errorf("sitegen: read image %s: %w", src, err)
	}

	hash := contentHash(data)
	img, err := o.store.GetImage(hash)
	switch {
	case err == nil:
		if fileExists(o.assetPath(img.Filename)) {
			return o.remember(src, img), nil
		}
		// recorded but the output directory was cleaned; re-encode below
	case !errors.Is(err, ErrImageNotFound):
		return "", fmt.Errorf("sitegen: lookup image %s: %w", src, err)
	}

	img, encoded, err := processImage(bytes.NewReader(data), o.maxWidth, o.quality)
	if err != nil {
		o.log.Warn("Skipping image optimization", "src", src, "error", err)
		o.urls[src] = src
		return src, nil
	}
	img.Hash = hash
	img.Source = src
	img.Filename = slugifyFilename(path.Base(src)) + "." + hash + ".jpg"

	if err := os.MkdirAll(filepath.Join(o.outDir, assetsDir), 0o755); err != nil {
		return "", fmt.Errorf("sitegen: create assets dir: %w", err)
	}
	if err := os.WriteFile(o.assetPath(img.Filename), encoded, 0o644); err != nil {
		return "", fmt.Errorf("sitegen: write image: %w", err)
	}
	if err := o.store.SaveImage(img); err != nil {
		return "", fmt.Errorf("sitegen: save image: %w", err)
	}
	o.processed++
	o.log.Debug("Optimized image", "src", src, "filename", img.Filename, "width", img.Width, "height", img.Height)
	return o.remember(src, img), nil
}

func (o *imageOptimizer) assetPath(filename string) string {
	return filepath.Join(o.outDir, assetsDir, filename)
}

func (o *imageOptimizer) remember(src string, img Image) string {
	u := "/" + assetsDir + "/" + img.Filename
	o.urls[src] = u
	return u
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
