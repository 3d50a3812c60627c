package images

import (
	"bytes"
	"context"
	"fmt"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/kit/pkg/fsutil"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
	"golang.org/x/sync/errgroup"
)

const (
	jpegQuality = 90
	svgMimeType = "image/svg+xml"
)

// recognized image types that are copied without re-encoding
var copyOnlyExts = map[string]bool{
	".webp": true,
	".ico":  true,
	".bmp":  true,
	".avif": true,
}

type Processor struct {
	cfg *common.Config
	m   *minify.M
}

func NewProcessor(cfg *common.Config) *Processor {
	m := minify.New()
	m.AddFunc(svgMimeType, svg.Minify)
	return &Processor{cfg: cfg, m: m}
}

// ProcessAll optimizes every file directly inside the images directory into
// dist/assets/img. Files that cannot be decoded are skipped with a warning;
// only filesystem failures on the output side are returned.
func (p *Processor) ProcessAll(ctx context.Context) error {
	srcDir := p.cfg.Path(p.cfg.ImagesDir)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading images directory: %v", err)
	}

	distDir := p.cfg.GetDistImagesDir()
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("error creating images output directory: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return p.processFile(filepath.Join(srcDir, name), filepath.Join(distDir, name))
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	p.cfg.Logger.Infof("processed images")
	return nil
}

func (p *Processor) processFile(src, dst string) error {
	name := filepath.Base(src)
	ext := strings.ToLower(filepath.Ext(name))

	if copyOnlyExts[ext] {
		if err := fsutil.CopyFile(src, dst); err != nil {
			return fmt.Errorf("error copying %s: %v", name, err)
		}
		return nil
	}

	original, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("error reading %s: %v", name, err)
	}

	var optimized []byte
	switch ext {
	case ".png":
		optimized, err = reencodePNG(original)
	case ".jpg", ".jpeg":
		optimized, err = reencodeJPEG(original)
	case ".gif":
		// validated only, gifs are copied unchanged
		_, err = gif.DecodeAll(bytes.NewReader(original))
		if err == nil {
			if err := fsutil.CopyFile(src, dst); err != nil {
				return fmt.Errorf("error copying %s: %v", name, err)
			}
			return nil
		}
	case ".svg":
		optimized, err = p.m.Bytes(svgMimeType, original)
	default:
		p.cfg.Logger.Warning(fmt.Sprintf("skipping %s: unsupported image type", name))
		return nil
	}
	if err != nil {
		p.cfg.Logger.Warning(fmt.Sprintf("skipping %s: %v", name, err))
		return nil
	}

	out := original
	if len(optimized) > 0 && len(optimized) < len(original) {
		out = optimized
	}
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return fmt.Errorf("error writing %s: %v", name, err)
	}
	return nil
}

func reencodePNG(b []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reencodeJPEG(b []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
