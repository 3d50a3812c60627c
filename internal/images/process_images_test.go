package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/kit/pkg/colorlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestEnv(t *testing.T) (*common.Config, string) {
	t.Helper()

	config := &common.Config{
		RootDir: t.TempDir(),
		Logger:  &colorlog.Log{},
	}
	config.ApplyDefaults()

	srcDir := config.Path(config.ImagesDir)
	require.NoError(t, os.MkdirAll(srcDir, 0755))
	return config, srcDir
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	return img
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, b, 0644))
}

func TestProcessAllWritesValidImagesAndSkipsCorrupt(t *testing.T) {
	config, srcDir := setupTestEnv(t)

	var pngBuf bytes.Buffer
	require.NoError(t, (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&pngBuf, testImage()))
	writeFile(t, filepath.Join(srcDir, "logo.png"), pngBuf.Bytes())

	var jpgBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpgBuf, testImage(), &jpeg.Options{Quality: 100}))
	writeFile(t, filepath.Join(srcDir, "photo.jpg"), jpgBuf.Bytes())

	var gifBuf bytes.Buffer
	require.NoError(t, gif.Encode(&gifBuf, testImage(), nil))
	writeFile(t, filepath.Join(srcDir, "anim.gif"), gifBuf.Bytes())

	svgSrc := "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"10\" height=\"10\">\n  <rect   x=\"0\" y=\"0\" width=\"10\" height=\"10\" />\n</svg>\n"
	writeFile(t, filepath.Join(srcDir, "icon.svg"), []byte(svgSrc))

	writeFile(t, filepath.Join(srcDir, "broken.png"), []byte("not a png"))
	writeFile(t, filepath.Join(srcDir, "notes.txt"), []byte("hello"))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "nested"), 0755))
	writeFile(t, filepath.Join(srcDir, "nested", "deep.png"), pngBuf.Bytes())

	require.NoError(t, NewProcessor(config).ProcessAll(context.Background()))

	distDir := config.GetDistImagesDir()

	pngOut, err := os.ReadFile(filepath.Join(distDir, "logo.png"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(pngOut), pngBuf.Len())
	_, err = png.Decode(bytes.NewReader(pngOut))
	assert.NoError(t, err)

	jpgOut, err := os.ReadFile(filepath.Join(distDir, "photo.jpg"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(jpgOut), jpgBuf.Len())

	gifOut, err := os.ReadFile(filepath.Join(distDir, "anim.gif"))
	require.NoError(t, err)
	assert.Equal(t, gifBuf.Bytes(), gifOut)

	svgOut, err := os.ReadFile(filepath.Join(distDir, "icon.svg"))
	require.NoError(t, err)
	assert.Less(t, len(svgOut), len(svgSrc))

	for _, skipped := range []string{"broken.png", "notes.txt", "deep.png", filepath.Join("nested", "deep.png")} {
		_, err := os.Stat(filepath.Join(distDir, skipped))
		assert.True(t, os.IsNotExist(err), skipped)
	}
}

func TestProcessAllMissingDirectory(t *testing.T) {
	config := &common.Config{RootDir: t.TempDir(), Logger: &colorlog.Log{}}
	config.ApplyDefaults()

	assert.NoError(t, NewProcessor(config).ProcessAll(context.Background()))
}
