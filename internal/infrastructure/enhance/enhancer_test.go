package enhance

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/backend/internal/domain"
)

// samplePNG renders a synthetic card: dark text-like bars on a light field
func samplePNG(t *testing.T, w, h int, inverted bool) []byte {
	t.Helper()

	bg := color.Gray{Y: 230}
	fg := color.Gray{Y: 30}
	if inverted {
		bg, fg = fg, bg
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	// A few "text lines"
	for line := 0; line < 4; line++ {
		y0 := 10 + line*20
		r := image.Rect(10, y0, w-10, y0+8)
		draw.Draw(img, r, &image.Uniform{C: fg}, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEnhance_Deterministic(t *testing.T) {
	e := NewEnhancer(1600, 160)
	raw := samplePNG(t, 200, 120, false)

	first, err := e.Enhance(raw, domain.StrategyLight)
	require.NoError(t, err)
	second, err := e.Enhance(raw, domain.StrategyLight)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same input and strategy must produce byte-identical output")
}

func TestEnhance_DoesNotMutateInput(t *testing.T) {
	e := NewEnhancer(1600, 160)
	raw := samplePNG(t, 120, 80, false)
	before := make([]byte, len(raw))
	copy(before, raw)

	_, err := e.Enhance(raw, domain.StrategyDark)
	require.NoError(t, err)

	assert.Equal(t, before, raw)
}

func TestEnhance_StrategiesDiffer(t *testing.T) {
	e := NewEnhancer(1600, 160)
	raw := samplePNG(t, 200, 120, false)

	light, err := e.Enhance(raw, domain.StrategyLight)
	require.NoError(t, err)
	dark, err := e.Enhance(raw, domain.StrategyDark)
	require.NoError(t, err)

	assert.NotEqual(t, light, dark, "inverted pipeline should produce different raster")
}

func TestEnhance_OutputIsBinarizedGrayPNG(t *testing.T) {
	e := NewEnhancer(1600, 160)
	raw := samplePNG(t, 200, 120, false)

	out, err := e.Enhance(raw, domain.StrategyLight)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	gray, ok := img.(*image.Gray)
	require.True(t, ok, "expected single-channel output, got %T", img)

	for _, p := range gray.Pix {
		if p != 0 && p != 255 {
			t.Fatalf("pixel value %d not binarized", p)
		}
	}
}

func TestEnhance_BoundsLargeImages(t *testing.T) {
	e := NewEnhancer(300, 160)
	raw := samplePNG(t, 900, 600, false)

	out, err := e.Enhance(raw, domain.StrategyLight)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	b := img.Bounds()
	assert.LessOrEqual(t, b.Dx(), 300)
	assert.LessOrEqual(t, b.Dy(), 300)
	// Aspect ratio 3:2 preserved
	assert.Equal(t, 300, b.Dx())
	assert.Equal(t, 200, b.Dy())
}

func TestEnhance_SmallImagePassesThrough(t *testing.T) {
	e := NewEnhancer(1600, 160)
	raw := samplePNG(t, 100, 60, false)

	out, err := e.Enhance(raw, domain.StrategyLight)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestEnhance_RejectsGarbage(t *testing.T) {
	e := NewEnhancer(1600, 160)

	_, err := e.Enhance([]byte("not an image at all"), domain.StrategyLight)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProcessing), "error = %v, want ErrProcessing", err)
}

func TestEnhance_DarkCardRecoversLightForeground(t *testing.T) {
	e := NewEnhancer(1600, 160)

	// A reversed-contrast card run through the dark strategy should come out
	// close to the light card run through the light strategy.
	lightRaw := samplePNG(t, 200, 120, false)
	darkRaw := samplePNG(t, 200, 120, true)

	fromLight, err := e.Enhance(lightRaw, domain.StrategyLight)
	require.NoError(t, err)
	fromDark, err := e.Enhance(darkRaw, domain.StrategyDark)
	require.NoError(t, err)

	assert.Equal(t, fromLight, fromDark)
}
