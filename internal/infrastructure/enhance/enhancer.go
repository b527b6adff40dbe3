package enhance

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Register decoders for the formats the upload boundary accepts
	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	"github.com/cardlens/backend/internal/domain"
)

// Enhancer prepares a raw card photo for recognition. The same pipeline runs
// for both strategies; the dark strategy inverts tones first so reversed-
// contrast cards end up looking like dark text on a light background.
//
// The transform is deterministic: identical input bytes and strategy always
// produce identical output bytes.
type Enhancer struct {
	maxDimension int
	threshold    uint8
}

// NewEnhancer creates an enhancer bounded to maxDimension pixels on the long
// edge, binarizing at the given threshold (0-255).
func NewEnhancer(maxDimension, binarizeThreshold int) *Enhancer {
	if maxDimension <= 0 {
		maxDimension = 1600
	}
	if binarizeThreshold <= 0 || binarizeThreshold > 255 {
		binarizeThreshold = 160
	}
	return &Enhancer{
		maxDimension: maxDimension,
		threshold:    uint8(binarizeThreshold),
	}
}

// Enhance runs the preprocessing pipeline: bound to max dimension, reduce to
// a single channel, histogram-equalize, sharpen, binarize, encode as PNG.
// The input buffer is never mutated.
func (e *Enhancer) Enhance(raw []byte, strategy domain.EnhanceStrategy) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrProcessing, err)
	}

	gray := toGray(bound(img, e.maxDimension))

	if strategy == domain.StrategyDark {
		invert(gray)
	}

	equalize(gray)
	gray = sharpen(gray)
	binarize(gray, e.threshold)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", domain.ErrProcessing, err)
	}
	return buf.Bytes(), nil
}

// bound scales the image down so its longest edge is at most maxDim pixels,
// preserving aspect ratio. Images already within bounds pass through.
func bound(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(longest)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// toGray reduces the image to a single luminance channel
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return gray
}

// invert flips every luminance value in place
func invert(g *image.Gray) {
	for i := range g.Pix {
		g.Pix[i] = 255 - g.Pix[i]
	}
}

// equalize applies histogram equalization in place, spreading the tonal range
// so faint print separates from the card background
func equalize(g *image.Gray) {
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}

	total := len(g.Pix)
	if total == 0 {
		return
	}

	// Cumulative distribution, anchored at the first occupied bin
	var cdf [256]int
	sum := 0
	for i := 0; i < 256; i++ {
		sum += hist[i]
		cdf[i] = sum
	}

	cdfMin := 0
	for i := 0; i < 256; i++ {
		if hist[i] > 0 {
			cdfMin = cdf[i]
			break
		}
	}
	if cdfMin == total {
		// Flat image, nothing to spread
		return
	}

	var lut [256]uint8
	for i := 0; i < 256; i++ {
		v := float64(cdf[i]-cdfMin) / float64(total-cdfMin) * 255.0
		if v < 0 {
			v = 0
		}
		lut[i] = uint8(v + 0.5)
	}

	for i, p := range g.Pix {
		g.Pix[i] = lut[p]
	}
}

// sharpen applies a 3x3 sharpening kernel and returns a new image.
// Border pixels are copied unchanged.
func sharpen(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	copy(out.Pix, g.Pix)

	if w < 3 || h < 3 {
		return out
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := int(g.GrayAt(x, y).Y)
			v := 5*center -
				int(g.GrayAt(x, y-1).Y) -
				int(g.GrayAt(x, y+1).Y) -
				int(g.GrayAt(x-1, y).Y) -
				int(g.GrayAt(x+1, y).Y)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.Pix[out.PixOffset(x, y)] = uint8(v)
		}
	}
	return out
}

// binarize thresholds every pixel to pure black or white in place
func binarize(g *image.Gray, threshold uint8) {
	for i, p := range g.Pix {
		if p >= threshold {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
}
