package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// preprocess runs the enhancement chain that maximizes recognizer accuracy:
// grayscale, rotation correction, adaptive contrast, sharpening, upscaling to
// a minimum pixel dimension, and a light threshold pass.
func preprocess(src image.Image, minPixelSide int) image.Image {
	img := imaging.Grayscale(src)

	// Receipts photographed sideways: a strongly landscape frame is rotated
	// upright before recognition. The sparse-osd pass catches the rest.
	b := img.Bounds()
	if b.Dx() > b.Dy()*3/2 {
		img = imaging.Rotate90(img)
		b = img.Bounds()
	}

	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustGamma(img, 1.2)

	// Upscale low-resolution sources; recognition quality drops sharply
	// below ~1200px on the long side.
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	if long < minPixelSide && long > 0 {
		scale := float64(minPixelSide) / float64(long)
		img = imaging.Resize(img, int(float64(b.Dx())*scale), 0, imaging.Lanczos)
	}

	// Soft threshold: push near-white to white and near-black to black,
	// keeping midtones so anti-aliased glyph edges survive.
	img = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		switch {
		case c.R > 200:
			return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
		case c.R < 60:
			return color.NRGBA{R: 0, G: 0, B: 0, A: c.A}
		default:
			return c
		}
	})
	return img
}

// encodePNG serializes a preprocessed frame for the recognizer.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeImage reads raw uploaded bytes into an image.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
