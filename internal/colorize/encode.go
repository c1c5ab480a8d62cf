package colorize

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// maxSourceDimension bounds the captured image on either axis.
const maxSourceDimension = 65536

// Encode stretches img to 256x256 and writes its R,G,B components, scaled to [0,1],
// into a planar input tensor. Alpha is discarded.
func Encode(img image.Image) (t *InputTensor, err error) {
	if err := checkSource(img); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("%w: rasterize source: %v", ErrEncode, r)
		}
	}()

	resized := resize.Resize(TensorSize, TensorSize, img, resize.Bilinear)
	bounds := resized.Bounds()
	if bounds.Dx() != TensorSize || bounds.Dy() != TensorSize {
		return nil, fmt.Errorf("%w: resized to %dx%d", ErrEncode, bounds.Dx(), bounds.Dy())
	}

	t = NewInputTensor()
	rp, gp, bp := t.Plane(0), t.Plane(1), t.Plane(2)
	for y := 0; y < TensorSize; y++ {
		for x := 0; x < TensorSize; x++ {
			r, g, b := rgb8(resized.At(bounds.Min.X+x, bounds.Min.Y+y))
			i := y*TensorSize + x
			rp[i] = float32(r) / 255.0
			gp[i] = float32(g) / 255.0
			bp[i] = float32(b) / 255.0
		}
	}
	return t, nil
}

func checkSource(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: no source image", ErrEncode)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: invalid image dimensions: %dx%d", ErrEncode, b.Dx(), b.Dy())
	}
	if b.Dx() > maxSourceDimension || b.Dy() > maxSourceDimension {
		return fmt.Errorf("%w: image too large: %dx%d", ErrEncode, b.Dx(), b.Dy())
	}
	return nil
}

// rgb8 returns the non-premultiplied 8-bit components of c.
func rgb8(c color.Color) (r, g, b uint8) {
	if rgba, ok := c.(color.RGBA); ok && rgba.A == 0xff {
		return rgba.R, rgba.G, rgba.B
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}
