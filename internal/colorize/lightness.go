package colorize

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// ExtractLightness rasterizes the original image into a 256x256 8-bit intensity
// buffer and scales each sample v to L* = v/255*100.
func ExtractLightness(img image.Image, transform GrayTransform) (plane []float32, err error) {
	if err := checkSource(img); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			plane, err = nil, fmt.Errorf("%w: rasterize lightness: %v", ErrEncode, r)
		}
	}()

	gray := rasterizeGray(img, transform)
	plane = make([]float32, planeLen)
	for y := 0; y < TensorSize; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+TensorSize]
		for x, v := range row {
			plane[y*TensorSize+x] = float32(v) / 255.0 * 100.0
		}
	}
	return plane, nil
}

func rasterizeGray(img image.Image, transform GrayTransform) *image.Gray {
	rect := image.Rect(0, 0, TensorSize, TensorSize)
	gray := image.NewGray(rect)
	if transform == GrayLuma {
		xdraw.BiLinear.Scale(gray, rect, img, img.Bounds(), xdraw.Src, nil)
		return gray
	}

	scaled := image.NewRGBA64(rect)
	xdraw.BiLinear.Scale(scaled, rect, img, img.Bounds(), xdraw.Src, nil)
	for y := 0; y < TensorSize; y++ {
		for x := 0; x < TensorSize; x++ {
			gray.Pix[y*gray.Stride+x] = perceptualGray(scaled.RGBA64At(x, y))
		}
	}
	return gray
}

// perceptualGray encodes the L* of a pixel's relative luminance as 0..255.
func perceptualGray(c color.Color) uint8 {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return 0
	}
	if a != 0xffff {
		r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
	}
	lum := 0.2126*srgbInvOetf(float64(r)/0xffff) +
		0.7152*srgbInvOetf(float64(g)/0xffff) +
		0.0722*srgbInvOetf(float64(b)/0xffff)
	lstar := 116*labForward(lum/whiteY) - 16
	return clampToByte(lstar / 100 * 255)
}
