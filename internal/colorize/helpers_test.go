package colorize

import (
	"image"
	"image/color"
)

func solidGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func filledChroma(a, b float32) *ChromaTensor {
	t := NewChromaTensor()
	for i := range t.A() {
		t.A()[i] = a
		t.B()[i] = b
	}
	return t
}

func filledLightness(l float32) []float32 {
	p := make([]float32, planeLen)
	for i := range p {
		p[i] = l
	}
	return p
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
