package colorize

import (
	"fmt"
	"image"
)

// ClampChannels returns copies of the a* and b* planes clamped to [-100,100].
// Each channel is clamped using only its own values. The tensor must be valid.
func ClampChannels(t *ChromaTensor) (a, b []float32) {
	return clampPlane(t.A()), clampPlane(t.B())
}

func clampPlane(p []float32) []float32 {
	out := make([]float32, len(p))
	for i, v := range p {
		out[i] = clampChroma(v)
	}
	return out
}

// Reconstruct fuses a lightness plane with predicted chrominance into an opaque
// 256x256 RGBA image. It fails with ErrShape before allocating any output when the
// tensor is not [1,2,256,256], and with ErrConversion when buffer lengths disagree.
func Reconstruct(lightness []float32, chroma *ChromaTensor, opts Options) (*image.RGBA, error) {
	if err := chroma.Validate(); err != nil {
		return nil, err
	}
	if len(chroma.Data) != chromaChannels*planeLen {
		return nil, fmt.Errorf("%w: chrominance holds %d values, shape %v needs %d",
			ErrConversion, len(chroma.Data), chroma.Shape, chromaChannels*planeLen)
	}
	if len(lightness) != planeLen {
		return nil, fmt.Errorf("%w: lightness plane holds %d values, want %d",
			ErrConversion, len(lightness), planeLen)
	}

	a, b := ClampChannels(chroma)
	legacy := opts.WhitePoint == WhitePointLegacy
	out := image.NewRGBA(image.Rect(0, 0, TensorSize, TensorSize))

	parallelFor(TensorSize, opts.workers(), func(start, end int) {
		for y := start; y < end; y++ {
			row := out.Pix[y*out.Stride : y*out.Stride+4*TensorSize]
			for x := 0; x < TensorSize; x++ {
				i := y*TensorSize + x
				r, g, bl := labToRGB8(float64(lightness[i]), float64(a[i]), float64(b[i]), legacy)
				px := row[4*x : 4*x+4 : 4*x+4]
				px[0], px[1], px[2], px[3] = r, g, bl, 0xff
			}
		}
	})
	return out, nil
}
