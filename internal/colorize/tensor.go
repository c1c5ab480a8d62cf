package colorize

import (
	"fmt"
	"math"
)

// TensorSize is the spatial resolution the model consumes and produces.
const TensorSize = 256

const (
	inputChannels  = 3
	chromaChannels = 2
	planeLen       = TensorSize * TensorSize
)

// InputTensor holds a [3,256,256] planar R,G,B tensor with values in [0,1].
type InputTensor struct {
	Data []float32
}

// NewInputTensor allocates a zeroed input tensor.
func NewInputTensor() *InputTensor {
	return &InputTensor{Data: make([]float32, inputChannels*planeLen)}
}

// Shape returns the tensor dimensions, channels first.
func (t *InputTensor) Shape() []int64 {
	return []int64{inputChannels, TensorSize, TensorSize}
}

// Plane returns channel c (0=R, 1=G, 2=B).
func (t *InputTensor) Plane(c int) []float32 {
	return t.Data[c*planeLen : (c+1)*planeLen]
}

// ChromaTensor is the model output: shape [1,2,256,256], channel 0 = a*, channel 1 = b*.
type ChromaTensor struct {
	Shape []int64
	Data  []float32
}

// NewChromaTensor allocates a zeroed chrominance tensor of the expected shape.
func NewChromaTensor() *ChromaTensor {
	return &ChromaTensor{
		Shape: ChromaShape(),
		Data:  make([]float32, chromaChannels*planeLen),
	}
}

// ChromaShape is the only chrominance shape the reconstructor accepts.
func ChromaShape() []int64 {
	return []int64{1, chromaChannels, TensorSize, TensorSize}
}

// Validate fails with ErrShape unless the shape is exactly [1,2,256,256].
func (t *ChromaTensor) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil chrominance tensor", ErrShape)
	}
	want := ChromaShape()
	if len(t.Shape) != len(want) {
		return fmt.Errorf("%w: chrominance shape %v, want %v", ErrShape, t.Shape, want)
	}
	for i := range want {
		if t.Shape[i] != want[i] {
			return fmt.Errorf("%w: chrominance shape %v, want %v", ErrShape, t.Shape, want)
		}
	}
	return nil
}

// A returns the a* plane. The tensor must be valid.
func (t *ChromaTensor) A() []float32 { return t.Data[:planeLen] }

// B returns the b* plane. The tensor must be valid.
func (t *ChromaTensor) B() []float32 { return t.Data[planeLen : 2*planeLen] }

// ChannelRange is the observed extent of one chrominance channel.
type ChannelRange struct {
	Min, Max float32
}

// ChromaStats reports the raw per-channel range of a valid tensor, before clamping.
func ChromaStats(t *ChromaTensor) (a, b ChannelRange) {
	return planeRange(t.A()), planeRange(t.B())
}

func planeRange(p []float32) ChannelRange {
	r := ChannelRange{Min: math.MaxFloat32, Max: -math.MaxFloat32}
	for _, v := range p {
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	return r
}
