package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/p1sangmas/SmartColorizer/internal/colorize"
)

// Metadata describes the model's tensor bindings.
type Metadata struct {
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
	ImageSize   int     `json:"image_size"`
}

// DefaultMetadata matches the exported colorization model.
func DefaultMetadata() Metadata {
	return Metadata{
		InputName:   "img_rgb",
		OutputName:  "output_ab",
		InputShape:  []int64{1, 3, colorize.TensorSize, colorize.TensorSize},
		OutputShape: colorize.ChromaShape(),
		ImageSize:   colorize.TensorSize,
	}
}

// LoadMetadata reads a metadata file, filling omitted fields with defaults.
// An empty path yields DefaultMetadata.
func LoadMetadata(path string) (Metadata, error) {
	metadata := DefaultMetadata()
	if path == "" {
		return metadata, nil
	}

	metaFile, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var parsed Metadata
	if err := json.Unmarshal(metaFile, &parsed); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if parsed.InputName != "" {
		metadata.InputName = parsed.InputName
	}
	if parsed.OutputName != "" {
		metadata.OutputName = parsed.OutputName
	}
	if len(parsed.InputShape) > 0 {
		metadata.InputShape = parsed.InputShape
	}
	if len(parsed.OutputShape) > 0 {
		metadata.OutputShape = parsed.OutputShape
	}
	if parsed.ImageSize != 0 {
		metadata.ImageSize = parsed.ImageSize
	}

	if err := metadata.validate(); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata %s: %w", path, err)
	}
	return metadata, nil
}

func (m Metadata) validate() error {
	if m.ImageSize != colorize.TensorSize {
		return fmt.Errorf("image_size %d, pipeline requires %d", m.ImageSize, colorize.TensorSize)
	}
	want := int64(3 * colorize.TensorSize * colorize.TensorSize)
	if got := elements(m.InputShape); got != want {
		return fmt.Errorf("input_shape %v holds %d values, want %d", m.InputShape, got, want)
	}
	if elements(m.OutputShape) <= 0 {
		return fmt.Errorf("output_shape %v is empty", m.OutputShape)
	}
	return nil
}

func elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}
