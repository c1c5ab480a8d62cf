package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/p1sangmas/SmartColorizer/internal/colorize"
	"github.com/p1sangmas/SmartColorizer/internal/config"
)

// Bound tensors must satisfy the session's binding type.
var _ ort.ArbitraryTensor = (*ort.Tensor[float32])(nil)

var _ colorize.Invoker = (*Session)(nil)

func TestNewSessionRejectsBadMetadataBeforeRuntime(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewSession(config.Model{
		Path:         "colorizer.onnx",
		MetadataPath: filepath.Join(t.TempDir(), "missing.json"),
	}, logger)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, ort.IsInitialized())

	_, err = NewSession(config.Model{
		Path:         "colorizer.onnx",
		MetadataPath: writeFile(t, "meta.json", `{"image_size": 512}`),
	}, logger)
	assert.ErrorContains(t, err, "image_size")
	assert.False(t, ort.IsInitialized())
}
