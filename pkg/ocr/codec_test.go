package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeDetectionBoxesDropsLowScore(t *testing.T) {
	flat := []float32{
		0.9, 10, 10, 50, 20,
		0.1, 100, 100, 50, 20,
	}
	regions := decodeDetectionBoxes(flat, 800, 600)
	assert.Len(t, regions, 1)
	assert.Equal(t, 10, regions[0].x)
}

func TestDecodeDetectionBoxesClampsToImage(t *testing.T) {
	flat := []float32{0.9, 790, 590, 9999, 9999}
	regions := decodeDetectionBoxes(flat, 800, 600)
	assert.Len(t, regions, 1)
	assert.LessOrEqual(t, regions[0].x+regions[0].w, 800)
	assert.LessOrEqual(t, regions[0].y+regions[0].h, 600)
}

func TestDecodeRecognitionOutputCollapsesRepeats(t *testing.T) {
	classes := len(recognitionAlphabet) + 1
	flat := make([]float32, classes*3)
	// Step 0 and 1 both pick the same class (collapsed to one character),
	// step 2 picks blank.
	letterIdx := 1 // recognitionAlphabet[0] == ' '
	flat[0*classes+letterIdx] = 0.9
	flat[1*classes+letterIdx] = 0.9
	flat[2*classes+0] = 0.9

	text, confidence, err := decodeRecognitionOutput(flat)
	assert.NoError(t, err)
	assert.Equal(t, string(recognitionAlphabet[0]), text)
	assert.Greater(t, confidence, 0.0)
}

func TestDecodeRecognitionOutputEmptyOnAllBlank(t *testing.T) {
	classes := len(recognitionAlphabet) + 1
	flat := make([]float32, classes*2)
	flat[0*classes+0] = 1.0
	flat[1*classes+0] = 1.0

	text, _, err := decodeRecognitionOutput(flat)
	assert.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestToCHWFloatNormalizes(t *testing.T) {
	rgba := []byte{255, 0, 128, 255}
	out := toCHWFloat(rgba, 1, 1)
	assert.InDelta(t, 1.0, out[0], 0.01)
	assert.InDelta(t, 0.0, out[1], 0.01)
	assert.InDelta(t, 0.5, out[2], 0.01)
}
