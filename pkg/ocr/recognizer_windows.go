//go:build windows

package ocr

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
)

// modelEnvOnce guards onnxruntime's process-wide environment init, which
// the library only allows to run once per process.
var modelEnvOnce sync.Once
var modelEnvErr error

func ensureEnvironment() error {
	modelEnvOnce.Do(func() {
		if path := os.Getenv("APPMCP_ORT_SHARED_LIBRARY"); path != "" {
			ort.SetSharedLibraryPath(path)
		}
		modelEnvErr = ort.InitializeEnvironment()
	})
	return modelEnvErr
}

// OnnxRecognizer runs a detection model followed by a recognition model,
// the standard two-stage OCR shape: find text regions, then read each one.
type OnnxRecognizer struct {
	detect *ort.DynamicAdvancedSession
	recog  *ort.DynamicAdvancedSession
}

// NewOnnxRecognizer loads both models. detectModelPath and recogModelPath
// fall back to APPMCP_OCR_DETECT_MODEL / APPMCP_OCR_RECOGNIZE_MODEL when
// empty.
func NewOnnxRecognizer(detectModelPath, recogModelPath string) (*OnnxRecognizer, error) {
	if err := ensureEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime environment: %w", err)
	}
	if detectModelPath == "" {
		detectModelPath = os.Getenv("APPMCP_OCR_DETECT_MODEL")
	}
	if recogModelPath == "" {
		recogModelPath = os.Getenv("APPMCP_OCR_RECOGNIZE_MODEL")
	}
	if detectModelPath == "" || recogModelPath == "" {
		return nil, fmt.Errorf("OCR model paths not configured")
	}

	detect, err := ort.NewDynamicAdvancedSession(detectModelPath,
		[]string{"input"}, []string{"output"}, nil)
	if err != nil {
		return nil, fmt.Errorf("load detection model: %w", err)
	}
	recog, err := ort.NewDynamicAdvancedSession(recogModelPath,
		[]string{"input"}, []string{"output"}, nil)
	if err != nil {
		detect.Destroy()
		return nil, fmt.Errorf("load recognition model: %w", err)
	}

	return &OnnxRecognizer{detect: detect, recog: recog}, nil
}

// Recognize runs detection over the whole image, then recognition over
// each detected region, assembling a Result in the order the detection
// model reported the regions (no reading-order sort is applied).
func (r *OnnxRecognizer) Recognize(rgba []byte, width, height int) (Result, error) {
	start := time.Now()

	regions, err := r.runDetection(rgba, width, height)
	if err != nil {
		return Result{}, fmt.Errorf("text detection: %w", err)
	}

	blocks := make([]TextBlock, 0, len(regions))
	var full strings.Builder
	for _, reg := range regions {
		text, confidence, err := r.runRecognition(rgba, width, height, reg)
		if err != nil {
			continue // one unreadable region does not fail the whole pass
		}
		if text == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteByte(' ')
		}
		full.WriteString(text)
		blocks = append(blocks, TextBlock{
			Text:       text,
			X:          reg.x,
			Y:          reg.y,
			Width:      reg.w,
			Height:     reg.h,
			Confidence: confidence,
		})
	}

	return Result{
		Blocks:         blocks,
		FullText:       full.String(),
		ProcessingTime: time.Since(start),
	}, nil
}

// Close releases both underlying ONNX sessions.
func (r *OnnxRecognizer) Close() error {
	if r.recog != nil {
		r.recog.Destroy()
	}
	if r.detect != nil {
		r.detect.Destroy()
	}
	return nil
}

// runDetection feeds the full raster through the detection model and
// decodes its output into candidate text-region boxes. The exact decode
// (score thresholding plus box extraction) is model-specific; this
// implementation assumes the common single-output box-list shape used by
// the small detection models bundled with desktop OCR runtimes.
func (r *OnnxRecognizer) runDetection(rgba []byte, width, height int) ([]region, error) {
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(height), int64(width)), toCHWFloat(rgba, width, height))
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, maxDetections, 5))
	if err != nil {
		return nil, err
	}
	defer output.Destroy()

	if err := r.detect.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, err
	}

	return decodeDetectionBoxes(output.GetData(), width, height), nil
}

// runRecognition crops to reg and runs the recognition model over the crop.
func (r *OnnxRecognizer) runRecognition(rgba []byte, width, height int, reg region) (string, float64, error) {
	cropped := cropFloat(rgba, width, height, reg)
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(reg.h), int64(reg.w)), cropped)
	if err != nil {
		return "", 0, err
	}
	defer input.Destroy()

	classes := int64(len(recognitionAlphabet) + 1)
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, maxRecognitionLen, classes))
	if err != nil {
		return "", 0, err
	}
	defer output.Destroy()

	if err := r.recog.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return "", 0, err
	}

	return decodeRecognitionOutput(output.GetData())
}
