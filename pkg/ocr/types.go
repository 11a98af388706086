// Package ocr recognizes text in a captured raster, the optional third
// stage of the UI Snapshot Pipeline (C4) invoked by read_content and by
// capture_ui_snapshot when include_text_recognition is set.
package ocr

import "time"

// TextBlock is one recognized line or word, with its bounding box in the
// same pixel space as the source image.
type TextBlock struct {
	Text       string  `json:"text"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Result is the structured OCR output attached to a snapshot or returned
// directly by read_content.
type Result struct {
	Blocks         []TextBlock   `json:"blocks"`
	FullText       string        `json:"full_text"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Recognizer extracts text from a decoded raster image. Implementations:
// recognizer_windows.go (ONNX detection+recognition pipeline) and
// recognizer_stub.go.
type Recognizer interface {
	Recognize(rgba []byte, width, height int) (Result, error)
	Close() error
}

// region is a candidate text bounding box in source-image pixel space,
// produced by the detection stage and consumed by cropping/recognition.
type region struct{ x, y, w, h int }
