//go:build !windows

package ocr

import "appmcp/pkg/errs"

// StubRecognizer reports unavailability on non-Windows builds.
type StubRecognizer struct{}

func NewOnnxRecognizer(detectModelPath, recogModelPath string) (*StubRecognizer, error) {
	return &StubRecognizer{}, nil
}

func (r *StubRecognizer) Recognize(rgba []byte, width, height int) (Result, error) {
	return Result{}, errs.New(errs.SystemError, "OCR is only available on Windows")
}

func (r *StubRecognizer) Close() error { return nil }
