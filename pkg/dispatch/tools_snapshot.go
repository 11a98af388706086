package dispatch

import (
	"context"
	"fmt"

	"appmcp/pkg/directory"
	"appmcp/pkg/errs"
	"appmcp/pkg/snapshot"
)

// fastRecognitionSide is the smaller downscale ceiling used when a caller
// asks for recognition_level=fast: less pixel data to run OCR over, at the
// cost of small-text accuracy.
const fastRecognitionSide = 240

// resolveTargetWindow implements the common "bundle_id / opt window"
// parameter shape shared by capture_ui_snapshot, elements_snapshot and
// read_content: an explicit window_handle wins when present, otherwise the
// bundle_id is resolved to its application's default window.
func (s *Server) resolveTargetWindow(args map[string]interface{}) (string, error) {
	if wh, ok := argString(args, "window"); ok {
		return wh, nil
	}
	bundleID, err := requireString(args, "bundle_id")
	if err != nil {
		return "", err
	}
	appHandle, err := s.dir.ResolveApp(directory.AppSelector{BundleID: bundleID})
	if err != nil {
		return "", err
	}
	return s.dir.ResolveWindow(appHandle, directory.WindowSelector{})
}

func parseQuery(args map[string]interface{}) *snapshot.Query {
	obj, ok := argObject(args, "query")
	if !ok {
		return nil
	}
	q := &snapshot.Query{}
	q.Role, _ = argString(obj, "role")
	q.Title, _ = argString(obj, "title")
	q.Identifier, _ = argString(obj, "identifier")
	enabled := true
	if v, present := obj["enabled"]; present {
		if b, ok := v.(bool); ok {
			enabled = b
		}
	}
	q.Enabled = &enabled
	return q
}

func (s *Server) buildSnapshot(windowHandle string, withImage bool, args map[string]interface{}) (*snapshot.Snapshot, error) {
	ref, err := s.dir.WindowRef(windowHandle)
	if err != nil {
		return nil, err
	}
	bounds, err := s.dir.WindowBounds(windowHandle)
	if err != nil {
		return nil, err
	}
	title, _ := s.dir.WindowTitle(windowHandle)

	opts := snapshot.Options{
		Query:        parseQuery(args),
		WithImage:    withImage,
		WithOCR:      argBool(args, "include_text_recognition", false),
		MaxImageSide: s.maxImageSide,
	}
	if level, ok := argString(args, "recognition_level"); ok {
		switch level {
		case "accurate":
		case "fast":
			opts.MaxImageSide = fastRecognitionSide
		default:
			return nil, errs.New(errs.InvalidParams, "recognition_level must be accurate or fast")
		}
	}
	return s.pipeline.Build(windowHandle, ref, title, bounds, opts)
}

type captureUISnapshotTool struct{ s *Server }

func (t *captureUISnapshotTool) Name() string { return "capture_ui_snapshot" }
func (t *captureUISnapshotTool) Description() string {
	return "Captures the accessibility tree and a compressed image of a window, optionally filtered and OCR'd."
}
func (t *captureUISnapshotTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"bundle_id":                map[string]interface{}{"type": "string"},
			"window":                   map[string]interface{}{"type": "string"},
			"query":                    map[string]interface{}{"type": "object"},
			"include_text_recognition": map[string]interface{}{"type": "boolean"},
		},
	}
}
func (t *captureUISnapshotTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	windowHandle, err := t.s.resolveTargetWindow(args)
	if err != nil {
		return nil, err
	}
	snap, err := t.s.buildSnapshot(windowHandle, true, args)
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("UI Snapshot captured. Elements found: %d.", snap.ElementCount)
	if snap.ImageSource == snapshot.SourceOversizeMD {
		text = fmt.Sprintf("UI Snapshot captured (size-exceeded, metadata only). Elements found: %d. Use elements_snapshot to avoid the image.", snap.ElementCount)
	} else if snap.ImageDataURI != "" {
		text += " " + snap.ImageDataURI
	}

	out := map[string]interface{}{
		"summary":       text,
		"window_title":  snap.WindowTitle,
		"bounds":        snap.Bounds,
		"element_count": snap.ElementCount,
		"elements":      snap.Root,
		"ocr":           snap.OCR,
		"ocr_error":     snap.OCRError,
	}
	// Above the size ceiling the response is metadata only: no image key at
	// all, not an empty one.
	if snap.ImageSource != snapshot.SourceOversizeMD && snap.ImageDataURI != "" {
		out["image"] = snap.ImageDataURI
	}
	return out, nil
}

type elementsSnapshotTool struct{ s *Server }

func (t *elementsSnapshotTool) Name() string { return "elements_snapshot" }
func (t *elementsSnapshotTool) Description() string {
	return "Like capture_ui_snapshot but never captures or returns a window image."
}
func (t *elementsSnapshotTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"bundle_id": map[string]interface{}{"type": "string"},
			"window":    map[string]interface{}{"type": "string"},
			"query":     map[string]interface{}{"type": "object"},
		},
	}
}
func (t *elementsSnapshotTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	windowHandle, err := t.s.resolveTargetWindow(args)
	if err != nil {
		return nil, err
	}
	snap, err := t.s.buildSnapshot(windowHandle, false, args)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"window_title":  snap.WindowTitle,
		"element_count": snap.ElementCount,
		"elements":      snap.Root,
	}, nil
}

type readContentTool struct{ s *Server }

func (t *readContentTool) Name() string { return "read_content" }
func (t *readContentTool) Description() string {
	return "Runs OCR over a window's current pixels and returns the recognized text blocks."
}
func (t *readContentTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"bundle_id":         map[string]interface{}{"type": "string"},
			"window":            map[string]interface{}{"type": "string"},
			"recognition_level": map[string]interface{}{"type": "string", "enum": []string{"accurate", "fast"}},
		},
		"required": []string{"bundle_id"},
	}
}
func (t *readContentTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	windowHandle, err := t.s.resolveTargetWindow(args)
	if err != nil {
		return nil, err
	}
	args["include_text_recognition"] = true
	snap, err := t.s.buildSnapshot(windowHandle, false, args)
	if err != nil {
		return nil, err
	}
	if snap.OCRError != "" {
		return nil, fmt.Errorf("%s", snap.OCRError)
	}
	return snap.OCR, nil
}
