package snapshot

import (
	"image"
	"image/draw"
	"time"

	"appmcp/pkg/capture"
	"appmcp/pkg/coords"
	"appmcp/pkg/errs"
	"appmcp/pkg/handle"
	"appmcp/pkg/ocr"
	"appmcp/pkg/uia"
)

// Source tags where a snapshot's pixels, if any, came from. Kept as an
// explicit enum (rather than a bool) because a future capture backend might
// add a third source.
type Source string

const (
	SourceNone       Source = "none"
	SourceRaster     Source = "raster"
	SourceOversizeMD Source = "metadata_only"
)

// Element is the wire-ready shape of one uia.Node: the nesting a controller
// sees, with a registry-backed element_id instead of a live OS reference.
type Element struct {
	ID         string      `json:"id"`
	Role       string      `json:"role"`
	Title      string      `json:"title,omitempty"`
	Value      string      `json:"value,omitempty"`
	Identifier string      `json:"identifier,omitempty"`
	Enabled    bool        `json:"enabled"`
	Bounds     coords.Rect `json:"bounds"`
	Children   []*Element  `json:"children,omitempty"`
}

// Snapshot is the immutable result of one capture_ui_snapshot/
// elements_snapshot/read_content call.
type Snapshot struct {
	WindowHandle string
	Timestamp    time.Time
	WindowTitle  string
	Bounds       coords.Rect
	ElementCount int
	Root         *Element
	ImageDataURI string
	ImageSource  Source
	OCR          *ocr.Result
	OCRError     string
}

// Options controls which optional stages Build runs.
type Options struct {
	Query        *Query
	WithImage    bool
	WithOCR      bool
	MaxImageSide int
	WalkLimits   uia.WalkLimits
}

// Pipeline wires the OS-facing walker, raster capturer, OCR recognizer and
// handle registry into one walk-filter-emit pass.
type Pipeline struct {
	walker     uia.Walker
	capturer   capture.Capturer
	recognizer ocr.Recognizer
	registry   *handle.Registry
}

// NewPipeline constructs a pipeline. recognizer may be nil when OCR support
// is unavailable; callers requesting WithOCR against a nil recognizer get a
// populated OCRError instead of a failed snapshot.
func NewPipeline(walker uia.Walker, capturer capture.Capturer, recognizer ocr.Recognizer, registry *handle.Registry) *Pipeline {
	return &Pipeline{walker: walker, capturer: capturer, recognizer: recognizer, registry: registry}
}

// Build performs the full pipeline against windowHandle/windowRef, whose
// bounds are already known in global screen coordinates.
func (p *Pipeline) Build(windowHandle string, windowRef interface{}, windowTitle string, bounds coords.Rect, opts Options) (*Snapshot, error) {
	root, err := p.walker.RootElement(windowRef)
	if err != nil {
		return nil, errs.Wrap(errs.ElementNotAccessible, "read accessibility root", err)
	}

	limits := opts.WalkLimits
	if limits.MaxDepth == 0 && limits.MaxNodes == 0 {
		limits = uia.DefaultWalkLimits
	}
	walked, err := uia.Walk(p.walker, windowHandle, root, limits)
	if err != nil {
		return nil, errs.Wrap(errs.ElementNotAccessible, "walk accessibility tree", err)
	}

	filtered := Filter(walked.Root, opts.Query)

	snap := &Snapshot{
		WindowHandle: windowHandle,
		Timestamp:    time.Now(),
		WindowTitle:  windowTitle,
		Bounds:       bounds,
		ElementCount: walked.NodeCount,
		ImageSource:  SourceNone,
	}
	if filtered != nil {
		snap.Root = p.emit(windowHandle, filtered)
	}

	var imgForOCR []byte
	var imgW, imgH int

	if opts.WithImage || opts.WithOCR {
		maxSide := opts.MaxImageSide
		if maxSide == 0 {
			maxSide = capture.MaxLongSide
		}
		img, capErr := p.capturer.CaptureWindow(windowRef, bounds)
		if capErr == nil {
			small, scaleErr := capture.Downscale(img, maxSide)
			if scaleErr == nil {
				if opts.WithImage {
					enc, encErr := capture.Encode(small)
					if encErr == nil {
						if enc.OverCeiling {
							snap.ImageSource = SourceOversizeMD
						} else {
							snap.ImageDataURI = enc.DataURI
							snap.ImageSource = SourceRaster
						}
					}
				}
				if opts.WithOCR {
					// Text recognition runs over the same downscaled raster
					// the controller sees, not the full-resolution capture.
					imgForOCR, imgW, imgH = rgbaBytes(small)
				}
			}
		}
	}

	if opts.WithOCR {
		if p.recognizer == nil {
			snap.OCRError = "OCR is not available in this build"
		} else if imgForOCR == nil {
			snap.OCRError = "window capture failed; OCR skipped"
		} else {
			result, ocrErr := p.recognizer.Recognize(imgForOCR, imgW, imgH)
			if ocrErr != nil {
				snap.OCRError = ocrErr.Error()
			} else {
				snap.OCR = &result
			}
		}
	}

	return snap, nil
}

// Fingerprint captures the coarse change signal the ui_change wait
// condition compares: the window's current bounds plus a hash of its
// raster, sampled rather than hashed byte-for-byte.
func (p *Pipeline) Fingerprint(windowRef interface{}, bounds coords.Rect) (coords.Fingerprint, error) {
	img, err := p.capturer.CaptureWindow(windowRef, bounds)
	if err != nil {
		return coords.Fingerprint{}, errs.Wrap(errs.SystemError, "capture window for fingerprint", err)
	}
	return coords.Fingerprint{Bounds: bounds, RasterFP: coords.HashRaster(img)}, nil
}

// emit assigns each surviving node a deterministic element id and
// registers it in the handle registry against its live OS reference.
func (p *Pipeline) emit(windowHandle string, n *uia.Node) *Element {
	id := uia.ElementID(windowHandle, n.Path, n.Role)
	p.registry.RegisterElement(id, windowHandle, n.Ref, func(ref interface{}) bool {
		return p.walker.IsAlive(ref)
	})

	out := &Element{
		ID:         id,
		Role:       n.Role,
		Title:      n.Title,
		Value:      n.Value,
		Identifier: n.Identifier,
		Enabled:    n.Enabled,
		Bounds:     n.Bounds,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, p.emit(windowHandle, c))
	}
	return out
}

// rgbaBytes flattens img into tightly packed interleaved RGBA bytes (no
// stride padding), the layout pkg/ocr expects.
func rgbaBytes(img image.Image) ([]byte, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != w*4 {
		tight := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(tight, tight.Bounds(), img, b.Min, draw.Src)
		rgba = tight
	}
	return rgba.Pix, w, h
}
