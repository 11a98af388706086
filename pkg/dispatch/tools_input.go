package dispatch

import (
	"context"
	"time"

	"appmcp/pkg/errs"
	"appmcp/pkg/input"
	"appmcp/pkg/uia"
)

// maxClickCount bounds a multi-click burst; anything past a triple click
// has no meaning to any application, and ten leaves headroom.
const maxClickCount = 10

// elementTarget resolves an element_id to the element reference and its
// enabled/bounds attributes, as needed by every C5 input tool.
func (s *Server) elementTarget(args map[string]interface{}, key string) (uia.ElementRef, uia.Attributes, error) {
	elementID, err := requireString(args, key)
	if err != nil {
		return nil, uia.Attributes{}, err
	}
	return s.elementBounds(elementID)
}

type clickElementTool struct{ s *Server }

func (t *clickElementTool) Name() string { return "click_element" }
func (t *clickElementTool) Description() string {
	return "Clicks an element by element_id, preferring the accessibility invoke action over synthesized input."
}
func (t *clickElementTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"element_id": map[string]interface{}{"type": "string"},
			"button":     map[string]interface{}{"type": "string", "enum": []string{"left", "right", "center"}},
			"count":      map[string]interface{}{"type": "integer"},
		},
		"required": []string{"element_id"},
	}
}
func (t *clickElementTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	count := 1
	if n, ok := argInt(args, "count"); ok {
		if n < 1 || n > maxClickCount {
			return nil, errs.New(errs.InvalidParams, "count must be between 1 and 10")
		}
		count = n
	}
	button, _ := argString(args, "button")
	switch button {
	case "", input.ButtonLeft, input.ButtonRight, input.ButtonCenter:
	default:
		return nil, errs.New(errs.InvalidParams, "button must be one of left, right, center")
	}
	el, attrs, err := t.s.elementTarget(args, "element_id")
	if err != nil {
		return nil, err
	}
	if err := t.s.synth.Click(el, attrs.Enabled, attrs.Bounds, button, count); err != nil {
		return nil, err
	}
	return "element clicked", nil
}

type inputTextTool struct{ s *Server }

func (t *inputTextTool) Name() string { return "input_text" }
func (t *inputTextTool) Description() string {
	return "Sets or types text into an element by element_id."
}
func (t *inputTextTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"element_id": map[string]interface{}{"type": "string"},
			"text":       map[string]interface{}{"type": "string"},
			"method":     map[string]interface{}{"type": "string", "enum": []string{"set_value", "type"}},
		},
		"required": []string{"element_id", "text"},
	}
}
func (t *inputTextTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	method, _ := argString(args, "method")
	switch method {
	case "", input.MethodSetValue, input.MethodType:
	default:
		return nil, errs.New(errs.InvalidParams, "method must be set_value or type")
	}
	el, attrs, err := t.s.elementTarget(args, "element_id")
	if err != nil {
		return nil, err
	}
	text, err := requireString(args, "text")
	if err != nil {
		return nil, err
	}
	if err := t.s.synth.InputText(el, attrs.Enabled, text, method); err != nil {
		return nil, err
	}
	return "text entered", nil
}

type dragDropTool struct{ s *Server }

func (t *dragDropTool) Name() string { return "drag_drop" }
func (t *dragDropTool) Description() string {
	return "Drags from one element's bounds to another's, over an interpolated path."
}
func (t *dragDropTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"from_element_id":  map[string]interface{}{"type": "string"},
			"to_element_id":    map[string]interface{}{"type": "string"},
			"duration_seconds": map[string]interface{}{"type": "number"},
		},
		"required": []string{"from_element_id", "to_element_id"},
	}
}
func (t *dragDropTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	_, fromAttrs, err := t.s.elementTarget(args, "from_element_id")
	if err != nil {
		return nil, err
	}
	_, toAttrs, err := t.s.elementTarget(args, "to_element_id")
	if err != nil {
		return nil, err
	}
	seconds := 1.0
	if v, ok := argFloat(args, "duration_seconds"); ok {
		if v <= 0 {
			return nil, errs.New(errs.InvalidParams, "duration_seconds must be > 0")
		}
		seconds = v
	}
	duration := time.Duration(seconds * float64(time.Second))
	if err := t.s.synth.DragDrop(fromAttrs.Bounds, toAttrs.Bounds, duration); err != nil {
		return nil, err
	}
	return "drag completed", nil
}

type scrollWindowTool struct{ s *Server }

func (t *scrollWindowTool) Name() string { return "scroll_window" }
func (t *scrollWindowTool) Description() string {
	return "Posts a wheel event centered on an element's bounds."
}
func (t *scrollWindowTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"element_id": map[string]interface{}{"type": "string"},
			"delta_y":    map[string]interface{}{"type": "integer"},
			"delta_x":    map[string]interface{}{"type": "integer"},
		},
		"required": []string{"element_id", "delta_y"},
	}
}
func (t *scrollWindowTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	_, attrs, err := t.s.elementTarget(args, "element_id")
	if err != nil {
		return nil, err
	}
	deltaY, err := requireInt(args, "delta_y")
	if err != nil {
		return nil, err
	}
	deltaX, _ := argInt(args, "delta_x")
	if err := t.s.synth.ScrollWindow(attrs.Bounds, deltaX, deltaY); err != nil {
		return nil, err
	}
	return "scroll posted", nil
}
