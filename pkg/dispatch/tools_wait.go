package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"appmcp/pkg/coords"
	"appmcp/pkg/directory"
	"appmcp/pkg/errs"
)

type waitTimeTool struct{ s *Server }

func (t *waitTimeTool) Name() string { return "wait_time" }
func (t *waitTimeTool) Description() string {
	return "Blocks for exactly duration_seconds before returning."
}
func (t *waitTimeTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"duration_seconds": map[string]interface{}{"type": "number"},
		},
		"required": []string{"duration_seconds"},
	}
}
func (t *waitTimeTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	seconds, ok := argFloat(args, "duration_seconds")
	if !ok || seconds <= 0 {
		return nil, errs.New(errs.InvalidParams, "duration_seconds must be > 0")
	}
	result, err := coords.Time(ctx, time.Duration(seconds*float64(time.Second)))
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("waited %s", result.Elapsed), nil
}

// MaxWaitDuration caps a single conditional wait; longer waits belong to
// the controller's own loop, not a blocked tool call.
const MaxWaitDuration = 30 * time.Second

// Condition names the wait tool accepts.
const (
	waitConditionTime            = "time"
	waitConditionUIChange        = "ui_change"
	waitConditionWindowAppear    = "window_appear"
	waitConditionWindowDisappear = "window_disappear"
	waitConditionGesture         = "gesture_complete"
)

type waitTool struct{ s *Server }

func (t *waitTool) Name() string { return "wait" }
func (t *waitTool) Description() string {
	return "Waits for a condition: a fixed time, a visible change in a window, or a window appearing or disappearing."
}
func (t *waitTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"condition": map[string]interface{}{
				"type": "string",
				"enum": []string{
					waitConditionTime,
					waitConditionUIChange,
					waitConditionWindowAppear,
					waitConditionWindowDisappear,
					waitConditionGesture,
				},
			},
			"duration_ms":   map[string]interface{}{"type": "integer"},
			"bundle_id":     map[string]interface{}{"type": "string"},
			"window":        map[string]interface{}{"type": "string"},
			"title_pattern": map[string]interface{}{"type": "string"},
		},
		"required": []string{"condition", "duration_ms"},
	}
}
func (t *waitTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	condition, err := requireString(args, "condition")
	if err != nil {
		return nil, err
	}
	ms, err := requireInt(args, "duration_ms")
	if err != nil {
		return nil, err
	}
	if ms <= 0 {
		return nil, errs.New(errs.InvalidParams, "duration_ms must be > 0")
	}
	duration := time.Duration(ms) * time.Millisecond
	if duration > MaxWaitDuration {
		return nil, errs.New(errs.InvalidParams, fmt.Sprintf("duration_ms must not exceed %d", MaxWaitDuration/time.Millisecond))
	}

	var result coords.Result
	switch condition {
	case waitConditionTime:
		result, err = coords.Time(ctx, duration)
	case waitConditionGesture:
		result, err = coords.GestureComplete(ctx, duration)
	case waitConditionUIChange:
		result, err = t.waitUIChange(ctx, duration, args)
	case waitConditionWindowAppear:
		result, err = t.waitWindowExistence(ctx, duration, args, true)
	case waitConditionWindowDisappear:
		result, err = t.waitWindowExistence(ctx, duration, args, false)
	default:
		return nil, errs.New(errs.InvalidParams, "unknown wait condition: "+condition)
	}
	if err != nil {
		return nil, err
	}
	if result.Satisfied {
		return fmt.Sprintf("condition %s satisfied after %s", condition, result.Elapsed), nil
	}
	return fmt.Sprintf("condition %s not satisfied within %s", condition, duration), nil
}

// waitUIChange polls the target window's fingerprint (bounds plus a raster
// hash) until it differs from the initial reading.
func (t *waitTool) waitUIChange(ctx context.Context, duration time.Duration, args map[string]interface{}) (coords.Result, error) {
	windowHandle, err := t.s.resolveTargetWindow(args)
	if err != nil {
		return coords.Result{}, err
	}
	fp := func() (coords.Fingerprint, error) {
		ref, err := t.s.dir.WindowRef(windowHandle)
		if err != nil {
			return coords.Fingerprint{}, err
		}
		bounds, err := t.s.dir.WindowBounds(windowHandle)
		if err != nil {
			return coords.Fingerprint{}, err
		}
		return t.s.pipeline.Fingerprint(ref, bounds)
	}
	return coords.UIChange(ctx, duration, fp)
}

// waitWindowExistence resolves the target app, then waits for a window
// matching the optional title pattern to appear or disappear. When the ETW
// watcher delivers lifecycle events, those wake the check early; otherwise
// the directory is polled at the standard interval.
func (t *waitTool) waitWindowExistence(ctx context.Context, duration time.Duration, args map[string]interface{}, want bool) (coords.Result, error) {
	bundleID, err := requireString(args, "bundle_id")
	if err != nil {
		return coords.Result{}, err
	}
	appHandle, err := t.s.dir.ResolveApp(directory.AppSelector{BundleID: bundleID})
	if err != nil {
		return coords.Result{}, err
	}

	var titleRE *regexp.Regexp
	if pattern, ok := argString(args, "title_pattern"); ok {
		titleRE, err = regexp.Compile(pattern)
		if err != nil {
			return coords.Result{}, errs.Wrap(errs.InvalidParams, "invalid title_pattern", err)
		}
	}

	exists := func() (bool, error) {
		wins, _, err := t.s.dir.ListApplicationWindows(appHandle)
		if err != nil {
			return false, err
		}
		for _, w := range wins {
			if titleRE == nil || titleRE.MatchString(w.Title) {
				return true, nil
			}
		}
		return false, nil
	}

	watcher := t.s.watcher
	if watcher == nil || watcher.IsFallbackMode() {
		if want {
			return coords.WindowAppear(ctx, duration, exists)
		}
		return coords.WindowDisappear(ctx, duration, exists)
	}

	// Event-driven path: re-check on every window lifecycle event, with
	// the poll ticker as a safety net for events ETW dropped.
	start := time.Now()
	deadline := time.After(duration)
	ticker := time.NewTicker(coords.PollInterval)
	defer ticker.Stop()
	for {
		ok, err := exists()
		if err == nil && ok == want {
			return coords.Result{Satisfied: true, Elapsed: time.Since(start)}, nil
		}
		select {
		case <-ctx.Done():
			elapsed := time.Since(start)
			return coords.Result{Elapsed: elapsed}, errs.Wrap(errs.Timeout, fmt.Sprintf("wait cancelled after %s", elapsed), ctx.Err())
		case <-deadline:
			return coords.Result{Satisfied: false, Elapsed: time.Since(start)}, nil
		case <-watcher.Events():
		case <-ticker.C:
		}
	}
}
