package dispatch

import (
	"context"

	"appmcp/pkg/directory"
)

type resolveAppTool struct{ s *Server }

func (t *resolveAppTool) Name() string { return "resolve_app" }
func (t *resolveAppTool) Description() string {
	return "Resolves a running application by bundle_id, process_name, or pid to an app_handle."
}
func (t *resolveAppTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"bundle_id":    map[string]interface{}{"type": "string"},
			"process_name": map[string]interface{}{"type": "string"},
			"pid":          map[string]interface{}{"type": "integer"},
		},
	}
}
func (t *resolveAppTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	sel := directory.AppSelector{}
	sel.BundleID, _ = argString(args, "bundle_id")
	sel.ProcessName, _ = argString(args, "process_name")
	if pid, ok := argInt(args, "pid"); ok {
		u := uint32(pid)
		sel.PID = &u
	}
	handle, err := t.s.dir.ResolveApp(sel)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"app_handle": handle}, nil
}

type resolveWindowTool struct{ s *Server }

func (t *resolveWindowTool) Name() string { return "resolve_window" }
func (t *resolveWindowTool) Description() string {
	return "Resolves a window of an already-resolved application, by title_pattern or index, to a window_handle."
}
func (t *resolveWindowTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_handle":    map[string]interface{}{"type": "string"},
			"title_pattern": map[string]interface{}{"type": "string"},
			"index":         map[string]interface{}{"type": "integer"},
		},
		"required": []string{"app_handle"},
	}
}
func (t *resolveWindowTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	appHandle, err := requireString(args, "app_handle")
	if err != nil {
		return nil, err
	}
	sel := directory.WindowSelector{}
	sel.TitlePattern, _ = argString(args, "title_pattern")
	if idx, ok := argInt(args, "index"); ok {
		sel.Index = &idx
	}
	handle, err := t.s.dir.ResolveWindow(appHandle, sel)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"window_handle": handle}, nil
}

type listRunningApplicationsTool struct{ s *Server }

func (t *listRunningApplicationsTool) Name() string { return "list_running_applications" }
func (t *listRunningApplicationsTool) Description() string {
	return "Lists every UI-capable running application with its app_handle and window count."
}
func (t *listRunningApplicationsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (t *listRunningApplicationsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	apps, handles, err := t.s.dir.ListRunningApplications()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, len(apps))
	for i, a := range apps {
		_, winHandles, _ := t.s.dir.ListApplicationWindows(handles[i])
		out[i] = map[string]interface{}{
			"name":         a.Name,
			"bundle_id":    nilIfEmpty(a.BundleID),
			"handle":       handles[i],
			"pid":          a.PID,
			"is_active":    a.IsActive,
			"window_count": len(winHandles),
		}
	}
	return out, nil
}

type listApplicationWindowsTool struct{ s *Server }

func (t *listApplicationWindowsTool) Name() string { return "list_application_windows" }
func (t *listApplicationWindowsTool) Description() string {
	return "Lists the windows of a resolved application, each with its window_handle and bounds."
}
func (t *listApplicationWindowsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"app_handle": map[string]interface{}{"type": "string"},
		},
		"required": []string{"app_handle"},
	}
}
func (t *listApplicationWindowsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	appHandle, err := requireString(args, "app_handle")
	if err != nil {
		return nil, err
	}
	wins, handles, err := t.s.dir.ListApplicationWindows(appHandle)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, len(wins))
	for i, w := range wins {
		out[i] = map[string]interface{}{
			"title":         w.Title,
			"window_handle": handles[i],
			"bounds":        w.Bounds,
			"visible":       w.Visible,
			"is_main":       w.IsMain,
		}
	}
	return out, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
