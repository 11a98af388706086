package dispatch

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"appmcp/pkg/errs"
)

const resourceScheme = "appmcp"

// registerResources wires the four read-only appmcp://resources/<name> URIs
// onto the MCP server, mirroring the tool-registration shape in
// registerTools but for the resources/read half of the protocol.
func (s *Server) registerResources() {
	s.addResource("installed_applications", "Every application found in the conventional install locations.", s.readInstalledApplications)
	s.addResource("running_applications", "Every UI-capable running process, with its windows.", s.readRunningApplications)
	s.addResource("accessible_applications", "running_applications filtered to those the accessibility probe can reach.", s.readAccessibleApplications)
	s.addResource("list_windows", "Windows of one application, given ?app_handle=<h>.", s.readListWindows)
}

func (s *Server) addResource(name, description string, handler func(context.Context, string) (interface{}, error)) {
	uri := resourceScheme + "://resources/" + name
	res := mcp.NewResource(uri, name,
		mcp.WithResourceDescription(description),
		mcp.WithMIMEType("application/json"),
	)
	s.mcpServer.AddResource(res, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload, err := handler(ctx, req.Params.URI)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(body),
			},
		}, nil
	})
}

func (s *Server) readInstalledApplications(ctx context.Context, uri string) (interface{}, error) {
	apps, err := s.dir.ListInstalledApplications()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, len(apps))
	for i, a := range apps {
		out[i] = map[string]interface{}{"name": a.Name, "bundle_id": nilIfEmpty(a.BundleID)}
	}
	return out, nil
}

func (s *Server) runningApplicationRecords() ([]map[string]interface{}, error) {
	apps, handles, err := s.dir.ListRunningApplications()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, len(apps))
	for i, a := range apps {
		wins, winHandles, _ := s.dir.ListApplicationWindows(handles[i])
		winRecords := make([]map[string]interface{}, len(wins))
		for j, w := range wins {
			winRecords[j] = map[string]interface{}{
				"title":         w.Title,
				"window_handle": winHandles[j],
				"bounds":        w.Bounds,
				"visible":       w.Visible,
				"is_main":       w.IsMain,
			}
		}
		out[i] = map[string]interface{}{
			"name":         a.Name,
			"bundle_id":    nilIfEmpty(a.BundleID),
			"handle":       handles[i],
			"pid":          a.PID,
			"is_active":    a.IsActive,
			"windows":      winRecords,
			"window_count": len(wins),
		}
	}
	return out, nil
}

func (s *Server) readRunningApplications(ctx context.Context, uri string) (interface{}, error) {
	return s.runningApplicationRecords()
}

// readAccessibleApplications filters running_applications to those whose
// first window's accessibility root element can actually be read, standing
// in for the source's "accessibility trust" probe.
func (s *Server) readAccessibleApplications(ctx context.Context, uri string) (interface{}, error) {
	records, err := s.runningApplicationRecords()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		wins, _ := rec["windows"].([]map[string]interface{})
		if len(wins) == 0 {
			continue
		}
		windowHandle, _ := wins[0]["window_handle"].(string)
		ref, err := s.dir.WindowRef(windowHandle)
		if err != nil {
			continue
		}
		if _, err := s.walker.RootElement(ref); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Server) readListWindows(ctx context.Context, uri string) (interface{}, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidParams, "malformed resource uri", err)
	}
	appHandle := parsed.Query().Get("app_handle")
	if strings.TrimSpace(appHandle) == "" {
		return nil, errs.New(errs.InvalidParams, "list_windows requires an app_handle query parameter")
	}

	wins, handles, err := s.dir.ListApplicationWindows(appHandle)
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
