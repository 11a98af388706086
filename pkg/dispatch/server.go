// Package dispatch implements the Protocol Dispatcher (C1): the MCP
// surface (resources + tools) over JSON-RPC on stdio, wrapping every other
// component so it never touches the OS directly.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"appmcp/pkg/directory"
	"appmcp/pkg/errs"
	"appmcp/pkg/handle"
	"appmcp/pkg/input"
	"appmcp/pkg/ocr"
	"appmcp/pkg/snapshot"
	"appmcp/pkg/uia"
)

// Tool is the uniform shape every registered tool implements.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// Server wires the MCP runtime to every core component.
type Server struct {
	registry     *handle.Registry
	dir          *directory.Directory
	walker       uia.Walker
	pipeline     *snapshot.Pipeline
	synth        *input.Synthesizer
	recog        ocr.Recognizer
	watcher      *directory.WindowWatcher
	maxImageSide int

	tools     map[string]Tool
	mcpServer *mcpserver.MCPServer
}

// Dependencies bundles the already-constructed components a Server needs;
// main.go owns wiring concrete Windows implementations into this struct.
type Dependencies struct {
	Registry   *handle.Registry
	Directory  *directory.Directory
	Walker     uia.Walker
	Pipeline   *snapshot.Pipeline
	Synth      *input.Synthesizer
	Recognizer ocr.Recognizer

	// Watcher is optional; when nil (or in fallback mode) the wait tool's
	// window_appear/window_disappear conditions poll the directory instead.
	Watcher *directory.WindowWatcher

	// MaxImageSide overrides the snapshot image downscale ceiling; zero
	// means the capture package default.
	MaxImageSide int
}

// NewServer constructs the MCP server and registers every resource/tool.
func NewServer(name, version string, deps Dependencies) *Server {
	mcpSrv := mcpserver.NewMCPServer(
		name,
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
	)

	s := &Server{
		registry:     deps.Registry,
		dir:          deps.Directory,
		walker:       deps.Walker,
		pipeline:     deps.Pipeline,
		synth:        deps.Synth,
		recog:        deps.Recognizer,
		watcher:      deps.Watcher,
		maxImageSide: deps.MaxImageSide,
		tools:        make(map[string]Tool),
		mcpServer:    mcpSrv,
	}

	s.registerResources()
	s.registerTools()
	return s
}

// Start runs the stdio transport until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) registerTools() {
	s.registerTool(&resolveAppTool{s})
	s.registerTool(&resolveWindowTool{s})
	s.registerTool(&listRunningApplicationsTool{s})
	s.registerTool(&listApplicationWindowsTool{s})
	s.registerTool(&captureUISnapshotTool{s})
	s.registerTool(&elementsSnapshotTool{s})
	s.registerTool(&clickElementTool{s})
	s.registerTool(&inputTextTool{s})
	s.registerTool(&dragDropTool{s})
	s.registerTool(&scrollWindowTool{s})
	s.registerTool(&waitTimeTool{s})
	s.registerTool(&waitTool{s})
	s.registerTool(&readContentTool{s})
}

func (s *Server) registerTool(tool Tool) {
	s.tools[tool.Name()] = tool

	schema, err := json.Marshal(tool.InputSchema())
	if err != nil {
		schema = json.RawMessage(`{"type":"object"}`)
	}

	mcpTool := mcp.NewToolWithRawSchema(tool.Name(), tool.Description(), schema)
	s.mcpServer.AddTool(mcpTool, s.wrapTool(tool))
}

func (s *Server) wrapTool(tool Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		result, err := tool.Execute(ctx, args)
		if err != nil {
			return toolError(err), nil
		}
		if text, ok := result.(string); ok {
			return toolText(text), nil
		}

		payload, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			return toolError(fmt.Errorf("encode result: %w", marshalErr)), nil
		}
		return toolText(string(payload)), nil
	}
}

// elementBounds resolves an element_id to its live Walker ref and current
// bounds, the common lookup every C5 tool needs before posting an event.
// A missing id is reported as ELEMENT_NOT_ACCESSIBLE here, not
// ELEMENT_NOT_FOUND: to an action tool an unknown id and an orphaned one
// are the same failure — there is nothing to act on.
func (s *Server) elementBounds(elementID string) (uia.ElementRef, uia.Attributes, error) {
	ref, err := s.registry.LookupElement(elementID)
	if err != nil {
		if errs.Is(err, errs.ElementNotFound) {
			err = errs.New(errs.ElementNotAccessible, "no actionable element for element_id: "+elementID)
		}
		return nil, uia.Attributes{}, err
	}
	attrs, err := s.walker.Attributes(ref)
	if err != nil {
		return nil, uia.Attributes{}, err
	}
	return ref, attrs, nil
}
