package dispatch

import (
	"github.com/mark3labs/mcp-go/mcp"

	"appmcp/pkg/errs"
)

// toolError maps a domain error to a tool-call result carrying is_error:
// true; the dispatcher never lets a domain error escape as a
// transport-level failure.
func toolError(err error) *mcp.CallToolResult {
	kind := errs.KindOf(err)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(kind.String() + ": " + err.Error())},
		IsError: true,
	}
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
		IsError: false,
	}
}
