package shopping_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/courses/internal/server"
)

// RegisterShoppingTools registers the shopping tools with the MCP server.
// Write tools are skipped when readOnly is set.
func RegisterShoppingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	registerListTools(s, sc, readOnly)
	registerItemTools(s, sc, readOnly)
	registerReferenceTools(s, sc)

	return nil
}
