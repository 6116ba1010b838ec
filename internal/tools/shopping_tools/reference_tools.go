package shopping_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/courses/internal/category"
	"github.com/teemow/courses/internal/server"
	"github.com/teemow/courses/internal/tools/common"
)

func registerReferenceTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	categoriesTool := mcp.NewTool("shopping_categories",
		mcp.WithDescription("List the item categories in display order"),
	)
	s.AddTool(categoriesTool, common.InstrumentedToolHandler("shopping_categories", sc, handleCategories))

	frequentTool := mcp.NewTool("shopping_frequent_items",
		mcp.WithDescription("Suggest items the user often buys, ranked by the share of lists that contain them"),
	)
	s.AddTool(frequentTool, common.InstrumentedToolHandler("shopping_frequent_items", sc, handleFrequentItems(sc)))
}

func handleCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return common.JSONResult(category.All())
}

func handleFrequentItems(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := sc.Service().FrequentItems(ctx)
		if err != nil {
			return common.ErrorResult("get frequent items", err), nil
		}
		return common.JSONResult(items)
	}
}
