package shopping_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/courses/internal/server"
	"github.com/teemow/courses/internal/tools/common"
)

func registerListTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) {
	listListsTool := mcp.NewTool("shopping_list_lists",
		mcp.WithDescription("List the shopping lists of the current user. Lists without items are not shown."),
	)
	s.AddTool(listListsTool, common.InstrumentedToolHandler("shopping_list_lists", sc, handleListLists(sc)))

	if readOnly {
		return
	}

	createListTool := mcp.NewTool("shopping_create_list",
		mcp.WithDescription("Create a shopping list. A new list stays hidden from shopping_list_lists until it has an item."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the list"),
		),
	)
	s.AddTool(createListTool, common.InstrumentedToolHandler("shopping_create_list", sc, handleCreateList(sc)))

	renameListTool := mcp.NewTool("shopping_rename_list",
		mcp.WithDescription("Rename a shopping list"),
		mcp.WithString("listId",
			mcp.Required(),
			mcp.Description("The ID of the list"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("New name of the list"),
		),
	)
	s.AddTool(renameListTool, common.InstrumentedToolHandler("shopping_rename_list", sc, handleRenameList(sc)))

	deleteListTool := mcp.NewTool("shopping_delete_list",
		mcp.WithDescription("Delete a shopping list and all of its items"),
		mcp.WithString("listId",
			mcp.Required(),
			mcp.Description("The ID of the list"),
		),
	)
	s.AddTool(deleteListTool, common.InstrumentedToolHandler("shopping_delete_list", sc, handleDeleteList(sc)))
}

func handleListLists(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lists, err := sc.Service().ListLists(ctx)
		if err != nil {
			return common.ErrorResult("list shopping lists", err), nil
		}
		return common.JSONResult(lists)
	}
}

func handleCreateList(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		name := common.StringArg(args, "name")
		if name == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		list, err := sc.Service().CreateList(ctx, name)
		if err != nil {
			return common.ErrorResult("create list", err), nil
		}
		return common.JSONResult(list)
	}
}

func handleRenameList(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		listID := common.StringArg(args, "listId")
		if listID == "" {
			return mcp.NewToolResultError("listId is required"), nil
		}
		name := common.StringArg(args, "name")
		if name == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		list, err := sc.Service().RenameList(ctx, listID, name)
		if err != nil {
			return common.ErrorResult("rename list", err), nil
		}
		return common.JSONResult(list)
	}
}

func handleDeleteList(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		listID := common.StringArg(request.GetArguments(), "listId")
		if listID == "" {
			return mcp.NewToolResultError("listId is required"), nil
		}

		if err := sc.Service().DeleteList(ctx, listID); err != nil {
			return common.ErrorResult("delete list", err), nil
		}
		return mcp.NewToolResultText("List " + listID + " deleted"), nil
	}
}
