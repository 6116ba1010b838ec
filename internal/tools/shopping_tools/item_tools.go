package shopping_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/courses/internal/server"
	"github.com/teemow/courses/internal/shopping"
	"github.com/teemow/courses/internal/tools/batch"
	"github.com/teemow/courses/internal/tools/common"
)

const categoryDescription = "Category id or label (e.g. 'dairy' or 'Produits laitiers'). See shopping_categories. Unknown values become 'other'."

func registerItemTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) {
	listItemsTool := mcp.NewTool("shopping_list_items",
		mcp.WithDescription("List the items of a shopping list with their quantity, category and completion state"),
		mcp.WithString("listId",
			mcp.Required(),
			mcp.Description("The ID of the list"),
		),
	)
	s.AddTool(listItemsTool, common.InstrumentedToolHandler("shopping_list_items", sc, handleListItems(sc)))

	if readOnly {
		return
	}

	addItemTool := mcp.NewTool("shopping_add_item",
		mcp.WithDescription("Add an item to a shopping list. Without a category, one is inferred from the name."),
		mcp.WithString("listId",
			mcp.Required(),
			mcp.Description("The ID of the list"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Item name, e.g. 'Lait demi-écrémé'"),
		),
		mcp.WithString("quantity",
			mcp.Description("Quantity with optional unit, e.g. '2kg' or '6'"),
		),
		mcp.WithString("category",
			mcp.Description(categoryDescription),
		),
	)
	s.AddTool(addItemTool, common.InstrumentedToolHandler("shopping_add_item", sc, handleAddItem(sc)))

	updateItemTool := mcp.NewTool("shopping_update_item",
		mcp.WithDescription("Update an item. Only the given fields change. An empty quantity removes it."),
		mcp.WithString("itemId",
			mcp.Required(),
			mcp.Description("The ID of the item"),
		),
		mcp.WithString("name",
			mcp.Description("New item name"),
		),
		mcp.WithString("quantity",
			mcp.Description("New quantity"),
		),
		mcp.WithString("category",
			mcp.Description(categoryDescription),
		),
		mcp.WithBoolean("completed",
			mcp.Description("Whether the item is checked off"),
		),
	)
	s.AddTool(updateItemTool, common.InstrumentedToolHandler("shopping_update_item", sc, handleUpdateItem(sc)))

	completeItemsTool := mcp.NewTool("shopping_complete_items",
		mcp.WithDescription("Check off one or more items, or uncheck them with completed=false"),
		mcp.WithString("itemIds",
			mcp.Required(),
			mcp.Description("An item ID or a JSON array of item IDs"),
		),
		mcp.WithBoolean("completed",
			mcp.Description("Completion state to set (default: true)"),
		),
	)
	s.AddTool(completeItemsTool, common.InstrumentedToolHandler("shopping_complete_items", sc, handleCompleteItems(sc)))

	deleteItemsTool := mcp.NewTool("shopping_delete_items",
		mcp.WithDescription("Delete one or more items"),
		mcp.WithString("itemIds",
			mcp.Required(),
			mcp.Description("An item ID or a JSON array of item IDs"),
		),
	)
	s.AddTool(deleteItemsTool, common.InstrumentedToolHandler("shopping_delete_items", sc, handleDeleteItems(sc)))
}

func handleListItems(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		listID := common.StringArg(request.GetArguments(), "listId")
		if listID == "" {
			return mcp.NewToolResultError("listId is required"), nil
		}

		items, err := sc.Service().ListItems(ctx, listID)
		if err != nil {
			return common.ErrorResult("list items", err), nil
		}
		return common.JSONResult(items)
	}
}

func handleAddItem(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		listID := common.StringArg(args, "listId")
		if listID == "" {
			return mcp.NewToolResultError("listId is required"), nil
		}
		in := shopping.NewItem{
			Name:     common.StringArg(args, "name"),
			Quantity: common.StringArg(args, "quantity"),
			Category: common.StringArg(args, "category"),
		}
		if in.Name == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		item, err := sc.Service().CreateItem(ctx, listID, in)
		if err != nil {
			return common.ErrorResult("add item", err), nil
		}
		return common.JSONResult(item)
	}
}

func handleUpdateItem(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		itemID := common.StringArg(args, "itemId")
		if itemID == "" {
			return mcp.NewToolResultError("itemId is required"), nil
		}

		patch := shopping.ItemPatch{
			Name:      common.OptionalStringArg(args, "name"),
			Quantity:  common.OptionalStringArg(args, "quantity"),
			Category:  common.OptionalStringArg(args, "category"),
			Completed: common.OptionalBoolArg(args, "completed"),
		}
		if patch.Empty() {
			return mcp.NewToolResultError("at least one of name, quantity, category or completed is required"), nil
		}

		item, err := sc.Service().UpdateItem(ctx, itemID, patch)
		if err != nil {
			return common.ErrorResult("update item", err), nil
		}
		return common.JSONResult(item)
	}
}

func handleCompleteItems(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		ids, err := batch.ParseStringOrArray(args["itemIds"], "itemIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		completed := true
		if b := common.OptionalBoolArg(args, "completed"); b != nil {
			completed = *b
		}

		patch := shopping.ItemPatch{Completed: shopping.Bool(completed)}
		results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (any, error) {
			return sc.Service().UpdateItem(ctx, id, patch)
		})
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}

func handleDeleteItems(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := batch.ParseStringOrArray(request.GetArguments()["itemIds"], "itemIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (any, error) {
			if err := sc.Service().DeleteItem(ctx, id); err != nil {
				return nil, err
			}
			return "deleted", nil
		})
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}
