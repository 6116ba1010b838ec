// Package shopping_tools provides MCP tools for managing shopping lists.
//
// The tools work through the shopping service of the server context, so
// they see exactly what the REST API sees.
//
// # Available Tools
//
// Lists:
//   - shopping_list_lists: List the non-empty shopping lists
//   - shopping_create_list: Create a list
//   - shopping_rename_list: Rename a list
//   - shopping_delete_list: Delete a list and its items
//
// Items:
//   - shopping_list_items: List the items of a list
//   - shopping_add_item: Add an item, inferring its category from the name
//   - shopping_update_item: Change the name, quantity, category or state of an item
//   - shopping_complete_items: Check or uncheck one or more items
//   - shopping_delete_items: Delete one or more items
//
// Reference data:
//   - shopping_categories: The category catalogue
//   - shopping_frequent_items: Suggestions ranked by how many lists contain them
//
// # Read-only Mode
//
// Tools that change data are only registered when the server is not
// read-only.
//
// # Principal
//
// Tools act for the principal bound to the call: the authenticated HTTP
// user, or the configured default principal over stdio.
package shopping_tools
