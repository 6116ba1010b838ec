package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/courses/internal/shopping"
)

// JSONResult formats v as indented JSON text.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ErrorResult turns a service error into a tool error result with a hint
// the model can act on.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("Failed to %s: %v", action, err)
	switch {
	case errors.Is(err, shopping.ErrUnauthenticated):
		msg += ". No user is bound to this session"
	case errors.Is(err, shopping.ErrNotFound):
		msg += ". Use shopping_list_lists and shopping_list_items to find valid ids"
	case errors.Is(err, shopping.ErrStoreUnavailable):
		msg += ". The calendar store is unreachable, try again later"
	}
	return mcp.NewToolResultError(msg)
}

// StringArg returns the trimmed string argument name, or "".
func StringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}

// OptionalStringArg returns a pointer to the string argument name, or nil
// when it is absent.
func OptionalStringArg(args map[string]interface{}, name string) *string {
	s, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &s
}

// OptionalBoolArg returns a pointer to the boolean argument name, or nil
// when it is absent or not a boolean.
func OptionalBoolArg(args map[string]interface{}, name string) *bool {
	b, ok := args[name].(bool)
	if !ok {
		return nil
	}
	return &b
}
