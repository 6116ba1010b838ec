package common

import (
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/courses/internal/shopping"
)

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "{\n  \"a\": 1\n}", text(t, result))
}

func TestErrorResult(t *testing.T) {
	tests := []struct {
		err  error
		hint string
	}{
		{err: shopping.ErrNotFound, hint: "shopping_list_lists"},
		{err: shopping.ErrUnauthenticated, hint: "No user"},
		{err: fmt.Errorf("x: %w", shopping.ErrStoreUnavailable), hint: "try again later"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			result := ErrorResult("add item", tt.err)
			assert.True(t, result.IsError)
			msg := text(t, result)
			assert.Contains(t, msg, "Failed to add item")
			assert.Contains(t, msg, tt.hint)
		})
	}
}

func TestArgs(t *testing.T) {
	args := map[string]interface{}{
		"name":      "  Lait ",
		"empty":     "",
		"completed": false,
		"number":    3.0,
	}

	assert.Equal(t, "Lait", StringArg(args, "name"))
	assert.Equal(t, "", StringArg(args, "missing"))
	assert.Equal(t, "", StringArg(args, "number"))

	if s := OptionalStringArg(args, "empty"); assert.NotNil(t, s) {
		assert.Equal(t, "", *s)
	}
	assert.Nil(t, OptionalStringArg(args, "missing"))

	if b := OptionalBoolArg(args, "completed"); assert.NotNil(t, b) {
		assert.False(t, *b)
	}
	assert.Nil(t, OptionalBoolArg(args, "name"))
}
