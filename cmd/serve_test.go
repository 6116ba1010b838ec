package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/courses/internal/calstore"
	"github.com/teemow/courses/internal/category"
	"github.com/teemow/courses/internal/config"
	"github.com/teemow/courses/internal/shopping"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single value", input: "alice", expected: []string{"alice"}},
		{name: "multiple values", input: "alice,bob", expected: []string{"alice", "bob"}},
		{name: "values with spaces around comma", input: "alice, bob", expected: []string{"alice", "bob"}},
		{name: "trailing comma", input: "alice,bob,", expected: []string{"alice", "bob"}},
		{name: "multiple consecutive commas", input: "alice,,bob", expected: []string{"alice", "bob"}},
		{name: "only commas and spaces", input: ",  , , ", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCommaSeparatedList(tt.input))
		})
	}
}

func TestSeedPrincipal(t *testing.T) {
	assert.Equal(t, demoPrincipal, seedPrincipal(config.ServerConfig{}))
	assert.Equal(t, "alice", seedPrincipal(config.ServerConfig{DefaultPrincipal: "alice"}))
}

func TestSeedDemo(t *testing.T) {
	adapter := shopping.NewAdapter(calstore.NewMemory())
	require.NoError(t, seedDemo(context.Background(), adapter, "alice"))

	ctx := shopping.WithPrincipal(context.Background(), "alice")
	lists, err := adapter.ListLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, len(demoLists))

	byName := make(map[string]shopping.List)
	for _, l := range lists {
		byName[l.Name] = l
	}
	week, ok := byName["Courses de la semaine"]
	require.True(t, ok)
	assert.Equal(t, 3, week.ItemsCount)

	items, err := adapter.ListItems(ctx, week.ID)
	require.NoError(t, err)
	for _, item := range items {
		if item.Name == "Lait demi-écrémé" {
			assert.Equal(t, category.Dairy, item.Category)
			assert.Equal(t, "2 l", item.Quantity)
		}
	}

	other, err := adapter.ListLists(shopping.WithPrincipal(context.Background(), "bob"))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools, err := registeredTools()
	require.NoError(t, err)
	require.Len(t, tools, 11)

	md := generateToolsMarkdown(tools)
	for _, section := range []string{"## Item Tools", "## List Tools", "## Reference Tools"} {
		assert.Contains(t, md, section)
	}
	assert.NotContains(t, md, "## Other")
	assert.Contains(t, md, "### shopping_add_item")
	assert.Contains(t, md, "- `listId` (string, required)")

	// Required arguments come first.
	addItem := md[strings.Index(md, "### shopping_add_item"):]
	assert.Less(t, strings.Index(addItem, "`name`"), strings.Index(addItem, "`category`"))
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "List Tools", getCategoryFromToolName("shopping_rename_list"))
	assert.Equal(t, "Item Tools", getCategoryFromToolName("shopping_complete_items"))
	assert.Equal(t, "Reference Tools", getCategoryFromToolName("shopping_categories"))
	assert.Equal(t, "Other", getCategoryFromToolName("unknown"))
}
