package shopping

import (
	"strings"

	"github.com/teemow/courses/internal/category"
)

// VisibleList reports whether a list is returned by ListLists. Lists without
// items are hidden.
func VisibleList(l List) bool {
	return l.ItemsCount > 0
}

// maxFrequentItems caps the suggestion list.
const maxFrequentItems = 10

// categoryText is the CATEGORIES value written for a category input. Blank
// input writes nothing and leaves the classifier to infer a category.
func categoryText(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return category.Label(category.Normalize(input))
}
