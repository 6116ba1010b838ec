package shopping

import (
	"context"
	"sort"

	"github.com/teemow/courses/internal/category"
)

// FrequentItems suggests item names the principal uses across lists. The
// frequency of a name is the share of visible lists that contain it.
// Suggestions are ordered by descending frequency, then by name.
func (a *Adapter) FrequentItems(ctx context.Context) ([]FrequentItem, error) {
	lists, err := a.ListLists(ctx)
	if err != nil {
		return nil, err
	}

	itemsByList := make([][]Item, 0, len(lists))
	for _, l := range lists {
		items, err := a.ListItems(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		itemsByList = append(itemsByList, items)
	}
	return RankFrequent(itemsByList, maxFrequentItems), nil
}

// RankFrequent ranks item names by the share of lists containing them.
// Names are compared case- and accent-insensitively; the first spelling seen
// is kept. At most limit suggestions are returned.
func RankFrequent(itemsByList [][]Item, limit int) []FrequentItem {
	type tally struct {
		name     string
		category category.ID
		lists    int
	}

	var order []*tally
	counts := make(map[string]*tally)
	for _, items := range itemsByList {
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			key := category.Fold(item.Name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			t, ok := counts[key]
			if !ok {
				t = &tally{name: item.Name, category: item.Category}
				counts[key] = t
				order = append(order, t)
			}
			t.lists++
		}
	}

	out := make([]FrequentItem, 0, len(order))
	for _, t := range order {
		out = append(out, FrequentItem{
			Name:      t.name,
			Category:  t.category,
			Frequency: float64(t.lists) / float64(len(itemsByList)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
