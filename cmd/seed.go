package cmd

import (
	"context"
	"fmt"

	"github.com/teemow/courses/internal/shopping"
)

const demoPrincipal = "demo"

type demoList struct {
	name  string
	items []shopping.NewItem
}

var demoLists = []demoList{
	{
		name: "Courses de la semaine",
		items: []shopping.NewItem{
			{Name: "Lait demi-écrémé", Quantity: "2 l"},
			{Name: "Pommes", Quantity: "1kg"},
			{Name: "Pain de mie"},
		},
	},
	{
		name: "BBQ Samedi",
		items: []shopping.NewItem{
			{Name: "Saucisses", Quantity: "12"},
			{Name: "Charbon de bois", Category: "household"},
			{Name: "Bière", Quantity: "6 bouteilles"},
		},
	},
}

// seedDemo creates the demo lists for principal in svc.
func seedDemo(ctx context.Context, svc shopping.Service, principal string) error {
	ctx = shopping.WithPrincipal(ctx, principal)
	for _, dl := range demoLists {
		list, err := svc.CreateList(ctx, dl.name)
		if err != nil {
			return fmt.Errorf("failed to seed list %q: %w", dl.name, err)
		}
		for _, in := range dl.items {
			if _, err := svc.CreateItem(ctx, list.ID, in); err != nil {
				return fmt.Errorf("failed to seed item %q: %w", in.Name, err)
			}
		}
	}
	return nil
}
