package category

import "strings"

// ID identifies a shopping category. The set of valid IDs is closed.
type ID string

// Category IDs
const (
	FruitsVegetables ID = "fruits_vegetables"
	MeatFish         ID = "meat_fish"
	Dairy            ID = "dairy"
	Grocery          ID = "grocery"
	Beverages        ID = "beverages"
	Hygiene          ID = "hygiene"
	Household        ID = "household"
	Other            ID = "other"
)

// Category pairs an ID with its display label
type Category struct {
	ID    ID     `json:"id"`
	Label string `json:"label"`
}

// catalogue is ordered as it is shown to users.
var catalogue = []Category{
	{ID: FruitsVegetables, Label: "Fruits & Légumes"},
	{ID: MeatFish, Label: "Viandes & Poissons"},
	{ID: Dairy, Label: "Produits laitiers"},
	{ID: Grocery, Label: "Épicerie"},
	{ID: Beverages, Label: "Boissons"},
	{ID: Hygiene, Label: "Hygiène & Beauté"},
	{ID: Household, Label: "Entretien"},
	{ID: Other, Label: "Autres"},
}

// All returns the ordered category catalogue.
func All() []Category {
	out := make([]Category, len(catalogue))
	copy(out, catalogue)
	return out
}

// IsValid reports whether id belongs to the catalogue.
func IsValid(id ID) bool {
	_, ok := find(id)
	return ok
}

// Label returns the display label for id. Unknown IDs get the label of Other.
func Label(id ID) string {
	if c, ok := find(id); ok {
		return c.Label
	}
	c, _ := find(Other)
	return c.Label
}

// Lookup matches text case-insensitively against category IDs and labels.
func Lookup(text string) (ID, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	for _, c := range catalogue {
		if strings.EqualFold(text, string(c.ID)) || strings.EqualFold(text, c.Label) {
			return c.ID, true
		}
	}
	return "", false
}

// Normalize maps arbitrary input onto the catalogue. Empty or unrecognized
// input becomes Other.
func Normalize(text string) ID {
	if id, ok := Lookup(text); ok {
		return id
	}
	return Other
}

func find(id ID) (Category, bool) {
	for _, c := range catalogue {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
