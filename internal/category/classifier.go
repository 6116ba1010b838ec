package category

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KeywordSet lists title fragments that indicate a category.
type KeywordSet struct {
	Category ID
	Keywords []string
}

// KeywordTable is consulted in order when a task carries no explicit
// category. The first set with a keyword contained in the folded title wins,
// so the order of the entries is the tie-break between categories. Meat and
// fish come before dairy: "boeuf" contains "oeuf".
var KeywordTable = []KeywordSet{
	{Category: MeatFish, Keywords: []string{
		"poulet", "boeuf", "bœuf", "porc", "jambon", "saucisse", "steak",
		"viande", "dinde", "agneau", "veau", "lardon", "poisson", "saumon",
		"thon", "cabillaud", "crevette", "moule", "chicken", "beef", "pork",
		"fish", "salmon", "tuna",
	}},
	{Category: Dairy, Keywords: []string{
		"lait", "fromage", "yaourt", "yogourt", "beurre", "creme", "oeuf",
		"œuf", "camembert", "emmental", "comte", "mozzarella", "gruyere",
		"skyr", "milk", "cheese", "yogurt", "butter", "egg",
	}},
	{Category: FruitsVegetables, Keywords: []string{
		"tomate", "pomme", "poire", "banane", "orange", "citron", "fraise",
		"salade", "carotte", "courgette", "aubergine", "poivron", "oignon",
		"concombre", "legume", "fruit", "raisin", "peche", "abricot",
		"epinard", "brocoli", "chou", "avocat", "champignon", "kiwi",
		"apple", "banana", "lemon", "onion", "potato", "patate",
	}},
	{Category: Grocery, Keywords: []string{
		"pain", "pates", "riz", "farine", "sucre", "poivre", "huile",
		"vinaigre", "cafe", "chocolat", "biscuit", "cereale",
		"confiture", "miel", "conserve", "moutarde", "ketchup", "sauce",
		"epice", "lentille", "semoule", "bread", "pasta", "rice", "flour",
	}},
	{Category: Beverages, Keywords: []string{
		"eau", "jus", "vin", "biere", "soda", "sirop", "limonade", "cola",
		"water", "juice", "wine", "beer",
	}},
	{Category: Hygiene, Keywords: []string{
		"savon", "shampo", "dentifrice", "brosse a dent", "deodorant",
		"gel douche", "coton", "rasoir", "papier toilette", "mouchoir",
		"soap", "toothpaste",
	}},
	{Category: Household, Keywords: []string{
		"lessive", "liquide vaisselle", "eponge", "javel", "sac poubelle",
		"nettoyant", "essuie", "detergent", "adoucissant", "ampoule",
		"sponge", "bleach",
	}},
}

// Classify picks the category of a task. An explicit category (id or label,
// case-insensitive) always wins; otherwise the title is matched against
// KeywordTable; otherwise the result is Other. The result is always a member
// of the catalogue.
func Classify(explicit, title string) ID {
	return ClassifyWith(KeywordTable, explicit, title)
}

// ClassifyWith is Classify with a caller-supplied keyword table.
func ClassifyWith(table []KeywordSet, explicit, title string) ID {
	if id, ok := fromExplicit(explicit); ok {
		return id
	}

	folded := Fold(title)
	if folded == "" {
		return Other
	}
	for _, set := range table {
		if !IsValid(set.Category) {
			continue
		}
		for _, kw := range set.Keywords {
			if kw != "" && strings.Contains(folded, Fold(kw)) {
				return set.Category
			}
		}
	}
	return Other
}

// fromExplicit resolves an explicit category text. A CATEGORIES value may
// carry several comma-separated categories; the first recognized one wins.
func fromExplicit(explicit string) (ID, bool) {
	if strings.TrimSpace(explicit) == "" {
		return "", false
	}
	if id, ok := Lookup(explicit); ok {
		return id, true
	}
	for _, part := range strings.Split(explicit, ",") {
		if id, ok := Lookup(part); ok {
			return id, true
		}
	}
	return "", false
}

// Fold lower-cases s and strips diacritics so "Écrémé" and "ecreme" compare
// equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
