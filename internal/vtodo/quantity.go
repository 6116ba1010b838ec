package vtodo

import (
	"regexp"
	"strings"
)

// quantityLabel prefixes the description line that carries an item quantity.
const quantityLabel = "Quantité:"

// quantityPattern matches a number followed by a unit. The unit must end the
// word, so "2 lait" does not read as two litres.
var quantityPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(` +
	`kg|mg|g|grammes?|kilos?|` +
	`cl|ml|dl|l|litres?|liters?|` +
	`pièces?|pieces?|unités?|unites?|paquets?|boîtes?|boites?|bouteilles?|sachets?|pcs|packs?|x` +
	`)(?:[^\p{L}\p{N}]|$)`)

// ExtractQuantity finds the first "<number><unit>" in a free text
// description. The result is normalized to the number directly followed by
// the lower-cased unit, so "2 KG" becomes "2kg".
func ExtractQuantity(description string) (string, bool) {
	m := quantityPattern.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	return m[1] + strings.ToLower(m[2]), true
}

// FormatQuantity builds the description line that stores a quantity.
func FormatQuantity(quantity string) string {
	quantity = strings.TrimSpace(quantity)
	if quantity == "" {
		return ""
	}
	return quantityLabel + " " + quantity
}

// QuantityFromDescription returns the quantity stored in a description. A
// line written by FormatQuantity is returned as written; otherwise the
// description is scanned with ExtractQuantity.
func QuantityFromDescription(description string) string {
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := cutPrefixFold(line, quantityLabel); ok {
			if q := strings.TrimSpace(rest); q != "" {
				return q
			}
		}
	}
	q, _ := ExtractQuantity(description)
	return q
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// SetQuantity replaces the quantity line of a description, keeping every
// other line. An empty quantity removes the line.
func SetQuantity(description, quantity string) string {
	var kept []string
	if description != "" {
		for _, line := range strings.Split(description, "\n") {
			if _, ok := cutPrefixFold(strings.TrimSpace(line), quantityLabel); ok {
				continue
			}
			kept = append(kept, line)
		}
	}
	if q := FormatQuantity(quantity); q != "" {
		kept = append([]string{q}, kept...)
	}
	return strings.Join(kept, "\n")
}
