package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxCategory classifies a product for VAT purposes. The zero value marks an absent category.
type TaxCategory int

const (
	TaxCategoryUnspecified TaxCategory = iota
	TaxCategoryGeneral
	TaxCategoryReduced
	TaxCategorySuperReducedA
	TaxCategorySuperReducedB
	TaxCategorySuperReducedC
	TaxCategoryNoTax
)

// NumTaxCategories is the number of concrete categories returned by TaxCategories.
const NumTaxCategories = int(TaxCategoryNoTax)

var (
	taxCategoryNames = [...]string{
		TaxCategoryUnspecified:   "unspecified",
		TaxCategoryGeneral:       "general",
		TaxCategoryReduced:       "reduced",
		TaxCategorySuperReducedA: "superReducedA",
		TaxCategorySuperReducedB: "superReducedB",
		TaxCategorySuperReducedC: "superReducedC",
		TaxCategoryNoTax:         "noTax",
	}

	taxRates = [...]decimal.Decimal{
		TaxCategoryUnspecified:   decimal.Zero,
		TaxCategoryGeneral:       decimal.RequireFromString("0.21"),
		TaxCategoryReduced:       decimal.RequireFromString("0.10"),
		TaxCategorySuperReducedA: decimal.RequireFromString("0.05"),
		TaxCategorySuperReducedB: decimal.RequireFromString("0.04"),
		TaxCategorySuperReducedC: decimal.Zero,
		TaxCategoryNoTax:         decimal.Zero,
	}

	// Spanish receipt codes are accepted on input for compatibility with existing ticket files.
	taxCategoryAliases = map[string]TaxCategory{
		"general":        TaxCategoryGeneral,
		"reduced":        TaxCategoryReduced,
		"reducido":       TaxCategoryReduced,
		"superreduceda":  TaxCategorySuperReducedA,
		"superreducidoa": TaxCategorySuperReducedA,
		"superreducedb":  TaxCategorySuperReducedB,
		"superreducidob": TaxCategorySuperReducedB,
		"superreducedc":  TaxCategorySuperReducedC,
		"superreducidoc": TaxCategorySuperReducedC,
		"notax":          TaxCategoryNoTax,
		"siniva":         TaxCategoryNoTax,
	}
)

// TaxCategories lists every concrete category in breakdown order.
func TaxCategories() []TaxCategory {
	out := make([]TaxCategory, 0, NumTaxCategories)
	for c := TaxCategoryGeneral; c <= TaxCategoryNoTax; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is one of the six concrete categories.
func (c TaxCategory) Valid() bool {
	return c >= TaxCategoryGeneral && c <= TaxCategoryNoTax
}

// Index returns the zero-based position of c in TaxCategories, or -1 when c is not valid.
func (c TaxCategory) Index() int {
	if !c.Valid() {
		return -1
	}
	return int(c) - 1
}

// Rate returns the fractional tax rate for the category. Invalid categories yield zero.
func (c TaxCategory) Rate() decimal.Decimal {
	if !c.Valid() {
		return decimal.Zero
	}
	return taxRates[c]
}

func (c TaxCategory) String() string {
	if c < 0 || int(c) >= len(taxCategoryNames) {
		return fmt.Sprintf("TaxCategory(%d)", int(c))
	}
	return taxCategoryNames[c]
}

// ParseTaxCategory resolves a category from its wire name or Spanish receipt code.
func ParseTaxCategory(value string) (TaxCategory, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if c, ok := taxCategoryAliases[key]; ok {
		return c, nil
	}
	return TaxCategoryUnspecified, fmt.Errorf("domain: unknown tax category %q", value)
}

// MarshalText encodes the category using its wire name.
func (c TaxCategory) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("domain: cannot encode tax category %d", int(c))
	}
	return []byte(taxCategoryNames[c]), nil
}

// UnmarshalText decodes a wire name or Spanish alias. Empty input leaves the category unspecified.
func (c *TaxCategory) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*c = TaxCategoryUnspecified
		return nil
	}
	parsed, err := ParseTaxCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
