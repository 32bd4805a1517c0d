package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxCategoriesOrderAndRates(t *testing.T) {
	want := []struct {
		category TaxCategory
		name     string
		rate     string
	}{
		{TaxCategoryGeneral, "general", "0.21"},
		{TaxCategoryReduced, "reduced", "0.10"},
		{TaxCategorySuperReducedA, "superReducedA", "0.05"},
		{TaxCategorySuperReducedB, "superReducedB", "0.04"},
		{TaxCategorySuperReducedC, "superReducedC", "0"},
		{TaxCategoryNoTax, "noTax", "0"},
	}

	got := TaxCategories()
	require.Len(t, got, NumTaxCategories)
	for i, w := range want {
		assert.Equal(t, w.category, got[i])
		assert.Equal(t, i, got[i].Index())
		assert.Equal(t, w.name, got[i].String())
		assert.True(t, decimal.RequireFromString(w.rate).Equal(got[i].Rate()), "rate for %s", w.name)
	}
}

func TestTaxCategoryValidity(t *testing.T) {
	assert.False(t, TaxCategoryUnspecified.Valid())
	assert.False(t, TaxCategory(99).Valid())
	assert.Equal(t, -1, TaxCategoryUnspecified.Index())
	assert.True(t, TaxCategoryUnspecified.Rate().IsZero())
	assert.Equal(t, "TaxCategory(99)", TaxCategory(99).String())
}

func TestParseTaxCategoryAliases(t *testing.T) {
	cases := map[string]TaxCategory{
		"general":        TaxCategoryGeneral,
		" General ":      TaxCategoryGeneral,
		"reducido":       TaxCategoryReduced,
		"superreducidoA": TaxCategorySuperReducedA,
		"superReducedB":  TaxCategorySuperReducedB,
		"superreducidoC": TaxCategorySuperReducedC,
		"sinIva":         TaxCategoryNoTax,
		"noTax":          TaxCategoryNoTax,
	}
	for input, want := range cases {
		got, err := ParseTaxCategory(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseTaxCategory("luxury")
	assert.Error(t, err)
}

func TestTaxCategoryJSON(t *testing.T) {
	type payload struct {
		Category TaxCategory `json:"category"`
	}

	data, err := json.Marshal(payload{Category: TaxCategorySuperReducedA})
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"superReducedA"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"category":"sinIva"}`), &decoded))
	assert.Equal(t, TaxCategoryNoTax, decoded.Category)

	decoded = payload{}
	require.NoError(t, json.Unmarshal([]byte(`{"category":""}`), &decoded))
	assert.Equal(t, TaxCategoryUnspecified, decoded.Category)

	assert.Error(t, json.Unmarshal([]byte(`{"category":"luxury"}`), &decoded))

	_, err = json.Marshal(payload{})
	assert.Error(t, err)
}

func TestLineResultTax(t *testing.T) {
	r := LineResult{PriceWithoutTax: decimal.NewFromInt(20), PriceWithTax: decimal.NewFromInt(22)}
	assert.True(t, decimal.NewFromInt(2).Equal(r.Tax()))
}
