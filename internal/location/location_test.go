package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silversky/crm-enrich/internal/model"
)

func TestCountryCode(t *testing.T) {
	t.Parallel()
	n := NewNormalizer()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"United States", "US", true},
		{"usa", "US", true},
		{"U.S.", "US", true},
		{"UNITED STATES", "US", true},
		{"uk", "UK", true},
		{"UAE", "AE", true},
		{"Belguim", "BE", true}, // source-data typo
		{"Switzerland", "CH", true},
		{"Narnia", "", false},
	}
	for _, tt := range tests {
		code, ok := n.CountryCode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, code, tt.in)
		}
	}
}

func TestCityCode(t *testing.T) {
	t.Parallel()
	n := NewNormalizer()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"New York", "NYC", true},
		{"new york", "NYC", true},
		{"Zurich", "ZRH", true},
		{"São Paulo", "SAO", true},
		{"St. Louis", "STL", true},
		{"Gotham", "", false},
	}
	for _, tt := range tests {
		code, ok := n.CityCode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, code, tt.in)
		}
	}
}

func TestCanonicalCountry(t *testing.T) {
	t.Parallel()
	n := NewNormalizer()

	assert.Equal(t, "United States", n.CanonicalCountry("usa"))
	assert.Equal(t, "United Kingdom", n.CanonicalCountry(" UK "))
	assert.Equal(t, "France", n.CanonicalCountry("France"))
}

func TestApply(t *testing.T) {
	t.Parallel()
	n := NewNormalizer()

	records := []model.Record{
		{model.FundCountry: "United States", model.FundCity: "New York"},
		{model.FundCountry: "usa", model.FundCity: "Gotham"},
		{model.FundCountry: "Narnia", model.FundCity: "Gotham"},
		{},
	}

	stats := n.Apply(records)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.CountriesMapped)
	assert.Equal(t, 1, stats.CitiesMapped)
	// Distinct unmapped values reported once each.
	assert.Equal(t, []string{"Narnia"}, stats.UnmappedCountries)
	assert.Equal(t, []string{"Gotham"}, stats.UnmappedCities)

	// Mapped in place, unmapped untouched.
	assert.Equal(t, "US", records[0].Get(model.FundCountry))
	assert.Equal(t, "NYC", records[0].Get(model.FundCity))
	assert.Equal(t, "US", records[1].Get(model.FundCountry))
	assert.Equal(t, "Gotham", records[1].Get(model.FundCity))
	assert.Equal(t, "Narnia", records[2].Get(model.FundCountry))

	require.True(t, records[3].IsBlank(model.FundCountry))
}
