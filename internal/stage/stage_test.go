package stage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silversky/crm-enrich/internal/model"
)

func TestParseKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    []Kind
		wantErr bool
	}{
		{"default pair", "poc,fund", []Kind{KindContact, KindFund}, false},
		{"all three", "poc, fund, deep", []Kind{KindContact, KindFund, KindDeepResearch}, false},
		{"aliases", "contact,company,research", []Kind{KindContact, KindFund, KindDeepResearch}, false},
		{"order preserved", "deep,poc", []Kind{KindDeepResearch, KindContact}, false},
		{"unknown", "poc,bogus", nil, true},
		{"empty", " , ", nil, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseKinds(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "poc", KindContact.String())
	assert.Equal(t, "fund", KindFund.String())
	assert.Equal(t, "deep", KindDeepResearch.String())
}

func TestDefinitionOutputs(t *testing.T) {
	t.Parallel()

	contact := For(KindContact)
	assert.Contains(t, contact.Outputs, model.PocLinkedIn)
	assert.Contains(t, contact.Outputs, model.PocDescription)
	assert.NotContains(t, contact.Outputs, model.FundLinkedIn)

	fund := For(KindFund)
	assert.Contains(t, fund.Outputs, model.FundSectors)
	assert.NotContains(t, fund.Outputs, model.PocRole)

	deep := For(KindDeepResearch)
	assert.Contains(t, deep.Outputs, model.FundAUMUSD)
	assert.Contains(t, deep.Outputs, model.FundPortfolioCompanies)

	for _, k := range []Kind{KindContact, KindFund, KindDeepResearch} {
		def := For(k)
		assert.True(t, def.GroundedSearch)
		assert.Equal(t, 0.2, def.Temperature)
		assert.Equal(t, 4000, def.MaxTokens)
		require.NotNil(t, def.BuildPrompt)
	}
}

func TestStandardSectors(t *testing.T) {
	t.Parallel()
	assert.Len(t, StandardSectors, 31)
	assert.True(t, IsStandardSector("venture-capital"))
	assert.True(t, IsStandardSector(" Fintech "))
	assert.False(t, IsStandardSector("underwater-basket-weaving"))
}

func TestBuildContactPrompt(t *testing.T) {
	t.Parallel()
	rec := model.Record{
		model.FundTitle:    "Acme Partners",
		model.FundType:     "Venture Capital",
		model.PocFirstName: "Jane",
		model.PocLastName:  "Doe",
	}
	p := For(KindContact).BuildPrompt(rec)

	assert.Contains(t, p, "Jane Doe")
	assert.Contains(t, p, "Acme Partners (Venture Capital)")
	assert.Contains(t, p, "Current LinkedIn: MISSING")
	assert.Contains(t, p, "Current role: Unknown")
	assert.Contains(t, p, `"_stage_meta"`)
	assert.Contains(t, p, "Return ONLY valid JSON")
}

func TestBuildFundPrompt(t *testing.T) {
	t.Parallel()
	rec := model.Record{
		model.FundTitle:   "Acme Partners",
		model.FundType:    "Venture Capital",
		model.FundCountry: "United States",
		model.FundCity:    "San Francisco",
		model.FundWebsite: "https://acme.com",
	}
	p := For(KindFund).BuildPrompt(rec)

	assert.Contains(t, p, "San Francisco, United States")
	assert.Contains(t, p, "Current Website: https://acme.com")
	assert.Contains(t, p, "Current Crunchbase: MISSING")
	// The full controlled vocabulary ships in the prompt.
	assert.Contains(t, p, strings.Join(StandardSectors, ", "))
}

func TestBuildDeepResearchPrompt(t *testing.T) {
	t.Parallel()
	rec := model.Record{
		model.FundTitle: "Acme Partners",
		model.FundType:  "Venture Capital",
	}
	p := For(KindDeepResearch).BuildPrompt(rec)

	assert.Contains(t, p, "Website: Unknown")
	assert.Contains(t, p, "fund.aum_usd")
	assert.Contains(t, p, "fund.portfolio_companies")
}
