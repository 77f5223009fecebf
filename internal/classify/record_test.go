package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silversky/crm-enrich/internal/model"
)

func fullRecord() model.Record {
	return model.Record{
		model.FundTitle:    "Acme Partners",
		model.FundType:     "Venture Capital",
		model.PocFirstName: "Jane",
		model.PocLastName:  "Doe",
		model.PocEmail:     "jane@acme.com",
		model.FundEmail:    "info@acme.com",
		model.FundCountry:  "United States",
	}
}

func TestTierStrictPerfect(t *testing.T) {
	t.Parallel()
	tier, reasons := TierStrict(fullRecord())

	assert.Equal(t, TierPerfect, tier)
	assert.Empty(t, reasons)
}

func TestTierStrictMissingCritical(t *testing.T) {
	t.Parallel()
	rec := fullRecord()
	delete(rec, model.PocEmail)

	tier, reasons := TierStrict(rec)
	assert.Equal(t, TierPoor, tier)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "poc.email")
}

func TestTierStrictViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(model.Record)
		reason string
	}{
		{
			"url in first name",
			func(r model.Record) { r[model.PocFirstName] = "https://linkedin.com/in/jane" },
			"poc.first_name",
		},
		{
			"email marker in country",
			func(r model.Record) { r[model.FundCountry] = "jane@acme.com" },
			"fund.country",
		},
		{
			"url in email column",
			func(r model.Record) { r[model.PocEmail] = "www.acme.com" },
			"poc.email",
		},
		{
			"company profile in personal column",
			func(r model.Record) { r[model.PocLinkedIn] = "https://linkedin.com/company/acme" },
			"poc.linkedin",
		},
		{
			"personal profile in company column",
			func(r model.Record) { r[model.FundLinkedIn] = "https://linkedin.com/in/jane-doe" },
			"fund.linkedin",
		},
		{
			"person profile in organization column",
			func(r model.Record) { r[model.FundCrunchbase] = "https://crunchbase.com/person/jane" },
			"fund.crunchbase",
		},
		{
			"linkedin as website",
			func(r model.Record) { r[model.FundWebsite] = "https://linkedin.com/company/acme" },
			"fund.website",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := fullRecord()
			tt.mutate(rec)

			tier, reasons := TierStrict(rec)
			assert.Equal(t, TierPoor, tier)
			require.NotEmpty(t, reasons)
			assert.Contains(t, reasons[0], tt.reason)
		})
	}
}

func TestTierStrictEmptyProfileColumnsPass(t *testing.T) {
	t.Parallel()
	// Profile columns are optional; only present-and-wrong values fail.
	tier, _ := TierStrict(fullRecord())
	assert.Equal(t, TierPerfect, tier)
}

func TestTierLoose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(model.Record)
		want   Tier
	}{
		{"all criticals clean", func(model.Record) {}, TierPerfect},
		{
			"five of seven clean",
			func(r model.Record) {
				delete(r, model.FundCountry)
				delete(r, model.FundEmail)
			},
			TierGood,
		},
		{
			"url in email column caps at fair",
			func(r model.Record) { r[model.PocEmail] = "www.acme.com" },
			TierFair,
		},
		{
			"malformed email only blocks perfect",
			func(r model.Record) { r[model.PocEmail] = "jane[at]acme" },
			TierGood,
		},
		{
			"wrong-kind profile url only blocks perfect",
			func(r model.Record) { r[model.PocLinkedIn] = "https://linkedin.com/company/acme" },
			TierGood,
		},
		{
			"misaligned and half filled",
			func(r model.Record) {
				r[model.FundEmail] = "https://linkedin.com/company/acme"
				delete(r, model.FundCountry)
				delete(r, model.FundType)
			},
			TierFair,
		},
		{
			"half filled",
			func(r model.Record) {
				delete(r, model.PocEmail)
				delete(r, model.FundEmail)
				delete(r, model.FundCountry)
			},
			TierFair,
		},
		{
			"nearly empty",
			func(r model.Record) {
				for _, k := range model.CriticalFields()[1:] {
					delete(r, k)
				}
			},
			TierPoor,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := fullRecord()
			tt.mutate(rec)
			assert.Equal(t, tt.want, TierLoose(rec))
		})
	}
}
