package classify

import (
	"fmt"
	"strings"

	"github.com/silversky/crm-enrich/internal/model"
)

// Tier grades a whole record.
type Tier int

const (
	TierPoor Tier = iota
	TierFair
	TierGood
	TierPerfect
)

func (t Tier) String() string {
	switch t {
	case TierPerfect:
		return "perfect"
	case TierGood:
		return "good"
	case TierFair:
		return "fair"
	default:
		return "poor"
	}
}

// Loose completeness thresholds over the critical field set.
const (
	looseGoodThreshold = 0.85
	looseFairThreshold = 0.60
	loosePoorThreshold = 0.30
)

// TierStrict grades a record against the strict alignment gate: every
// critical field present and every checked field carrying the shape its
// column promises. Any violation drops the record to Poor; the returned
// reasons name each violated field.
func TierStrict(rec model.Record) (Tier, []string) {
	var reasons []string

	for _, key := range model.CriticalFields() {
		if rec.IsBlank(key) {
			reasons = append(reasons, fmt.Sprintf("%s: missing", key))
		}
	}

	// Name, country and type columns must read as plain short text.
	for _, key := range []model.FieldKey{
		model.PocFirstName, model.PocLastName, model.FundCountry, model.FundType,
	} {
		v := rec.Get(key)
		if v == "" {
			continue
		}
		if strings.Contains(v, "@") {
			reasons = append(reasons, fmt.Sprintf("%s: contains email marker", key))
			continue
		}
		if Value(v) == ShapeURL {
			reasons = append(reasons, fmt.Sprintf("%s: contains url", key))
			continue
		}
		if len(v) > 50 {
			reasons = append(reasons, fmt.Sprintf("%s: too long", key))
		}
	}

	for _, key := range []model.FieldKey{model.PocEmail, model.FundEmail} {
		if ok, why := Check(rec.Get(key), ShapeEmail); !ok {
			reasons = append(reasons, fmt.Sprintf("%s: %s", key, why))
		}
	}

	reasons = append(reasons, profileReasons(rec)...)

	if len(reasons) > 0 {
		return TierPoor, reasons
	}
	return TierPerfect, nil
}

// profileReasons enforces the URL-kind contract on the three profile
// columns and the website column. Empty values pass.
func profileReasons(rec model.Record) []string {
	var reasons []string

	if v := rec.Get(model.PocLinkedIn); v != "" && Value(v) == ShapeURL {
		if URLKindOf(v) != KindPersonalProfile {
			reasons = append(reasons, fmt.Sprintf("%s: not a personal profile", model.PocLinkedIn))
		}
	}
	if v := rec.Get(model.FundLinkedIn); v != "" && Value(v) == ShapeURL {
		if URLKindOf(v) == KindPersonalProfile {
			reasons = append(reasons, fmt.Sprintf("%s: personal profile in company column", model.FundLinkedIn))
		}
	}
	if v := rec.Get(model.FundCrunchbase); v != "" && Value(v) == ShapeURL {
		if URLKindOf(v) == KindPersonProfile {
			reasons = append(reasons, fmt.Sprintf("%s: person profile in organization column", model.FundCrunchbase))
		}
	}
	if v := rec.Get(model.FundWebsite); v != "" {
		lower := strings.ToLower(v)
		if strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "crunchbase.com") {
			reasons = append(reasons, fmt.Sprintf("%s: social profile in website column", model.FundWebsite))
		}
	}
	return reasons
}

// TierLoose grades a record by critical-field completeness. Misalignment
// (a URL sitting in an email column) caps the record at Fair; other
// invalid shapes only block Perfect. Used by the quality report, where
// partially-filled rows still carry value.
func TierLoose(rec model.Record) Tier {
	criticals := model.CriticalFields()
	filled := 0
	for _, key := range criticals {
		if !rec.IsBlank(key) {
			filled++
		}
	}
	completeness := float64(filled) / float64(len(criticals))

	misaligned, invalid := looseFlags(rec)

	switch {
	case completeness >= looseGoodThreshold && !misaligned && !invalid:
		return TierPerfect
	case completeness >= looseFairThreshold && !misaligned:
		return TierGood
	case completeness >= loosePoorThreshold:
		return TierFair
	default:
		return TierPoor
	}
}

// looseFlags splits shape problems the way the loose buckets consume
// them: a URL in an email column is misalignment, any other failed email
// shape or wrong-kind profile URL is merely invalid.
func looseFlags(rec model.Record) (misaligned, invalid bool) {
	for _, key := range []model.FieldKey{model.PocEmail, model.FundEmail} {
		ok, why := Check(rec.Get(key), ShapeEmail)
		if ok {
			continue
		}
		if why == ReasonMisaligned {
			misaligned = true
		} else {
			invalid = true
		}
	}
	if len(profileReasons(rec)) > 0 {
		invalid = true
	}
	return misaligned, invalid
}
