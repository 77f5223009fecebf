// Package model defines the typed record schema shared across the
// enrichment pipeline. Field names follow the dot-namespaced convention
// of the source CRM export (fund.* for the organization, poc.* for the
// contact person).
package model

import (
	"fmt"
	"strings"
)

// FieldKey identifies one record field. Using a dedicated type keeps
// field references compile-checked instead of bare strings.
type FieldKey string

// Source schema fields, in CRM export column order.
const (
	FundTitle          FieldKey = "fund.title"
	FundType           FieldKey = "fund.type"
	PocFirstName       FieldKey = "poc.first_name"
	PocLastName        FieldKey = "poc.last_name"
	PocRole            FieldKey = "poc.role"
	PocEmail           FieldKey = "poc.email"
	FundEmail          FieldKey = "fund.email"
	FundWebsite        FieldKey = "fund.website"
	FundCountry        FieldKey = "fund.country"
	FundCity           FieldKey = "fund.city"
	FundSectors        FieldKey = "fund.sectors"
	FundPreferredStage FieldKey = "fund.preferred_stage"
	PocLinkedIn        FieldKey = "poc.linkedin"
	FundCrunchbase     FieldKey = "fund.crunchbase"
	FundLinkedIn       FieldKey = "fund.linkedin"
	PocPhone           FieldKey = "poc.phone"
	FundPhone          FieldKey = "fund.phone"
)

// Fields only produced by enrichment stages.
const (
	PocDescription         FieldKey = "poc.description"
	FundDescription        FieldKey = "fund.description"
	FundThesis             FieldKey = "fund.thesis"
	FundPortfolioCompanies FieldKey = "fund.portfolio_companies"
	FundAUMUSD             FieldKey = "fund.aum_usd"
	FundAUMYear            FieldKey = "fund.aum_year"
	FundGeographies        FieldKey = "fund.geographies"
)

// ValidationIssues is the output column carrying non-fatal validation
// rejections recorded while merging enrichment results.
const ValidationIssues FieldKey = "_validation_issues"

// SourceFields returns the source schema in column order.
func SourceFields() []FieldKey {
	return []FieldKey{
		FundTitle, FundType,
		PocFirstName, PocLastName, PocRole, PocEmail,
		FundEmail, FundWebsite, FundCountry, FundCity,
		FundSectors, FundPreferredStage,
		PocLinkedIn, FundCrunchbase, FundLinkedIn,
		PocPhone, FundPhone,
	}
}

// EnrichedFields returns the fields that only enrichment stages produce.
func EnrichedFields() []FieldKey {
	return []FieldKey{
		PocDescription,
		FundDescription, FundThesis, FundPortfolioCompanies,
		FundAUMUSD, FundAUMYear, FundGeographies,
	}
}

// OutputColumns returns the fixed output superset: source schema, then
// enrichment-only fields, then the issues column.
func OutputColumns() []FieldKey {
	cols := SourceFields()
	cols = append(cols, EnrichedFields()...)
	cols = append(cols, ValidationIssues)
	return cols
}

// CriticalFields is the fixed critical-field list used by quality tiering.
func CriticalFields() []FieldKey {
	return []FieldKey{
		FundTitle, FundType,
		PocFirstName, PocLastName,
		PocEmail, FundEmail, FundCountry,
	}
}

// Record maps field keys to values. Source values are strings; enrichment
// may contribute lists (fund.sectors, fund.geographies) and lists of
// objects (fund.portfolio_companies). A Record read from source is never
// mutated by enrichment; merging always operates on a clone.
type Record map[FieldKey]any

// Get returns the string form of a field, or "" when absent.
func (r Record) Get(key FieldKey) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Set stores a value under key.
func (r Record) Set(key FieldKey, value any) {
	r[key] = value
}

// IsBlank reports whether the field is absent or whitespace-only.
func (r Record) IsBlank(key FieldKey) bool {
	return strings.TrimSpace(r.Get(key)) == ""
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IdentityKey returns the normalized natural key used for duplicate
// grouping: lower-cased, trimmed fund title plus contact first and last
// name, separated by "|".
func (r Record) IdentityKey() string {
	norm := func(key FieldKey) string {
		return strings.ToLower(strings.TrimSpace(r.Get(key)))
	}
	return norm(FundTitle) + "|" + norm(PocFirstName) + "|" + norm(PocLastName)
}

// ContactName returns the contact's first and last name, trimmed.
func (r Record) ContactName() (first, last string) {
	return strings.TrimSpace(r.Get(PocFirstName)), strings.TrimSpace(r.Get(PocLastName))
}

// Merged is a derived record produced by enrichment: the original fields
// overlaid with accepted stage output, plus the accumulated issue list.
type Merged struct {
	Record Record
	Issues []string
}

// NewMerged starts a merged record from a clone of the original.
func NewMerged(original Record) *Merged {
	return &Merged{Record: original.Clone()}
}

// Apply overlays accepted stage fields onto the merged record. Nil and
// empty values are never written, so merging an empty stage output leaves
// the record unchanged.
func (m *Merged) Apply(accepted map[FieldKey]any) {
	for k, v := range accepted {
		if isEmptyValue(v) {
			continue
		}
		m.Record[k] = v
	}
}

// AddIssues appends validation issue strings.
func (m *Merged) AddIssues(issues ...string) {
	m.Issues = append(m.Issues, issues...)
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
