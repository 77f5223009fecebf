// Package quality scores a record set: per-field fill rates, alignment
// violations, duplicate groups and a composite grade.
package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/silversky/crm-enrich/internal/classify"
	"github.com/silversky/crm-enrich/internal/model"
)

// Composite score weights.
const (
	weightFill  = 0.4
	weightKey   = 0.3
	weightClean = 0.3
)

// KeyFields are the fields whose fill rate is weighted separately:
// the ones outreach actually depends on.
var KeyFields = []model.FieldKey{
	model.PocEmail, model.FundWebsite, model.PocRole, model.FundSectors,
}

// DuplicateGroup is a set of records sharing an identity key.
type DuplicateGroup struct {
	Key     string `json:"key"`
	Indices []int  `json:"indices"`
}

// Violation is one misaligned field occurrence.
type Violation struct {
	Index  int            `json:"index"`
	Field  model.FieldKey `json:"field"`
	Reason string         `json:"reason"`
}

// Report is the full quality analysis of a record set.
type Report struct {
	Total           int                        `json:"total"`
	FillRates       map[model.FieldKey]float64 `json:"fill_rates"`
	TierCounts      map[string]int             `json:"tier_counts"`
	Violations      []Violation                `json:"violations"`
	DuplicateGroups []DuplicateGroup           `json:"duplicate_groups"`
	CleanRate       float64                    `json:"clean_rate"`
	Score           float64                    `json:"score"`
	Grade           string                     `json:"grade"`
}

// Analyze computes the quality report for records.
func Analyze(records []model.Record) *Report {
	rep := &Report{
		Total:      len(records),
		FillRates:  make(map[model.FieldKey]float64),
		TierCounts: make(map[string]int),
	}
	if len(records) == 0 {
		rep.Grade = grade(0)
		return rep
	}

	fields := model.SourceFields()
	fillCounts := make(map[model.FieldKey]int, len(fields))
	dirty := make(map[int]bool)
	byKey := make(map[string][]int)

	for i, rec := range records {
		for _, f := range fields {
			if !rec.IsBlank(f) {
				fillCounts[f]++
			}
		}
		for _, v := range recordViolations(rec) {
			v.Index = i
			rep.Violations = append(rep.Violations, v)
			dirty[i] = true
		}
		rep.TierCounts[classify.TierLoose(rec).String()]++
		byKey[rec.IdentityKey()] = append(byKey[rec.IdentityKey()], i)
	}

	for _, f := range fields {
		rep.FillRates[f] = float64(fillCounts[f]) / float64(len(records))
	}

	keys := make([]string, 0, len(byKey))
	for k, idxs := range byKey {
		if len(idxs) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		rep.DuplicateGroups = append(rep.DuplicateGroups, DuplicateGroup{Key: k, Indices: byKey[k]})
	}

	rep.CleanRate = float64(len(records)-len(dirty)) / float64(len(records))
	rep.Score = compositeScore(rep.FillRates, rep.CleanRate)
	rep.Grade = grade(rep.Score)
	return rep
}

// recordViolations applies the per-field shape checks a clean record must
// pass. Index is filled in by the caller.
func recordViolations(rec model.Record) []Violation {
	var out []Violation

	add := func(field model.FieldKey, reason string) {
		out = append(out, Violation{Field: field, Reason: reason})
	}

	for _, f := range []model.FieldKey{model.PocEmail, model.FundEmail} {
		if ok, why := classify.Check(rec.Get(f), classify.ShapeEmail); !ok {
			add(f, string(why))
		}
	}
	if v := rec.Get(model.PocLinkedIn); v != "" && classify.URLKindOf(v) != classify.KindPersonalProfile {
		add(model.PocLinkedIn, "not a personal profile")
	}
	if v := rec.Get(model.FundLinkedIn); classify.URLKindOf(v) == classify.KindPersonalProfile {
		add(model.FundLinkedIn, "personal profile in company column")
	}
	if v := rec.Get(model.FundCrunchbase); classify.URLKindOf(v) == classify.KindPersonProfile {
		add(model.FundCrunchbase, "person profile in organization column")
	}
	if v := strings.ToLower(rec.Get(model.FundWebsite)); v != "" &&
		(strings.Contains(v, "linkedin.com") || strings.Contains(v, "crunchbase.com")) {
		add(model.FundWebsite, "social profile in website column")
	}
	if v := rec.Get(model.FundCity); v != "" && !classify.IsCityLike(v) {
		add(model.FundCity, "not city-like")
	}
	return out
}

func compositeScore(fillRates map[model.FieldKey]float64, cleanRate float64) float64 {
	meanFill := meanOf(fillRates, model.SourceFields())
	keyFill := meanOf(fillRates, KeyFields)

	score := (weightFill*cap01(meanFill) + weightKey*cap01(keyFill) + weightClean*cap01(cleanRate)) * 100
	return math.Round(score*10) / 10
}

func meanOf(rates map[model.FieldKey]float64, fields []model.FieldKey) float64 {
	if len(fields) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range fields {
		sum += rates[f]
	}
	return sum / float64(len(fields))
}

func cap01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Render writes the human-readable report.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Records analyzed: %d\n", r.Total)
	fmt.Fprintf(&b, "Composite score:  %.1f (grade %s)\n", r.Score, r.Grade)
	fmt.Fprintf(&b, "Clean rate:       %.1f%%\n\n", r.CleanRate*100)

	b.WriteString("Tier distribution:\n")
	for _, tier := range []string{"perfect", "good", "fair", "poor"} {
		if n := r.TierCounts[tier]; n > 0 || r.Total > 0 {
			fmt.Fprintf(&b, "  %-8s %d\n", tier, n)
		}
	}

	b.WriteString("\nFill rates:\n")
	for _, f := range model.SourceFields() {
		fmt.Fprintf(&b, "  %-22s %5.1f%%\n", f, r.FillRates[f]*100)
	}

	if len(r.DuplicateGroups) > 0 {
		fmt.Fprintf(&b, "\nDuplicate groups: %d\n", len(r.DuplicateGroups))
		for _, g := range r.DuplicateGroups {
			fmt.Fprintf(&b, "  %s -> rows %v\n", g.Key, g.Indices)
		}
	}

	if len(r.Violations) > 0 {
		fmt.Fprintf(&b, "\nAlignment violations: %d\n", len(r.Violations))
		limit := len(r.Violations)
		if limit > 20 {
			limit = 20
		}
		for _, v := range r.Violations[:limit] {
			fmt.Fprintf(&b, "  row %d %s: %s\n", v.Index, v.Field, v.Reason)
		}
		if len(r.Violations) > limit {
			fmt.Fprintf(&b, "  ... and %d more\n", len(r.Violations)-limit)
		}
	}

	b.WriteString("\nVerdict: ")
	b.WriteString(r.verdict())
	b.WriteString("\n")
	return b.String()
}

func (r *Report) verdict() string {
	switch {
	case r.Grade == "A":
		return "ready for outreach"
	case r.Grade == "B" || r.Grade == "C":
		return "usable; run enrichment to close the gaps"
	default:
		return "enrich and deduplicate before use"
	}
}
