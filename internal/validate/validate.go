// Package validate checks stage output against the identity of the
// original record before it is merged. A rejected field is dropped and
// reported as an issue; validation never aborts a stage.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/silversky/crm-enrich/internal/classify"
	"github.com/silversky/crm-enrich/internal/model"
	"github.com/silversky/crm-enrich/internal/stage"
)

// StageOutput filters raw stage output down to the fields the stage is
// allowed to produce and that pass the per-field rules. Keys prefixed
// with "_" are diagnostics and are skipped silently; empty and null
// values are never accepted.
func StageOutput(original model.Record, def stage.Definition, raw map[string]any) (map[model.FieldKey]any, []string) {
	accepted := make(map[model.FieldKey]any)
	var issues []string

	allowed := make(map[model.FieldKey]bool, len(def.Outputs))
	for _, k := range def.Outputs {
		allowed[k] = true
	}

	for rawKey, value := range raw {
		if strings.HasPrefix(rawKey, "_") {
			continue
		}
		key := model.FieldKey(rawKey)
		if !allowed[key] {
			issues = append(issues, fmt.Sprintf("%s: unexpected field from %s stage", key, def.Kind))
			continue
		}
		if isEmpty(value) {
			continue
		}

		v, issue := checkField(original, key, value)
		if issue != "" {
			issues = append(issues, issue)
		}
		if v != nil {
			accepted[key] = v
		}
	}
	return accepted, issues
}

// checkField applies the per-field rule. It returns the (possibly
// rewritten) value to merge, or nil when the field is rejected; issue is
// non-empty when something was dropped or filtered.
func checkField(original model.Record, key model.FieldKey, value any) (any, string) {
	switch key {
	case model.PocLinkedIn:
		return checkPersonalProfile(original, value)
	case model.FundLinkedIn:
		s := asString(value)
		if classify.URLKindOf(s) == classify.KindPersonalProfile {
			return nil, fmt.Sprintf("%s: rejected personal profile %q", key, s)
		}
		return s, ""
	case model.FundCrunchbase:
		s := asString(value)
		if classify.URLKindOf(s) == classify.KindPersonProfile {
			return nil, fmt.Sprintf("%s: rejected person profile %q", key, s)
		}
		return s, ""
	case model.FundWebsite:
		s := asString(value)
		lower := strings.ToLower(s)
		if strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "crunchbase.com") {
			return nil, fmt.Sprintf("%s: rejected social profile %q", key, s)
		}
		return s, ""
	case model.FundSectors:
		return checkSectors(value)
	case model.FundAUMUSD, model.FundAUMYear:
		n, ok := asInt(value)
		if !ok {
			return nil, fmt.Sprintf("%s: rejected non-integer %v", key, value)
		}
		return n, ""
	case model.FundPortfolioCompanies, model.FundGeographies:
		return value, ""
	default:
		return asString(value), ""
	}
}

// checkPersonalProfile accepts a poc.linkedin URL only when its /in/
// slug contains the contact's first or last name. An unverifiable slug
// is treated as a wrong-person risk and dropped.
func checkPersonalProfile(original model.Record, value any) (any, string) {
	s := asString(value)
	slug := classify.ProfileSlug(s)
	if slug == "" {
		return nil, fmt.Sprintf("%s: rejected non-personal url %q", model.PocLinkedIn, s)
	}

	first, last := original.ContactName()
	first = strings.ToLower(first)
	last = strings.ToLower(last)

	if (first != "" && strings.Contains(slug, first)) ||
		(last != "" && strings.Contains(slug, last)) {
		return s, ""
	}
	return nil, fmt.Sprintf("%s: slug %q does not match contact name", model.PocLinkedIn, slug)
}

// checkSectors filters a sector list to the controlled vocabulary.
func checkSectors(value any) (any, string) {
	items, ok := asStringSlice(value)
	if !ok {
		return nil, fmt.Sprintf("%s: rejected non-list %v", model.FundSectors, value)
	}

	var kept []string
	var dropped []string
	for _, s := range items {
		slug := strings.ToLower(strings.TrimSpace(s))
		if stage.IsStandardSector(slug) {
			kept = append(kept, slug)
		} else if slug != "" {
			dropped = append(dropped, slug)
		}
	}

	issue := ""
	if len(dropped) > 0 {
		issue = fmt.Sprintf("%s: dropped non-standard sectors %s",
			model.FundSectors, strings.Join(dropped, ", "))
	}
	if len(kept) == 0 {
		return nil, issue
	}
	return kept, issue
}

func isEmpty(v any) bool {
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

func asString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
