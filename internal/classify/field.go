// Package classify provides pure shape tests for individual field values
// and quality tiering for whole records. Both the raw-row quality report
// and the post-enrichment validation reuse the same shape predicates.
package classify

import (
	"regexp"
	"strings"
)

// Shape is the detected content shape of a field value.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeURL
	ShapeEmail
	ShapeShortText
	ShapeOther
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeURL:
		return "url"
	case ShapeEmail:
		return "email"
	case ShapeShortText:
		return "short_text"
	default:
		return "other"
	}
}

// Reason explains a Check outcome.
type Reason string

const (
	ReasonOK          Reason = ""
	ReasonMisaligned  Reason = "misaligned"   // URL found where email/short-text expected
	ReasonWrongShape  Reason = "wrong_shape"  // value present but not the expected shape
	ReasonWrongDomain Reason = "wrong_domain" // URL present but for the wrong profile kind
)

// Local part allows dot, hyphen, plus and apostrophe; TLD must be >= 2 chars.
var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-']+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Tokens whose presence marks a value as URL-like even without a scheme.
var urlTokens = []string{"http://", "https://", "linkedin.com", "crunchbase.com", "www."}

// Value classifies a single string. Rules apply in order; first match wins.
func Value(s string) Shape {
	s = strings.TrimSpace(s)
	if s == "" {
		return ShapeEmpty
	}
	lower := strings.ToLower(s)
	for _, tok := range urlTokens {
		if strings.Contains(lower, tok) {
			return ShapeURL
		}
	}
	if emailRe.MatchString(s) {
		return ShapeEmail
	}
	if len(s) < 50 && !strings.Contains(s, ",") {
		return ShapeShortText
	}
	return ShapeOther
}

// Check tests a value against an expected shape. Empty values are neutral:
// they never fail a required-shape check (missing is reported separately).
func Check(s string, want Shape) (bool, Reason) {
	got := Value(s)
	if got == ShapeEmpty {
		return true, ReasonOK
	}
	if got == want {
		return true, ReasonOK
	}
	// A URL sitting in an email or short-text column is the classic
	// column-misalignment signal.
	if got == ShapeURL && (want == ShapeEmail || want == ShapeShortText) {
		return false, ReasonMisaligned
	}
	return false, ReasonWrongShape
}

// URLKind distinguishes the profile flavors this pipeline cares about.
type URLKind int

const (
	KindOtherURL URLKind = iota
	KindPersonalProfile // linkedin.com/in/...
	KindCompanyProfile  // linkedin.com/company/...
	KindOrgProfile      // crunchbase.com/organization/...
	KindPersonProfile   // crunchbase.com/person/...
)

// URLKindOf inspects a URL-like value and returns its profile kind.
// Personal and organization kinds are mutually exclusive: the personal
// path check runs first so a /in/ URL can never be classified as a
// company or organization reference.
func URLKindOf(s string) URLKind {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(lower, "linkedin.com/in/"):
		return KindPersonalProfile
	case strings.Contains(lower, "linkedin.com/company/"):
		return KindCompanyProfile
	case strings.Contains(lower, "crunchbase.com/person/"):
		return KindPersonProfile
	case strings.Contains(lower, "crunchbase.com/organization/"):
		return KindOrgProfile
	default:
		return KindOtherURL
	}
}

// ProfileSlug extracts the path segment after a personal-profile marker,
// e.g. "jane-doe-123" from "https://linkedin.com/in/jane-doe-123/".
// Returns "" when the value is not a personal-profile URL.
func ProfileSlug(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	idx := strings.Index(lower, "linkedin.com/in/")
	if idx < 0 {
		return ""
	}
	slug := lower[idx+len("linkedin.com/in/"):]
	if end := strings.IndexAny(slug, "/?#"); end >= 0 {
		slug = slug[:end]
	}
	return strings.TrimSpace(slug)
}

// IsCityLike reports whether a value plausibly names a city: short text
// without URL tokens, per the source-data cleaning rules.
func IsCityLike(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if Value(s) == ShapeURL {
		return false
	}
	return len(s) <= 50
}
