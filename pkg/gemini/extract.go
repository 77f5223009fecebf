package gemini

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseError marks a response the model returned but that carried no
// usable JSON object. Parse failures are not transient: retrying the
// same response text cannot help, though the caller may re-issue the
// generation call.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string { return e.msg }

// IsParseError reports whether err (at any wrap depth) is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return eris.As(err, &pe)
}

// ExtractJSON pulls the first JSON object out of model output. It strips
// markdown code fences, then scans for the first balanced {...} span
// (string-aware, so braces inside string values do not end the scan) and
// unmarshals it. Any failure returns a ParseError.
func ExtractJSON(text string) (map[string]any, error) {
	cleaned := stripFences(text)

	span, ok := firstObjectSpan(cleaned)
	if !ok {
		return nil, eris.Wrap(&ParseError{msg: "no JSON object in response"}, "gemini: extract json")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, eris.Wrap(&ParseError{msg: "invalid JSON object: " + err.Error()}, "gemini: extract json")
	}
	return out, nil
}

func stripFences(s string) string {
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
		return strings.TrimSpace(s)
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	return strings.TrimSpace(s)
}

// firstObjectSpan returns the first balanced top-level {...} span.
func firstObjectSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
