package security

import (
	"net/url"
	"regexp"
)

// Classification of a matched payload
const (
	MatchSQLInjection = "SQL_INJECTION"
	MatchXSS          = "XSS"
)

// Rule is a named detection signature. The rule sets below are deliberately
// aggressive: blocking a legitimate request that contains the word "select"
// is judged cheaper than missing an attack. Do not narrow them to chase
// false positives.
type Rule struct {
	Name string
	re   *regexp.Regexp
}

// Match reports whether the rule fires on the given string
func (r Rule) Match(s string) bool {
	return r.re.MatchString(s)
}

// SQLInjectionRules covers SQL keywords adjacent to injection idioms.
// An isolated apostrophe (O'Brien) does not fire; an apostrophe followed by
// a comment token or statement separator does.
var SQLInjectionRules = []Rule{
	{"sql-keyword", regexp.MustCompile(`(?i)\b(select|insert|update|delete|drop|create|alter|exec|execute|union)\b`)},
	{"boolean-tautology", regexp.MustCompile(`(?i)\bor\s+['"]?\d+['"]?\s*=\s*['"]?\d+`)},
	{"quote-breakout", regexp.MustCompile(`['"]\s*(--|;)`)},
	{"comment-token", regexp.MustCompile(`--|/\*|\*/`)},
	{"select-exfiltration", regexp.MustCompile(`(?i)\bselect\b.*\bfrom\b.*\bwhere\b`)},
	{"destructive-ddl", regexp.MustCompile(`(?i)\b(drop|delete)\b.*\b(table|database)\b`)},
	{"stored-procedure", regexp.MustCompile(`(?i)(xp_|sp_|cmdshell)`)},
}

// XSSRules covers script injection vectors in string payloads.
var XSSRules = []Rule{
	{"script-tag", regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)},
	{"iframe-tag", regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`)},
	{"javascript-uri", regexp.MustCompile(`(?i)javascript:`)},
	{"event-handler", regexp.MustCompile(`(?i)on\w+\s*=`)},
	{"img-javascript-src", regexp.MustCompile(`(?i)<img[^>]*src\s*=\s*["']?javascript:`)},
	{"eval-call", regexp.MustCompile(`(?i)\beval\s*\(`)},
	{"expression-call", regexp.MustCompile(`(?i)\bexpression\s*\(`)},
}

// LooksLikeSQLInjection classifies a single string value
func LooksLikeSQLInjection(s string) bool {
	if s == "" {
		return false
	}
	for _, rule := range SQLInjectionRules {
		if rule.Match(s) {
			return true
		}
	}
	return false
}

// LooksLikeXSS classifies a single string value
func LooksLikeXSS(s string) bool {
	if s == "" {
		return false
	}
	for _, rule := range XSSRules {
		if rule.Match(s) {
			return true
		}
	}
	return false
}

// PatternMatch identifies the first rule hit inside a scanned payload
type PatternMatch struct {
	Type  string // MatchSQLInjection or MatchXSS
	Rule  string
	Field string
	Value string
}

// matchValue applies both rule sets to a single string, SQL first
func matchValue(field, value string) *PatternMatch {
	if value == "" {
		return nil
	}
	for _, rule := range SQLInjectionRules {
		if rule.Match(value) {
			return &PatternMatch{Type: MatchSQLInjection, Rule: rule.Name, Field: field, Value: value}
		}
	}
	for _, rule := range XSSRules {
		if rule.Match(value) {
			return &PatternMatch{Type: MatchXSS, Rule: rule.Name, Field: field, Value: value}
		}
	}
	return nil
}

// ScanAny walks an arbitrary decoded payload (maps, slices, strings, as
// produced by encoding/json) and returns the first match found, or nil.
func ScanAny(field string, v interface{}) *PatternMatch {
	switch value := v.(type) {
	case string:
		return matchValue(field, value)
	case map[string]interface{}:
		for key, nested := range value {
			if m := ScanAny(key, nested); m != nil {
				return m
			}
		}
	case []interface{}:
		for _, nested := range value {
			if m := ScanAny(field, nested); m != nil {
				return m
			}
		}
	}
	return nil
}

// ScanValues walks URL query values and returns the first match found
func ScanValues(values url.Values) *PatternMatch {
	for key, list := range values {
		if m := matchValue(key, key); m != nil {
			return m
		}
		for _, value := range list {
			if m := matchValue(key, value); m != nil {
				return m
			}
		}
	}
	return nil
}

// ScanStrings walks a flat key/value set such as chi route parameters
func ScanStrings(params map[string]string) *PatternMatch {
	for key, value := range params {
		if m := matchValue(key, value); m != nil {
			return m
		}
	}
	return nil
}
