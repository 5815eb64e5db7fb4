package session

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultEmailDomain is the institutional mail domain accepted by the gate
const DefaultEmailDomain = "vit.edu.in"

// Matcher checks candidate emails against the institutional pattern
// ^[A-Za-z0-9._%+-]+@<domain>$, case-insensitively.
type Matcher struct {
	domain string
	re     *regexp.Regexp
}

// NewMatcher builds a matcher for the given mail domain
func NewMatcher(domain string) (*Matcher, error) {
	domain = strings.TrimSpace(strings.TrimPrefix(domain, "@"))
	if domain == "" {
		return nil, fmt.Errorf("institutional email domain is required")
	}

	re, err := regexp.Compile(`(?i)^[a-z0-9._%+-]+@` + regexp.QuoteMeta(domain) + `$`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile email pattern: %w", err)
	}
	return &Matcher{domain: domain, re: re}, nil
}

// MustMatcher is like NewMatcher but panics on error
func MustMatcher(domain string) *Matcher {
	m, err := NewMatcher(domain)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether candidate is an institutional email
func (m *Matcher) Match(candidate string) bool {
	return m.re.MatchString(candidate)
}

// Domain returns the institutional mail domain
func (m *Matcher) Domain() string {
	return m.domain
}

var defaultMatcher = MustMatcher(DefaultEmailDomain)

// ValidateInstitutionalEmail checks candidate against the default institutional domain
func ValidateInstitutionalEmail(candidate string) bool {
	return defaultMatcher.Match(candidate)
}
