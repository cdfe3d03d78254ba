package validation

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-formengine/pkg/model"
)

const MessageInvalidEmail = "Invalid email address"

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// ValidateEmail applies the pattern check, then the domain allow-list, then the
// TLD allow-list. A pattern failure short-circuits the allow-list checks.
func ValidateEmail(rule model.EmailValidation, candidate string) Result {
	value := strings.TrimSpace(candidate)
	if rule.IsEmail && !emailPattern.MatchString(value) {
		return fail(MessageInvalidEmail)
	}

	domain := domainOf(value)
	if allowed := normalizeList(rule.RequireDomain); len(allowed) > 0 && !domainAllowed(domain, allowed, rule.AllowSubdomains) {
		return fail(domainMessage(rule))
	}
	if tlds := normalizeList(rule.AllowTLDs); len(tlds) > 0 && !tldAllowed(domain, tlds) {
		return fail("Disallowed top-level domain, allowed top-level domains: " + strings.Join(rule.AllowTLDs, ", "))
	}
	return OK
}

func domainMessage(rule model.EmailValidation) string {
	var b strings.Builder
	b.WriteString("Disallowed domain, allowed domains")
	if rule.AllowSubdomains {
		b.WriteString(" and subdomains")
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(rule.RequireDomain, ", "))
	return b.String()
}

func domainOf(address string) string {
	idx := strings.LastIndex(address, "@")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(address[idx+1:])
}

func domainAllowed(domain string, allowed []string, subdomains bool) bool {
	if domain == "" {
		return false
	}
	for _, candidate := range allowed {
		if domain == candidate {
			return true
		}
		if subdomains && strings.HasSuffix(domain, "."+candidate) {
			return true
		}
	}
	return false
}

func tldAllowed(domain string, tlds []string) bool {
	idx := strings.LastIndex(domain, ".")
	if idx < 0 || idx == len(domain)-1 {
		return false
	}
	tld := domain[idx+1:]
	for _, candidate := range tlds {
		if tld == candidate {
			return true
		}
	}
	return false
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.Trim(strings.TrimSpace(value), "."))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
