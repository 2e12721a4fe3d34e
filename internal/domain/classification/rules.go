package classification

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
)

// TierRules is the structured predicate for one sensitivity tier: a record
// matches the tier when its content contains any keyword or matches any
// content pattern, its sender domain matches any domain glob, or its folder
// path starts with any path prefix.
type TierRules struct {
	Keywords        []string `koanf:"keywords" json:"keywords"`
	ContentPatterns []string `koanf:"content_patterns" json:"content_patterns"`
	DomainGlobs     []string `koanf:"domain_globs" json:"domain_globs"`
	PathPrefixes    []string `koanf:"path_prefixes" json:"path_prefixes"`
}

// RuleSet holds the injected classification rule tables. Loaded once at
// startup and treated as immutable for the process lifetime; the classifier
// never reads from process-wide mutable state.
type RuleSet struct {
	Restricted   TierRules `koanf:"restricted" json:"restricted"`
	Confidential TierRules `koanf:"confidential" json:"confidential"`

	// HomeDomain is the agency's own email domain. Participants outside it
	// raise a record to at least InternalClosed.
	HomeDomain string `koanf:"home_domain" json:"home_domain"`
}

// Validate checks the rule tables for malformed entries. A failure here is
// fatal at startup, never surfaced per-request.
func (rs RuleSet) Validate() error {
	if rs.HomeDomain == "" {
		return errors.NewRuleConfigError("classification", "home_domain is required")
	}
	if strings.Contains(rs.HomeDomain, "@") {
		return errors.NewRuleConfigError("classification",
			fmt.Sprintf("home_domain must be a bare domain, got %q", rs.HomeDomain))
	}
	for tier, rules := range map[string]TierRules{
		"restricted":   rs.Restricted,
		"confidential": rs.Confidential,
	} {
		if err := rules.validate(tier); err != nil {
			return err
		}
	}
	return nil
}

func (tr TierRules) validate(tier string) error {
	for _, kw := range tr.Keywords {
		if strings.TrimSpace(kw) == "" {
			return errors.NewRuleConfigError("classification",
				fmt.Sprintf("%s tier contains an empty keyword", tier))
		}
	}
	for _, pattern := range tr.ContentPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return errors.NewRuleConfigError("classification",
				fmt.Sprintf("%s tier content pattern %q is malformed", tier, pattern)).WithCause(err)
		}
	}
	for _, glob := range tr.DomainGlobs {
		if glob == "" {
			return errors.NewRuleConfigError("classification",
				fmt.Sprintf("%s tier contains an empty domain glob", tier))
		}
		if _, err := path.Match(glob, "host.example.com"); err != nil {
			return errors.NewRuleConfigError("classification",
				fmt.Sprintf("%s tier domain glob %q is malformed", tier, glob)).WithCause(err)
		}
	}
	for _, prefix := range tr.PathPrefixes {
		if strings.TrimSpace(prefix) == "" {
			return errors.NewRuleConfigError("classification",
				fmt.Sprintf("%s tier contains an empty path prefix", tier))
		}
	}
	return nil
}

// compiledTier is a TierRules with its content patterns pre-compiled
type compiledTier struct {
	rules    TierRules
	patterns []*regexp.Regexp
}

func compileTier(tr TierRules) (compiledTier, error) {
	ct := compiledTier{rules: tr}
	for _, pattern := range tr.ContentPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return compiledTier{}, err
		}
		ct.patterns = append(ct.patterns, re)
	}
	return ct, nil
}

// matchKeyword returns the first keyword contained in the lowercased content
func (ct compiledTier) matchKeyword(loweredContent string) (string, bool) {
	for _, kw := range ct.rules.Keywords {
		if strings.Contains(loweredContent, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// matchPattern returns the source of the first content pattern that matches
func (ct compiledTier) matchPattern(content string) (string, bool) {
	for _, re := range ct.patterns {
		if re.MatchString(content) {
			return re.String(), true
		}
	}
	return "", false
}

// matchDomain returns the first domain glob matching the sender domain
func (ct compiledTier) matchDomain(domain string) (string, bool) {
	if domain == "" {
		return "", false
	}
	domain = strings.ToLower(domain)
	for _, glob := range ct.rules.DomainGlobs {
		// Globs were validated at load time; Match cannot fail here.
		if ok, _ := path.Match(strings.ToLower(glob), domain); ok {
			return glob, true
		}
	}
	return "", false
}

// matchPathPrefix returns the first prefix that the folder path starts with
func (ct compiledTier) matchPathPrefix(folderPath string) (string, bool) {
	if folderPath == "" {
		return "", false
	}
	for _, prefix := range ct.rules.PathPrefixes {
		if strings.HasPrefix(folderPath, prefix) {
			return prefix, true
		}
	}
	return "", false
}
