package classification

import (
	"fmt"
	"strings"
)

// Metadata keys the classifier consults
const (
	MetaSenderDomain = "senderDomain"
	MetaFolderPath   = "folderPath"
	MetaAttendees    = "attendees"    // semicolon-separated email addresses
	MetaParticipants = "participants" // semicolon-separated email addresses
)

// Result is the classification attached to a record before redaction. It is
// computed once per record and never recomputed downstream.
type Result struct {
	Level       Level  `json:"level"`
	MatchedRule string `json:"matched_rule,omitempty"`
	Reason      string `json:"reason"`
}

// Classifier maps a raw record to a sensitivity level. It is a pure
// function of its inputs: no I/O, no shared mutable state.
type Classifier struct {
	restricted   compiledTier
	confidential compiledTier
	homeDomain   string
}

// NewClassifier validates the injected rule tables and builds a classifier
func NewClassifier(rules RuleSet) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	restricted, err := compileTier(rules.Restricted)
	if err != nil {
		return nil, err
	}
	confidential, err := compileTier(rules.Confidential)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		restricted:   restricted,
		confidential: confidential,
		homeDomain:   strings.ToLower(rules.HomeDomain),
	}, nil
}

// Classify evaluates the rule tables most-restrictive-first. The order is a
// contract: a RESTRICTED match wins even when lower tiers also match.
func (c *Classifier) Classify(content string, metadata map[string]string) Result {
	lowered := strings.ToLower(content)

	if res, ok := matchTier(Restricted, c.restricted, content, lowered, metadata); ok {
		return res
	}
	if res, ok := matchTier(ConfidentialCloudEligible, c.confidential, content, lowered, metadata); ok {
		return res
	}
	if domain, ok := c.externalParticipant(metadata); ok {
		return Result{
			Level:       InternalClosed,
			MatchedRule: "external_participant:" + domain,
			Reason:      fmt.Sprintf("participant from external domain %q present", domain),
		}
	}
	return Result{
		Level:  PublicOpen,
		Reason: "no sensitive keywords, restricted domains, or external participants detected",
	}
}

func matchTier(level Level, tier compiledTier, content, loweredContent string, metadata map[string]string) (Result, bool) {
	if kw, ok := tier.matchKeyword(loweredContent); ok {
		return Result{
			Level:       level,
			MatchedRule: "keyword:" + kw,
			Reason:      fmt.Sprintf("content contains %s-tier keyword %q", level, kw),
		}, true
	}
	if pattern, ok := tier.matchPattern(content); ok {
		return Result{
			Level:       level,
			MatchedRule: "content_pattern:" + pattern,
			Reason:      fmt.Sprintf("content matches %s-tier pattern %q", level, pattern),
		}, true
	}
	if glob, ok := tier.matchDomain(metadata[MetaSenderDomain]); ok {
		return Result{
			Level:       level,
			MatchedRule: "domain:" + glob,
			Reason:      fmt.Sprintf("sender domain %q matches %s-tier pattern %q", metadata[MetaSenderDomain], level, glob),
		}, true
	}
	if prefix, ok := tier.matchPathPrefix(metadata[MetaFolderPath]); ok {
		return Result{
			Level:       level,
			MatchedRule: "path_prefix:" + prefix,
			Reason:      fmt.Sprintf("folder path %q is under %s-tier prefix %q", metadata[MetaFolderPath], level, prefix),
		}, true
	}
	return Result{}, false
}

// externalParticipant reports the first attendee or participant address
// whose domain is not the home agency's.
func (c *Classifier) externalParticipant(metadata map[string]string) (string, bool) {
	for _, key := range []string{MetaAttendees, MetaParticipants} {
		for _, addr := range strings.Split(metadata[key], ";") {
			addr = strings.TrimSpace(strings.ToLower(addr))
			at := strings.LastIndex(addr, "@")
			if at < 0 || at == len(addr)-1 {
				continue
			}
			if domain := addr[at+1:]; domain != c.homeDomain {
				return domain, true
			}
		}
	}
	return "", false
}
