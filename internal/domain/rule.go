package domain

import (
	"net/url"
	"strings"
	"time"
)

// RuleType selects which bookmark field an auto-tag rule matches against.
type RuleType string

// Supported rule types.
const (
	RuleKeyword   RuleType = "keyword"
	RuleHashtag   RuleType = "hashtag"
	RuleAuthor    RuleType = "author"
	RuleURLDomain RuleType = "url_domain"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	switch t {
	case RuleKeyword, RuleHashtag, RuleAuthor, RuleURLDomain:
		return true
	}
	return false
}

// AutoTagRule attaches its target tag to every bookmark matching the
// pattern. The (TagID, Type, Pattern) tuple is unique.
type AutoTagRule struct {
	ID        int64     `json:"id"`
	TagID     int64     `json:"tag_id"`
	Type      RuleType  `json:"rule_type"`
	Pattern   string    `json:"pattern"`
	CreatedAt time.Time `json:"created_at"`

	// Joined for display.
	TagName  string `json:"tag_name,omitempty"`
	TagColor string `json:"tag_color,omitempty"`
}

// Matches evaluates the rule against a bookmark's current field values.
// Matching is case-insensitive. Malformed URLs never match and never
// error; rule evaluation is deliberately fail-soft.
func (r *AutoTagRule) Matches(b *Bookmark) bool {
	pattern := strings.ToLower(r.Pattern)

	switch r.Type {
	case RuleKeyword:
		return strings.Contains(strings.ToLower(b.Text), pattern)
	case RuleHashtag:
		for _, h := range b.Hashtags {
			if strings.ToLower(h) == pattern {
				return true
			}
		}
	case RuleAuthor:
		return strings.ToLower(b.AuthorUsername) == pattern
	case RuleURLDomain:
		for _, raw := range b.URLs {
			u, err := url.Parse(raw)
			if err != nil || u.Hostname() == "" {
				continue
			}
			if strings.Contains(strings.ToLower(u.Hostname()), pattern) {
				return true
			}
		}
	}
	return false
}
