package domain

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Rule names layered on top of the base type check. Rules run in the order
// they are declared on a definition; the first failure wins.
const (
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleMin       = "min"
	RuleMax       = "max"
	RulePattern   = "pattern"
)

// ValidationRule is one extra constraint attached to a field definition.
// Limit carries the numeric bound for length and range rules; Pattern
// carries the RE2 expression for pattern rules.
type ValidationRule struct {
	Name    string   `json:"name"`
	Limit   *float64 `json:"limit,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
}

// Check evaluates the rule against an already coerced value. Values of a
// kind the rule does not apply to pass unchanged.
func (r ValidationRule) Check(value any) error {
	switch r.Name {
	case RuleMinLength:
		if s, ok := value.(string); ok && r.Limit != nil {
			if n := utf8.RuneCountInString(s); n < int(*r.Limit) {
				return fmt.Errorf("length %d is below minimum %d", n, int(*r.Limit))
			}
		}
	case RuleMaxLength:
		if s, ok := value.(string); ok && r.Limit != nil {
			if n := utf8.RuneCountInString(s); n > int(*r.Limit) {
				return fmt.Errorf("length %d exceeds maximum %d", n, int(*r.Limit))
			}
		}
	case RuleMin:
		if n, ok := value.(float64); ok && r.Limit != nil {
			if n < *r.Limit {
				return fmt.Errorf("value %v is below minimum %v", n, *r.Limit)
			}
		}
	case RuleMax:
		if n, ok := value.(float64); ok && r.Limit != nil {
			if n > *r.Limit {
				return fmt.Errorf("value %v exceeds maximum %v", n, *r.Limit)
			}
		}
	case RulePattern:
		if s, ok := value.(string); ok && r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", r.Pattern, err)
			}
			if !re.MatchString(s) {
				return fmt.Errorf("value does not match pattern %q", r.Pattern)
			}
		}
	default:
		return fmt.Errorf("unknown rule %q", r.Name)
	}
	return nil
}

// ValidateRuleSpec checks that a rule declaration is structurally sound
// before it is stored on a definition.
func ValidateRuleSpec(rule ValidationRule) error {
	switch rule.Name {
	case RuleMinLength, RuleMaxLength, RuleMin, RuleMax:
		if rule.Limit == nil {
			return fmt.Errorf("rule %s requires a limit", rule.Name)
		}
	case RulePattern:
		if rule.Pattern == "" {
			return fmt.Errorf("rule %s requires a pattern", RulePattern)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("rule %s has invalid pattern: %w", RulePattern, err)
		}
	default:
		return fmt.Errorf("unknown rule %q", rule.Name)
	}
	return nil
}
