package domain

import "testing"

func TestLengthRulesCountRunes(t *testing.T) {
	limit := 5.0
	maxRule := ValidationRule{Name: RuleMaxLength, Limit: &limit}
	minRule := ValidationRule{Name: RuleMinLength, Limit: &limit}

	// Five runes, seven bytes.
	value := "héllö"

	if err := maxRule.Check(value); err != nil {
		t.Errorf("5-rune value must satisfy max_length 5, got %v", err)
	}
	if err := minRule.Check(value); err != nil {
		t.Errorf("5-rune value must satisfy min_length 5, got %v", err)
	}

	if err := maxRule.Check("héllö!"); err == nil {
		t.Errorf("6-rune value must violate max_length 5")
	}
	if err := minRule.Check("héll"); err == nil {
		t.Errorf("4-rune value must violate min_length 5")
	}
}

func TestRangeRulesIgnoreNonNumbers(t *testing.T) {
	limit := 3.0
	rule := ValidationRule{Name: RuleMax, Limit: &limit}

	if err := rule.Check("not a number"); err != nil {
		t.Errorf("range rules must pass values of other kinds, got %v", err)
	}
	if err := rule.Check(float64(9)); err == nil {
		t.Errorf("expected max violation for 9 > 3")
	}
}
