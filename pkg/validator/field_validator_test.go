package validator

import (
	"testing"

	"github.com/wenwex7981/dynfields/internal/domain"
)

func textField(name string, required bool) domain.FieldDefinition {
	return domain.NewFieldDefinition(domain.EntityTypeServices, domain.FieldDefinitionSpec{
		Name:     name,
		Label:    name,
		Type:     domain.FieldTypeText,
		Required: required,
		Visible:  true,
	}, 0)
}

func numberField(name string, required bool) domain.FieldDefinition {
	return domain.NewFieldDefinition(domain.EntityTypeServices, domain.FieldDefinitionSpec{
		Name:     name,
		Label:    name,
		Type:     domain.FieldTypeNumber,
		Required: required,
		Visible:  true,
	}, 0)
}

func TestRequiredFieldMissing(t *testing.T) {
	fv := NewFieldValidator()
	def := textField("headline", true)

	for _, raw := range []any{nil, "", "   "} {
		_, fieldErr := fv.ValidateField(def, raw, raw != nil)
		if fieldErr == nil {
			t.Fatalf("expected rejection for input %#v", raw)
		}
		if fieldErr.Code != CodeMissingRequired {
			t.Errorf("expected MISSING_REQUIRED for %#v, got %s", raw, fieldErr.Code)
		}
	}

	// Missing entirely.
	_, fieldErr := fv.ValidateField(def, nil, false)
	if fieldErr == nil || fieldErr.Code != CodeMissingRequired {
		t.Fatalf("expected MISSING_REQUIRED for absent value, got %+v", fieldErr)
	}
}

func TestRequiredBeatsOtherRules(t *testing.T) {
	fv := NewFieldValidator()
	limit := 5.0
	def := textField("headline", true)
	def.Rules = []domain.ValidationRule{{Name: domain.RuleMinLength, Limit: &limit}}

	_, fieldErr := fv.ValidateField(def, "", true)
	if fieldErr == nil || fieldErr.Code != CodeMissingRequired {
		t.Fatalf("empty required input must always reject as MISSING_REQUIRED, got %+v", fieldErr)
	}
}

func TestOptionalAbsentSubstitutesDefault(t *testing.T) {
	fv := NewFieldValidator()

	def := textField("tagline", false)
	value, fieldErr := fv.ValidateField(def, nil, false)
	if fieldErr != nil {
		t.Fatalf("unexpected rejection: %+v", fieldErr)
	}
	if value != "" {
		t.Errorf("expected empty string default, got %#v", value)
	}

	def.DefaultValue = "coming soon"
	value, fieldErr = fv.ValidateField(def, nil, false)
	if fieldErr != nil {
		t.Fatalf("unexpected rejection: %+v", fieldErr)
	}
	if value != "coming soon" {
		t.Errorf("expected configured default, got %#v", value)
	}
}

func TestDefaultCoercedThroughType(t *testing.T) {
	fv := NewFieldValidator()
	def := numberField("rating_scale", false)
	def.DefaultValue = "5"

	value, fieldErr := fv.ValidateField(def, nil, false)
	if fieldErr != nil {
		t.Fatalf("unexpected rejection: %+v", fieldErr)
	}
	if value != float64(5) {
		t.Errorf("expected numeric default 5, got %#v", value)
	}
}

func TestTypeMismatch(t *testing.T) {
	fv := NewFieldValidator()
	def := numberField("rating_scale", true)

	_, fieldErr := fv.ValidateField(def, "abc", true)
	if fieldErr == nil || fieldErr.Code != CodeTypeMismatch {
		t.Fatalf("expected TYPE_MISMATCH, got %+v", fieldErr)
	}
}

func TestInvalidFormat(t *testing.T) {
	fv := NewFieldValidator()
	def := domain.NewFieldDefinition(domain.EntityTypeVendors, domain.FieldDefinitionSpec{
		Name:    "contact_email",
		Label:   "Contact Email",
		Type:    domain.FieldTypeEmail,
		Visible: true,
	}, 0)

	_, fieldErr := fv.ValidateField(def, "not-an-email", true)
	if fieldErr == nil || fieldErr.Code != CodeInvalidFormat {
		t.Fatalf("expected INVALID_FORMAT, got %+v", fieldErr)
	}
}

func TestSelectMembership(t *testing.T) {
	fv := NewFieldValidator()
	def := domain.NewFieldDefinition(domain.EntityTypeServices, domain.FieldDefinitionSpec{
		Name:    "tier",
		Label:   "Tier",
		Type:    domain.FieldTypeSelect,
		Options: []string{"basic", "premium"},
		Visible: true,
	}, 0)

	if value, fieldErr := fv.ValidateField(def, "premium", true); fieldErr != nil || value != "premium" {
		t.Fatalf("expected premium to be accepted, got %v / %+v", value, fieldErr)
	}

	_, fieldErr := fv.ValidateField(def, "platinum", true)
	if fieldErr == nil || fieldErr.Code != CodeInvalidFormat {
		t.Fatalf("expected INVALID_FORMAT for unknown option, got %+v", fieldErr)
	}
}

func TestRulesRunInDeclaredOrder(t *testing.T) {
	fv := NewFieldValidator()
	minLen := 10.0
	maxLen := 3.0
	def := textField("headline", false)
	// Both rules fail for this input; the first declared must win.
	def.Rules = []domain.ValidationRule{
		{Name: domain.RuleMinLength, Limit: &minLen},
		{Name: domain.RuleMaxLength, Limit: &maxLen},
	}

	_, fieldErr := fv.ValidateField(def, "abcde", true)
	if fieldErr == nil || fieldErr.Code != CodeRuleViolation {
		t.Fatalf("expected RULE_VIOLATION, got %+v", fieldErr)
	}
	if fieldErr.Rule != domain.RuleMinLength {
		t.Errorf("expected first declared rule to fail first, got %s", fieldErr.Rule)
	}
}

func TestNumericRangeRules(t *testing.T) {
	fv := NewFieldValidator()
	minimum := 1.0
	maximum := 5.0
	def := numberField("rating_scale", true)
	def.Rules = []domain.ValidationRule{
		{Name: domain.RuleMin, Limit: &minimum},
		{Name: domain.RuleMax, Limit: &maximum},
	}

	if value, fieldErr := fv.ValidateField(def, "4", true); fieldErr != nil || value != float64(4) {
		t.Fatalf("expected 4 to be accepted, got %v / %+v", value, fieldErr)
	}

	_, fieldErr := fv.ValidateField(def, 9, true)
	if fieldErr == nil || fieldErr.Rule != domain.RuleMax {
		t.Fatalf("expected max violation, got %+v", fieldErr)
	}
}

func TestPatternRule(t *testing.T) {
	fv := NewFieldValidator()
	def := textField("sku", false)
	def.Rules = []domain.ValidationRule{{Name: domain.RulePattern, Pattern: `^[A-Z]{3}-\d{4}$`}}

	if _, fieldErr := fv.ValidateField(def, "ABC-1234", true); fieldErr != nil {
		t.Fatalf("expected matching value to pass, got %+v", fieldErr)
	}
	if _, fieldErr := fv.ValidateField(def, "abc", true); fieldErr == nil {
		t.Fatalf("expected non-matching value to fail")
	}
}

func TestValidateBagScenario(t *testing.T) {
	fv := NewFieldValidator()
	rating := numberField("rating_scale", true)
	tagline := textField("tagline", false)
	defs := []domain.FieldDefinition{rating, tagline}

	// Bad rating, absent tagline: one error, tagline accepted with default.
	result := fv.ValidateBag(defs, map[string]any{"rating_scale": "abc"})
	if result.IsValid {
		t.Fatalf("expected bag to be invalid")
	}
	if len(result.Errors) != 1 || result.Errors[0].Field != "rating_scale" || result.Errors[0].Code != CodeTypeMismatch {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if value, ok := result.Values["tagline"]; !ok || value != "" {
		t.Fatalf("expected tagline to be accepted as empty default, got %#v", value)
	}

	// Good values: both accepted and coerced.
	result = fv.ValidateBag(defs, map[string]any{"rating_scale": "4", "tagline": "Great!"})
	if !result.IsValid {
		t.Fatalf("expected bag to be valid, errors: %+v", result.Errors)
	}
	if result.Values["rating_scale"] != float64(4) {
		t.Errorf("expected rating coerced to 4, got %#v", result.Values["rating_scale"])
	}
	if result.Values["tagline"] != "Great!" {
		t.Errorf("expected tagline preserved, got %#v", result.Values["tagline"])
	}
}
