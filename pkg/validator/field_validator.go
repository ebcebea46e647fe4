package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wenwex7981/dynfields/internal/domain"
)

// RejectionCode classifies why a candidate value was rejected.
type RejectionCode string

const (
	CodeMissingRequired RejectionCode = "MISSING_REQUIRED"
	CodeTypeMismatch    RejectionCode = "TYPE_MISMATCH"
	CodeInvalidFormat   RejectionCode = "INVALID_FORMAT"
	CodeRuleViolation   RejectionCode = "RULE_VIOLATION"
)

// FieldError is one structured validation failure. Rule is set only for
// CodeRuleViolation and names the declared rule that failed.
type FieldError struct {
	Field   string        `json:"field"`
	Code    RejectionCode `json:"code"`
	Rule    string        `json:"rule,omitempty"`
	Message string        `json:"message"`
	Value   any           `json:"value,omitempty"`
}

// ValidationResult aggregates bag-level validation. Values holds accepted,
// coerced values per field name; Errors holds every rejection so consumers
// can highlight each offending field.
type ValidationResult struct {
	IsValid bool           `json:"is_valid"`
	Values  map[string]any `json:"values"`
	Errors  []FieldError   `json:"errors"`
}

// FieldValidator decides accept/reject for candidate values against field
// definitions. It holds no state and is safe for concurrent use.
type FieldValidator struct{}

// NewFieldValidator creates a field validator.
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{}
}

// ValidateField runs the validation pipeline for one definition and one
// candidate value, short-circuiting on the first failure:
// required check, default substitution, type coercion, base format check,
// declared rules in order. On acceptance it returns the coerced value.
func (fv *FieldValidator) ValidateField(def domain.FieldDefinition, raw any, present bool) (any, *FieldError) {
	if IsAbsent(raw, present) {
		if def.Required {
			return nil, &FieldError{
				Field:   def.Name,
				Code:    CodeMissingRequired,
				Message: fmt.Sprintf("required field %q is missing", def.Name),
			}
		}
		return DefaultValue(def), nil
	}

	desc, ok := domain.ResolveType(def.Type)
	if !ok {
		// Unknown types are rejected at definition time; reaching this
		// branch means the stored definition predates a registry change.
		return nil, &FieldError{
			Field:   def.Name,
			Code:    CodeTypeMismatch,
			Message: fmt.Sprintf("field %q has unresolvable type %s", def.Name, def.Type),
			Value:   raw,
		}
	}

	coerced, err := desc.Coerce(raw)
	if err != nil {
		return nil, &FieldError{
			Field:   def.Name,
			Code:    CodeTypeMismatch,
			Message: fmt.Sprintf("field %q: %v", def.Name, err),
			Value:   raw,
		}
	}

	if err := desc.BaseValidate(coerced); err != nil {
		return nil, &FieldError{
			Field:   def.Name,
			Code:    CodeInvalidFormat,
			Message: fmt.Sprintf("field %q: %v", def.Name, err),
			Value:   raw,
		}
	}

	if def.Type == domain.FieldTypeSelect {
		if err := checkOptionMembership(def.Options, coerced); err != nil {
			return nil, &FieldError{
				Field:   def.Name,
				Code:    CodeInvalidFormat,
				Message: fmt.Sprintf("field %q: %v", def.Name, err),
				Value:   raw,
			}
		}
	}

	for _, rule := range def.Rules {
		if err := rule.Check(coerced); err != nil {
			return nil, &FieldError{
				Field:   def.Name,
				Code:    CodeRuleViolation,
				Rule:    rule.Name,
				Message: fmt.Sprintf("field %q: %v", def.Name, err),
				Value:   raw,
			}
		}
	}

	return coerced, nil
}

// ValidateBag validates candidate values against every current definition.
// Keys in values without a matching definition are ignored here; the codec
// decides how unmatched keys are carried.
func (fv *FieldValidator) ValidateBag(defs []domain.FieldDefinition, values map[string]any) ValidationResult {
	result := ValidationResult{
		IsValid: true,
		Values:  make(map[string]any, len(defs)),
		Errors:  []FieldError{},
	}

	for _, def := range defs {
		raw, present := values[def.Name]
		accepted, fieldErr := fv.ValidateField(def, raw, present)
		if fieldErr != nil {
			result.IsValid = false
			result.Errors = append(result.Errors, *fieldErr)
			continue
		}
		result.Values[def.Name] = accepted
	}

	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Field < result.Errors[j].Field
	})

	return result
}

// DefaultValue resolves the value substituted for an absent optional field:
// the definition default coerced through the type, falling back to the
// type's empty value when no usable default exists.
func DefaultValue(def domain.FieldDefinition) any {
	desc, ok := domain.ResolveType(def.Type)
	if !ok {
		return nil
	}
	if strings.TrimSpace(def.DefaultValue) == "" {
		return desc.Empty
	}
	coerced, err := desc.Coerce(def.DefaultValue)
	if err != nil {
		return desc.Empty
	}
	return coerced
}

// IsAbsent reports whether a candidate value counts as "no input": missing,
// nil, or a blank string.
func IsAbsent(raw any, present bool) bool {
	if !present || raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func checkOptionMembership(options []string, value any) error {
	selected, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected option string, got %T", value)
	}
	for _, option := range options {
		if option == selected {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of the configured options", selected)
}
