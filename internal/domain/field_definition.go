package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// namePattern restricts machine keys to lower snake case so they remain
// stable JSON keys inside value bags.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// FieldDefinition describes one configurable attribute available to an
// entity type. ID, EntityType and Name are immutable after creation; Name
// identifies the attribute inside stored value bags.
type FieldDefinition struct {
	ID           uuid.UUID        `json:"id"`
	EntityType   EntityType       `json:"entity_type"`
	Name         string           `json:"name"`
	Label        string           `json:"label"`
	Type         FieldType        `json:"type"`
	Options      []string         `json:"options,omitempty"`
	Placeholder  string           `json:"placeholder,omitempty"`
	DefaultValue string           `json:"default_value,omitempty"`
	Required     bool             `json:"required"`
	Visible      bool             `json:"visible"`
	Section      string           `json:"section,omitempty"`
	Rules        []ValidationRule `json:"rules,omitempty"`
	DisplayOrder int              `json:"display_order"`
	CreatedAt    time.Time        `json:"created_at"`
}

// FieldDefinitionSpec carries the operator-supplied fields for creation.
// DisplayOrder and CreatedAt are assigned by the lifecycle manager.
type FieldDefinitionSpec struct {
	Name         string           `json:"name"`
	Label        string           `json:"label"`
	Type         FieldType        `json:"type"`
	Options      []string         `json:"options,omitempty"`
	Placeholder  string           `json:"placeholder,omitempty"`
	DefaultValue string           `json:"default_value,omitempty"`
	Required     bool             `json:"required"`
	Visible      bool             `json:"visible"`
	Section      string           `json:"section,omitempty"`
	Rules        []ValidationRule `json:"rules,omitempty"`
}

// FieldDefinitionPatch carries the mutable fields of a definition. Nil
// pointers leave the stored value untouched.
type FieldDefinitionPatch struct {
	Label        *string           `json:"label,omitempty"`
	Type         *FieldType        `json:"type,omitempty"`
	Options      *[]string         `json:"options,omitempty"`
	Placeholder  *string           `json:"placeholder,omitempty"`
	DefaultValue *string           `json:"default_value,omitempty"`
	Required     *bool             `json:"required,omitempty"`
	Visible      *bool             `json:"visible,omitempty"`
	Section      *string           `json:"section,omitempty"`
	Rules        *[]ValidationRule `json:"rules,omitempty"`
}

// NewFieldDefinition builds a definition from an operator spec. The caller
// (lifecycle manager) is responsible for uniqueness and order assignment.
func NewFieldDefinition(entityType EntityType, spec FieldDefinitionSpec, displayOrder int) FieldDefinition {
	return FieldDefinition{
		ID:           uuid.New(),
		EntityType:   entityType,
		Name:         spec.Name,
		Label:        spec.Label,
		Type:         spec.Type,
		Options:      copyStrings(spec.Options),
		Placeholder:  spec.Placeholder,
		DefaultValue: spec.DefaultValue,
		Required:     spec.Required,
		Visible:      spec.Visible,
		Section:      spec.Section,
		Rules:        copyRules(spec.Rules),
		DisplayOrder: displayOrder,
		CreatedAt:    time.Now(),
	}
}

// ValidateSpec checks the structural rules for a new definition: a known
// entity type, a lower-snake-case name, a registered field type, options
// consistent with the type, and well-formed validation rules.
func ValidateSpec(entityType EntityType, spec FieldDefinitionSpec) error {
	if !entityType.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
	if !namePattern.MatchString(spec.Name) {
		return fmt.Errorf("%w: field name %q must be lower_snake_case", ErrInvalidDefinition, spec.Name)
	}
	if strings.TrimSpace(spec.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidDefinition)
	}
	if _, ok := ResolveType(spec.Type); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFieldType, spec.Type)
	}
	if err := validateOptions(spec.Type, spec.Options); err != nil {
		return err
	}
	for _, rule := range spec.Rules {
		if err := ValidateRuleSpec(rule); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
	}
	return nil
}

// Apply returns a copy of the definition with the patch merged in. Identity
// fields are never touched; the caller validates type and option changes.
func (fd FieldDefinition) Apply(patch FieldDefinitionPatch) FieldDefinition {
	updated := fd
	updated.Options = copyStrings(fd.Options)
	updated.Rules = copyRules(fd.Rules)

	if patch.Label != nil {
		updated.Label = *patch.Label
	}
	if patch.Type != nil {
		updated.Type = *patch.Type
	}
	if patch.Options != nil {
		updated.Options = copyStrings(*patch.Options)
	}
	if patch.Placeholder != nil {
		updated.Placeholder = *patch.Placeholder
	}
	if patch.DefaultValue != nil {
		updated.DefaultValue = *patch.DefaultValue
	}
	if patch.Required != nil {
		updated.Required = *patch.Required
	}
	if patch.Visible != nil {
		updated.Visible = *patch.Visible
	}
	if patch.Section != nil {
		updated.Section = *patch.Section
	}
	if patch.Rules != nil {
		updated.Rules = copyRules(*patch.Rules)
	}
	return updated
}

// ValidatePatched checks a definition after a patch has been applied.
func (fd FieldDefinition) ValidatePatched() error {
	if _, ok := ResolveType(fd.Type); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFieldType, fd.Type)
	}
	if strings.TrimSpace(fd.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidDefinition)
	}
	if err := validateOptions(fd.Type, fd.Options); err != nil {
		return err
	}
	for _, rule := range fd.Rules {
		if err := ValidateRuleSpec(rule); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
	}
	return nil
}

// OptionsAsJSONB returns the option list for database storage.
func (fd FieldDefinition) OptionsAsJSONB() (json.RawMessage, error) {
	return json.Marshal(fd.Options)
}

// RulesAsJSONB returns the validation rules for database storage.
func (fd FieldDefinition) RulesAsJSONB() (json.RawMessage, error) {
	return json.Marshal(fd.Rules)
}

// FromJSONBOptions decodes a stored option list.
func FromJSONBOptions(optionsJSON json.RawMessage) ([]string, error) {
	if len(optionsJSON) == 0 {
		return nil, nil
	}
	var options []string
	err := json.Unmarshal(optionsJSON, &options)
	return options, err
}

// FromJSONBRules decodes stored validation rules.
func FromJSONBRules(rulesJSON json.RawMessage) ([]ValidationRule, error) {
	if len(rulesJSON) == 0 {
		return nil, nil
	}
	var rules []ValidationRule
	err := json.Unmarshal(rulesJSON, &rules)
	return rules, err
}

func validateOptions(fieldType FieldType, options []string) error {
	if fieldType == FieldTypeSelect {
		if len(options) == 0 {
			return fmt.Errorf("%w: select fields require at least one option", ErrInvalidDefinition)
		}
		seen := make(map[string]struct{}, len(options))
		for _, option := range options {
			if strings.TrimSpace(option) == "" {
				return fmt.Errorf("%w: select options must not be blank", ErrInvalidDefinition)
			}
			if _, dup := seen[option]; dup {
				return fmt.Errorf("%w: duplicate select option %q", ErrInvalidDefinition, option)
			}
			seen[option] = struct{}{}
		}
		return nil
	}
	if len(options) > 0 {
		return fmt.Errorf("%w: field type %s does not accept options", ErrInvalidDefinition, fieldType)
	}
	return nil
}

func copyStrings(values []string) []string {
	if values == nil {
		return nil
	}
	clone := make([]string, len(values))
	copy(clone, values)
	return clone
}

func copyRules(rules []ValidationRule) []ValidationRule {
	if rules == nil {
		return nil
	}
	clone := make([]ValidationRule, len(rules))
	copy(clone, rules)
	return clone
}
