package domain

import "errors"

// Lifecycle errors. Validation outcomes are structured data, not Go errors;
// see pkg/validator.
var (
	// ErrDuplicateName is returned when a definition name is already taken
	// within the same entity type.
	ErrDuplicateName = errors.New("field name already exists for entity type")

	// ErrDefinitionNotFound is returned when operating on a definition id
	// that does not exist.
	ErrDefinitionNotFound = errors.New("field definition not found")

	// ErrUnknownFieldType is returned when a spec references a type absent
	// from the registry.
	ErrUnknownFieldType = errors.New("unknown field type")

	// ErrUnknownEntityType is returned for entity types outside the closed
	// collection set.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrEntityNotFound is returned when a value bag owner row is missing.
	ErrEntityNotFound = errors.New("entity record not found")

	// ErrInvalidDefinition is returned for structurally invalid definition
	// specs and patches.
	ErrInvalidDefinition = errors.New("invalid field definition")
)
