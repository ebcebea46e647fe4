package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/wenwex7981/dynfields/internal/domain"
)

// ReorderDirection selects which adjacent neighbor a definition swaps with.
type ReorderDirection string

const (
	ReorderUp   ReorderDirection = "up"
	ReorderDown ReorderDirection = "down"
)

// FieldDefinitionRepository defines the durable store for field definitions.
// Implementations must keep display_order a dense permutation 0..n-1 per
// entity type: Create assigns the next order, Delete compacts, Swap
// exchanges two adjacent orders. All three serialize per entity type.
type FieldDefinitionRepository interface {
	// Create persists a new definition, assigning display_order from the
	// current count. Returns domain.ErrDuplicateName when the
	// (entityType, name) pair is taken.
	Create(ctx context.Context, def domain.FieldDefinition) (domain.FieldDefinition, error)

	GetByID(ctx context.Context, id uuid.UUID) (domain.FieldDefinition, error)

	// ListByEntityType returns definitions ordered by display_order.
	ListByEntityType(ctx context.Context, entityType domain.EntityType) ([]domain.FieldDefinition, error)

	// Update overwrites the mutable columns of a definition.
	Update(ctx context.Context, def domain.FieldDefinition) (domain.FieldDefinition, error)

	// Delete removes a definition and closes the ordering gap it leaves.
	Delete(ctx context.Context, id uuid.UUID) error

	// Swap moves a definition one position up or down by exchanging
	// display_order with its neighbor. Returns false without error when the
	// definition already sits at the affected boundary.
	Swap(ctx context.Context, id uuid.UUID, direction ReorderDirection) (bool, error)
}

// EntityValueRecord pairs an entity row id with its stored value bag.
type EntityValueRecord struct {
	ID  uuid.UUID
	Bag domain.RawBag
}

// ValueBagRepository reads and writes the custom_fields JSONB column on the
// entity tables. The engine never owns a separate row-per-value table.
type ValueBagRepository interface {
	Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (domain.RawBag, error)
	Save(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, bag domain.RawBag) error
	List(ctx context.Context, entityType domain.EntityType) ([]EntityValueRecord, error)
}
