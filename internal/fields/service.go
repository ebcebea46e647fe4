package fields

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wenwex7981/dynfields/internal/domain"
	"github.com/wenwex7981/dynfields/internal/repository"
	"github.com/wenwex7981/dynfields/pkg/validator"
)

// ReorderOutcome reports what a reorder call did.
type ReorderOutcome string

const (
	ReorderMoved ReorderOutcome = "moved"
	ReorderNoOp  ReorderOutcome = "noop"
)

// Service orchestrates field definition lifecycle and the value contracts
// consumed by editing and display surfaces. Definition lists are fetched
// immediately before use on every call; nothing is cached across requests.
type Service struct {
	defs   repository.FieldDefinitionRepository
	bags   repository.ValueBagRepository
	codec  *Codec
	logger *zap.Logger
}

// NewService creates the dynamic fields service.
func NewService(defs repository.FieldDefinitionRepository, bags repository.ValueBagRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		defs:   defs,
		bags:   bags,
		codec:  NewCodec(),
		logger: logger,
	}
}

// ListDefinitions returns the definitions for one entity type in display
// order.
func (s *Service) ListDefinitions(ctx context.Context, entityType domain.EntityType) ([]domain.FieldDefinition, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntityType, entityType)
	}
	return s.defs.ListByEntityType(ctx, entityType)
}

// CreateDefinition validates an operator spec and persists it with the next
// display order. Duplicate names surface as domain.ErrDuplicateName; the
// store never silently overwrites.
func (s *Service) CreateDefinition(ctx context.Context, entityType domain.EntityType, spec domain.FieldDefinitionSpec) (domain.FieldDefinition, error) {
	if err := domain.ValidateSpec(entityType, spec); err != nil {
		return domain.FieldDefinition{}, err
	}

	// Display order is assigned inside the store's transaction; zero here is
	// a placeholder.
	def := domain.NewFieldDefinition(entityType, spec, 0)

	created, err := s.defs.Create(ctx, def)
	if err != nil {
		return domain.FieldDefinition{}, err
	}

	s.logger.Info("field definition created",
		zap.String("entity_type", string(entityType)),
		zap.String("name", created.Name),
		zap.String("type", string(created.Type)),
		zap.Int("display_order", created.DisplayOrder),
	)
	return created, nil
}

// UpdateDefinition applies a patch to the mutable attributes of a
// definition. A type change applies to future writes only; historical value
// bags are not revalidated.
func (s *Service) UpdateDefinition(ctx context.Context, id uuid.UUID, patch domain.FieldDefinitionPatch) (domain.FieldDefinition, error) {
	existing, err := s.defs.GetByID(ctx, id)
	if err != nil {
		return domain.FieldDefinition{}, err
	}

	patched := existing.Apply(patch)
	if err := patched.ValidatePatched(); err != nil {
		return domain.FieldDefinition{}, err
	}

	updated, err := s.defs.Update(ctx, patched)
	if err != nil {
		return domain.FieldDefinition{}, err
	}

	if patch.Type != nil && *patch.Type != existing.Type {
		s.logger.Warn("field definition retyped; stored values validate lazily on next write",
			zap.String("entity_type", string(existing.EntityType)),
			zap.String("name", existing.Name),
			zap.String("old_type", string(existing.Type)),
			zap.String("new_type", string(*patch.Type)),
		)
	}
	return updated, nil
}

// DeleteDefinition removes a definition. Existing value bags keep the now
// orphaned key; deletion is non-destructive to raw data.
func (s *Service) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	if err := s.defs.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("field definition deleted", zap.String("id", id.String()))
	return nil
}

// ReorderDefinition moves a definition one position up or down. Calls at
// either boundary are no-ops, not errors.
func (s *Service) ReorderDefinition(ctx context.Context, id uuid.UUID, direction repository.ReorderDirection) (ReorderOutcome, error) {
	if direction != repository.ReorderUp && direction != repository.ReorderDown {
		return "", fmt.Errorf("invalid reorder direction %q", direction)
	}

	moved, err := s.defs.Swap(ctx, id, direction)
	if err != nil {
		return "", err
	}
	if !moved {
		return ReorderNoOp, nil
	}
	return ReorderMoved, nil
}

// ResolveForm builds the editing model for an entity type against a raw
// value bag supplied by the caller.
func (s *Service) ResolveForm(ctx context.Context, entityType domain.EntityType, raw domain.RawBag) (FormModel, error) {
	defs, err := s.ListDefinitions(ctx, entityType)
	if err != nil {
		return FormModel{}, err
	}
	return BuildForm(entityType, defs, raw, s.codec), nil
}

// ResolveDisplay builds the read-only model for an entity type against a raw
// value bag supplied by the caller.
func (s *Service) ResolveDisplay(ctx context.Context, entityType domain.EntityType, raw domain.RawBag) (DisplayModel, error) {
	defs, err := s.ListDefinitions(ctx, entityType)
	if err != nil {
		return DisplayModel{}, err
	}
	return BuildDisplay(entityType, defs, raw, s.codec), nil
}

// Encode validates submitted values against the current definitions and
// merges them over the prior raw bag. A non-empty error list means nothing
// may be persisted.
func (s *Service) Encode(ctx context.Context, entityType domain.EntityType, values map[string]any, prior domain.RawBag) (domain.RawBag, []validator.FieldError, error) {
	defs, err := s.ListDefinitions(ctx, entityType)
	if err != nil {
		return nil, nil, err
	}
	if prior == nil {
		prior = domain.RawBag{}
	}

	encoded, fieldErrs := s.codec.Encode(defs, values, prior)
	if len(fieldErrs) > 0 {
		return nil, fieldErrs, nil
	}
	return encoded, nil, nil
}

// Decode maps a raw bag onto the current definitions for an entity type.
func (s *Service) Decode(ctx context.Context, entityType domain.EntityType, raw domain.RawBag) (domain.TypedBag, error) {
	defs, err := s.ListDefinitions(ctx, entityType)
	if err != nil {
		return domain.TypedBag{}, err
	}
	return s.codec.Decode(defs, raw), nil
}

// SaveValues validates submitted values for one entity record and persists
// the merged bag onto its row. The prior bag is read from the row itself so
// orphaned keys survive the write.
func (s *Service) SaveValues(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, values map[string]any) (domain.RawBag, []validator.FieldError, error) {
	prior, err := s.bags.Get(ctx, entityType, entityID)
	if err != nil {
		return nil, nil, err
	}

	encoded, fieldErrs, err := s.Encode(ctx, entityType, values, prior)
	if err != nil || len(fieldErrs) > 0 {
		return nil, fieldErrs, err
	}

	if err := s.bags.Save(ctx, entityType, entityID, encoded); err != nil {
		return nil, nil, err
	}

	s.logger.Debug("value bag saved",
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", entityID.String()),
		zap.Int("fields", len(encoded)),
	)
	return encoded, nil, nil
}
