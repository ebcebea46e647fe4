package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wenwex7981/dynfields/internal/db"
	"github.com/wenwex7981/dynfields/internal/domain"
)

const uniqueViolationCode = "23505"

const fieldDefinitionColumns = `id, entity_type, name, label, field_type, options, placeholder,
	default_value, required, visible, section, rules, display_order, created_at`

// fieldDefinitionRepository implements FieldDefinitionRepository on Postgres.
type fieldDefinitionRepository struct {
	pool *pgxpool.Pool
}

// NewFieldDefinitionRepository creates a Postgres-backed definition store.
func NewFieldDefinitionRepository(pool *pgxpool.Pool) FieldDefinitionRepository {
	return &fieldDefinitionRepository{pool: pool}
}

// Create inserts a definition with display_order taken from the current
// count for its entity type. The advisory lock serializes the count and
// insert against concurrent mutations of the same definition set.
func (r *fieldDefinitionRepository) Create(ctx context.Context, def domain.FieldDefinition) (domain.FieldDefinition, error) {
	optionsJSON, err := def.OptionsAsJSONB()
	if err != nil {
		return domain.FieldDefinition{}, fmt.Errorf("failed to marshal options: %w", err)
	}
	rulesJSON, err := def.RulesAsJSONB()
	if err != nil {
		return domain.FieldDefinition{}, fmt.Errorf("failed to marshal rules: %w", err)
	}

	var created domain.FieldDefinition
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.LockDefinitionSet(ctx, tx, string(def.EntityType)); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO field_definitions (`+fieldDefinitionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				(SELECT COUNT(*) FROM field_definitions WHERE entity_type = $2), $13)
			RETURNING `+fieldDefinitionColumns,
			def.ID, def.EntityType, def.Name, def.Label, def.Type, optionsJSON,
			def.Placeholder, def.DefaultValue, def.Required, def.Visible,
			def.Section, rulesJSON, def.CreatedAt,
		)

		var scanErr error
		created, scanErr = scanFieldDefinition(row)
		return scanErr
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.FieldDefinition{}, fmt.Errorf("%w: %s/%s", domain.ErrDuplicateName, def.EntityType, def.Name)
		}
		return domain.FieldDefinition{}, fmt.Errorf("failed to create field definition: %w", err)
	}

	return created, nil
}

// GetByID retrieves a field definition by its id.
func (r *fieldDefinitionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.FieldDefinition, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+fieldDefinitionColumns+` FROM field_definitions WHERE id = $1`, id)

	def, err := scanFieldDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FieldDefinition{}, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
		}
		return domain.FieldDefinition{}, fmt.Errorf("failed to get field definition: %w", err)
	}
	return def, nil
}

// ListByEntityType returns the definitions for one entity type in display
// order.
func (r *fieldDefinitionRepository) ListByEntityType(ctx context.Context, entityType domain.EntityType) ([]domain.FieldDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fieldDefinitionColumns+` FROM field_definitions
		 WHERE entity_type = $1 ORDER BY display_order`, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to list field definitions: %w", err)
	}
	defer rows.Close()

	var result []domain.FieldDefinition
	for rows.Next() {
		def, scanErr := scanFieldDefinition(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan field definition: %w", scanErr)
		}
		result = append(result, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read field definitions: %w", err)
	}
	return result, nil
}

// Update overwrites the mutable columns. Identity columns and display_order
// are deliberately excluded; ordering changes only flow through Swap.
func (r *fieldDefinitionRepository) Update(ctx context.Context, def domain.FieldDefinition) (domain.FieldDefinition, error) {
	optionsJSON, err := def.OptionsAsJSONB()
	if err != nil {
		return domain.FieldDefinition{}, fmt.Errorf("failed to marshal options: %w", err)
	}
	rulesJSON, err := def.RulesAsJSONB()
	if err != nil {
		return domain.FieldDefinition{}, fmt.Errorf("failed to marshal rules: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE field_definitions
		SET label = $2, field_type = $3, options = $4, placeholder = $5,
			default_value = $6, required = $7, visible = $8, section = $9, rules = $10
		WHERE id = $1
		RETURNING `+fieldDefinitionColumns,
		def.ID, def.Label, def.Type, optionsJSON, def.Placeholder,
		def.DefaultValue, def.Required, def.Visible, def.Section, rulesJSON,
	)

	updated, err := scanFieldDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FieldDefinition{}, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, def.ID)
		}
		return domain.FieldDefinition{}, fmt.Errorf("failed to update field definition: %w", err)
	}
	return updated, nil
}

// Delete removes a definition and shifts every higher display_order down by
// one so the per-type permutation stays dense.
func (r *fieldDefinitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var entityType string
		err := tx.QueryRow(ctx,
			`SELECT entity_type FROM field_definitions WHERE id = $1`, id,
		).Scan(&entityType)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
			}
			return fmt.Errorf("failed to load field definition: %w", err)
		}

		if err := db.LockDefinitionSet(ctx, tx, entityType); err != nil {
			return err
		}

		// Read the order under the lock; a concurrent swap may have moved
		// the row between the first read and lock acquisition, and the
		// compaction below must shift relative to where it actually sits.
		var displayOrder int
		err = tx.QueryRow(ctx,
			`SELECT display_order FROM field_definitions WHERE id = $1`, id,
		).Scan(&displayOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
			}
			return fmt.Errorf("failed to reload field definition: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM field_definitions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete field definition: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE field_definitions SET display_order = display_order - 1
			WHERE entity_type = $1 AND display_order > $2`, entityType, displayOrder,
		); err != nil {
			return fmt.Errorf("failed to compact display order: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// Swap exchanges display_order with the adjacent definition in the given
// direction. Both row updates commit together or not at all.
func (r *fieldDefinitionRepository) Swap(ctx context.Context, id uuid.UUID, direction ReorderDirection) (bool, error) {
	moved := false
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var entityType string
		var displayOrder int
		err := tx.QueryRow(ctx,
			`SELECT entity_type, display_order FROM field_definitions WHERE id = $1`, id,
		).Scan(&entityType, &displayOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
			}
			return fmt.Errorf("failed to load field definition: %w", err)
		}

		if err := db.LockDefinitionSet(ctx, tx, entityType); err != nil {
			return err
		}

		// Re-read under the lock; a concurrent swap may have moved the row
		// between the first read and lock acquisition.
		err = tx.QueryRow(ctx,
			`SELECT display_order FROM field_definitions WHERE id = $1`, id,
		).Scan(&displayOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
			}
			return fmt.Errorf("failed to reload field definition: %w", err)
		}

		neighborOrder := displayOrder - 1
		if direction == ReorderDown {
			neighborOrder = displayOrder + 1
		}
		if neighborOrder < 0 {
			return nil
		}

		var neighborID uuid.UUID
		err = tx.QueryRow(ctx, `
			SELECT id FROM field_definitions
			WHERE entity_type = $1 AND display_order = $2`, entityType, neighborOrder,
		).Scan(&neighborID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Already at the boundary.
				return nil
			}
			return fmt.Errorf("failed to find neighbor definition: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE field_definitions SET display_order = $2 WHERE id = $1`,
			id, neighborOrder,
		); err != nil {
			return fmt.Errorf("failed to move field definition: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE field_definitions SET display_order = $2 WHERE id = $1`,
			neighborID, displayOrder,
		); err != nil {
			return fmt.Errorf("failed to move neighbor definition: %w", err)
		}

		moved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFieldDefinition(row rowScanner) (domain.FieldDefinition, error) {
	var (
		def         domain.FieldDefinition
		entityType  string
		fieldType   string
		optionsJSON []byte
		rulesJSON   []byte
		createdAt   time.Time
	)

	err := row.Scan(
		&def.ID, &entityType, &def.Name, &def.Label, &fieldType, &optionsJSON,
		&def.Placeholder, &def.DefaultValue, &def.Required, &def.Visible,
		&def.Section, &rulesJSON, &def.DisplayOrder, &createdAt,
	)
	if err != nil {
		return domain.FieldDefinition{}, err
	}

	options, err := domain.FromJSONBOptions(optionsJSON)
	if err != nil {
		return domain.FieldDefinition{}, fmt.Errorf("failed to unmarshal options for %s: %w", def.Name, err)
	}
	rules, err := domain.FromJSONBRules(rulesJSON)
	if err != nil {
		return domain.FieldDefinition{}, fmt.Errorf("failed to unmarshal rules for %s: %w", def.Name, err)
	}

	def.EntityType = domain.EntityType(entityType)
	def.Type = domain.FieldType(fieldType)
	def.Options = options
	def.Rules = rules
	def.CreatedAt = createdAt
	return def, nil
}
