package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wenwex7981/dynfields/internal/domain"
)

// valueBagRepository reads and writes the custom_fields column on the entity
// tables. Table names come exclusively from the closed EntityType map.
type valueBagRepository struct {
	pool *pgxpool.Pool
}

// NewValueBagRepository creates a Postgres-backed value bag store.
func NewValueBagRepository(pool *pgxpool.Pool) ValueBagRepository {
	return &valueBagRepository{pool: pool}
}

func (r *valueBagRepository) Get(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) (domain.RawBag, error) {
	table, ok := entityType.Table()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntityType, entityType)
	}

	var bagJSON []byte
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT custom_fields FROM %s WHERE id = $1`, table), entityID,
	).Scan(&bagJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrEntityNotFound, entityType, entityID)
		}
		return nil, fmt.Errorf("failed to read value bag: %w", err)
	}

	bag, err := domain.FromJSONBBag(bagJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal value bag for %s/%s: %w", entityType, entityID, err)
	}
	return bag, nil
}

func (r *valueBagRepository) Save(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, bag domain.RawBag) error {
	table, ok := entityType.Table()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEntityType, entityType)
	}

	bagJSON, err := bag.AsJSONB()
	if err != nil {
		return fmt.Errorf("failed to marshal value bag: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET custom_fields = $2 WHERE id = $1`, table),
		entityID, json.RawMessage(bagJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save value bag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrEntityNotFound, entityType, entityID)
	}
	return nil
}

func (r *valueBagRepository) List(ctx context.Context, entityType domain.EntityType) ([]EntityValueRecord, error) {
	table, ok := entityType.Table()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntityType, entityType)
	}

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, custom_fields FROM %s ORDER BY id`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to list value bags: %w", err)
	}
	defer rows.Close()

	var result []EntityValueRecord
	for rows.Next() {
		var record EntityValueRecord
		var bagJSON []byte
		if err := rows.Scan(&record.ID, &bagJSON); err != nil {
			return nil, fmt.Errorf("failed to scan value bag row: %w", err)
		}
		bag, err := domain.FromJSONBBag(bagJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal value bag for %s/%s: %w", entityType, record.ID, err)
		}
		record.Bag = bag
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read value bags: %w", err)
	}
	return result, nil
}
