package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wenwex7981/dynfields/internal/domain"
	"github.com/wenwex7981/dynfields/internal/fields"
	"github.com/wenwex7981/dynfields/internal/repository"
)

// Service writes the field configuration and stored values of one entity
// type to a spreadsheet. The workbook carries a Definitions sheet and a
// Values sheet; values are decoded through the codec so operators see the
// same data renderers would, with orphaned keys on their own columns for
// auditing.
type Service struct {
	defs  repository.FieldDefinitionRepository
	bags  repository.ValueBagRepository
	codec *fields.Codec
}

// NewService creates an export service.
func NewService(defs repository.FieldDefinitionRepository, bags repository.ValueBagRepository) *Service {
	return &Service{
		defs:  defs,
		bags:  bags,
		codec: fields.NewCodec(),
	}
}

// WriteWorkbook streams the xlsx workbook for one entity type to w.
func (s *Service) WriteWorkbook(ctx context.Context, entityType domain.EntityType, w io.Writer) error {
	if !entityType.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEntityType, entityType)
	}

	defs, err := s.defs.ListByEntityType(ctx, entityType)
	if err != nil {
		return fmt.Errorf("failed to load definitions: %w", err)
	}

	records, err := s.bags.List(ctx, entityType)
	if err != nil {
		return fmt.Errorf("failed to load value bags: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := s.writeDefinitionsSheet(f, defs); err != nil {
		return err
	}
	if err := s.writeValuesSheet(f, defs, records); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (s *Service) writeDefinitionsSheet(f *excelize.File, defs []domain.FieldDefinition) error {
	const sheet = "Definitions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create definitions sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := []any{"Order", "Name", "Label", "Type", "Required", "Visible", "Section", "Default", "Options", "Rules"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write definitions header: %w", err)
	}

	for i, def := range defs {
		rules, err := formatRules(def.Rules)
		if err != nil {
			return err
		}
		row := []any{
			def.DisplayOrder,
			def.Name,
			def.Label,
			string(def.Type),
			def.Required,
			def.Visible,
			def.Section,
			def.DefaultValue,
			strings.Join(def.Options, ", "),
			rules,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write definition row: %w", err)
		}
	}
	return nil
}

func (s *Service) writeValuesSheet(f *excelize.File, defs []domain.FieldDefinition, records []repository.EntityValueRecord) error {
	const sheet = "Values"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create values sheet: %w", err)
	}

	// One column per definition in display order, then one per orphaned key
	// seen anywhere in the data set.
	orphanColumns := collectOrphans(defs, records)

	header := []any{"Entity ID"}
	for _, def := range defs {
		header = append(header, def.Name)
	}
	for _, orphan := range orphanColumns {
		header = append(header, orphan+" (orphaned)")
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write values header: %w", err)
	}

	for i, record := range records {
		typed := s.codec.Decode(defs, record.Bag)

		row := []any{record.ID.String()}
		for _, def := range defs {
			row = append(row, cellValue(typed.Values[def.Name]))
		}
		for _, orphan := range orphanColumns {
			row = append(row, cellValue(typed.Extra[orphan]))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write value row: %w", err)
		}
	}
	return nil
}

func collectOrphans(defs []domain.FieldDefinition, records []repository.EntityValueRecord) []string {
	known := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		known[def.Name] = struct{}{}
	}

	seen := make(map[string]struct{})
	var orphans []string
	for _, record := range records {
		for name := range record.Bag {
			if _, ok := known[name]; ok {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	return orphans
}

func cellValue(value any) any {
	switch v := value.(type) {
	case nil:
		return ""
	case string, bool, float64, int:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func formatRules(rules []domain.ValidationRule) (string, error) {
	if len(rules) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rules: %w", err)
	}
	return string(encoded), nil
}
