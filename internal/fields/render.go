package fields

import "github.com/wenwex7981/dynfields/internal/domain"

// FormField pairs a definition with the current value an editing surface
// should prefill.
type FormField struct {
	Definition   domain.FieldDefinition `json:"definition"`
	CurrentValue any                    `json:"current_value"`
}

// FormModel is the ordered editing contract for one entity type. The
// consumer collects edits keyed by definition name and hands them back to
// Encode before persisting.
type FormModel struct {
	EntityType domain.EntityType `json:"entity_type"`
	Fields     []FormField       `json:"fields"`
}

// DisplayField is one read-only rendered attribute.
type DisplayField struct {
	Name    string           `json:"name"`
	Label   string           `json:"label"`
	Type    domain.FieldType `json:"type"`
	Section string           `json:"section,omitempty"`
	Value   any              `json:"value"`
}

// DisplayModel is the ordered read-only contract for one entity type,
// filtered to visible definitions.
type DisplayModel struct {
	EntityType domain.EntityType `json:"entity_type"`
	Fields     []DisplayField    `json:"fields"`
}

// Sections groups the display fields by section label, preserving display
// order inside each group and the order sections first appear.
func (dm DisplayModel) Sections() []DisplaySection {
	var sections []DisplaySection
	index := make(map[string]int)
	for _, field := range dm.Fields {
		i, ok := index[field.Section]
		if !ok {
			i = len(sections)
			index[field.Section] = i
			sections = append(sections, DisplaySection{Label: field.Section})
		}
		sections[i].Fields = append(sections[i].Fields, field)
	}
	return sections
}

// DisplaySection is one presentation group of display fields.
type DisplaySection struct {
	Label  string         `json:"label"`
	Fields []DisplayField `json:"fields"`
}

// BuildForm produces the editing model: every definition in display order
// with its decoded current value (or default when absent).
func BuildForm(entityType domain.EntityType, defs []domain.FieldDefinition, raw domain.RawBag, codec *Codec) FormModel {
	typed := codec.Decode(defs, raw)

	model := FormModel{EntityType: entityType, Fields: make([]FormField, 0, len(defs))}
	for _, def := range defs {
		value, ok := typed.Values[def.Name]
		if !ok {
			// Stored value no longer decodes against the current definition;
			// editing starts from scratch rather than crashing.
			value = nil
		}
		model.Fields = append(model.Fields, FormField{Definition: def, CurrentValue: value})
	}
	return model
}

// BuildDisplay produces the read-only model: visible definitions in display
// order. Values that fail to decode are skipped, not surfaced as errors.
func BuildDisplay(entityType domain.EntityType, defs []domain.FieldDefinition, raw domain.RawBag, codec *Codec) DisplayModel {
	typed := codec.Decode(defs, raw)

	model := DisplayModel{EntityType: entityType, Fields: make([]DisplayField, 0, len(defs))}
	for _, def := range defs {
		if !def.Visible {
			continue
		}
		value, ok := typed.Values[def.Name]
		if !ok {
			continue
		}
		model.Fields = append(model.Fields, DisplayField{
			Name:    def.Name,
			Label:   def.Label,
			Type:    def.Type,
			Section: def.Section,
			Value:   value,
		})
	}
	return model
}
