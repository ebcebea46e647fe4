package fields

import (
	"reflect"
	"testing"

	"github.com/wenwex7981/dynfields/internal/domain"
	"github.com/wenwex7981/dynfields/pkg/validator"
)

func serviceDefs() []domain.FieldDefinition {
	rating := domain.NewFieldDefinition(domain.EntityTypeServices, domain.FieldDefinitionSpec{
		Name:     "rating_scale",
		Label:    "Rating Scale",
		Type:     domain.FieldTypeNumber,
		Required: true,
		Visible:  true,
	}, 0)
	tagline := domain.NewFieldDefinition(domain.EntityTypeServices, domain.FieldDefinitionSpec{
		Name:    "tagline",
		Label:   "Tagline",
		Type:    domain.FieldTypeText,
		Visible: true,
	}, 1)
	return []domain.FieldDefinition{rating, tagline}
}

func TestDecodeSplitsValuesAndOrphans(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()
	raw := domain.RawBag{
		"rating_scale": float64(4),
		"tagline":      "Great!",
		"legacy_badge": "gold",
	}

	typed := codec.Decode(defs, raw)

	if typed.Values["rating_scale"] != float64(4) || typed.Values["tagline"] != "Great!" {
		t.Fatalf("unexpected values: %#v", typed.Values)
	}
	if _, ok := typed.Values["legacy_badge"]; ok {
		t.Fatalf("orphaned key must not appear in renderer values")
	}
	if typed.Extra["legacy_badge"] != "gold" {
		t.Fatalf("orphaned key must be preserved in extra, got %#v", typed.Extra)
	}
}

func TestDecodeSubstitutesDefaultForAbsent(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()

	typed := codec.Decode(defs, domain.RawBag{"rating_scale": float64(3)})

	if typed.Values["tagline"] != "" {
		t.Fatalf("expected absent tagline to resolve to empty default, got %#v", typed.Values["tagline"])
	}
}

func TestDecodeMovesStaleValuesToExtra(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()

	// Value written before the field was retyped to number.
	typed := codec.Decode(defs, domain.RawBag{"rating_scale": "five stars"})

	if _, ok := typed.Values["rating_scale"]; ok {
		t.Fatalf("uncoercible value must not reach renderers")
	}
	if typed.Extra["rating_scale"] != "five stars" {
		t.Fatalf("stale value must be preserved, got %#v", typed.Extra)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()
	raw := domain.RawBag{
		"rating_scale": float64(4),
		"tagline":      "Great!",
		"legacy_badge": "gold",
	}

	typed := codec.Decode(defs, raw)
	encoded, fieldErrs := codec.Encode(defs, typed.Values, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}

	if !reflect.DeepEqual(encoded, raw) {
		t.Fatalf("round trip changed the bag:\noriginal: %#v\nencoded:  %#v", raw, encoded)
	}
}

func TestEncodeRoundTripKeepsStoredEmptyString(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()
	raw := domain.RawBag{
		"rating_scale": float64(4),
		"tagline":      "",
	}

	typed := codec.Decode(defs, raw)
	encoded, fieldErrs := codec.Encode(defs, typed.Values, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}

	if !reflect.DeepEqual(encoded, raw) {
		t.Fatalf("stored empty string must survive an unedited round trip:\noriginal: %#v\nencoded:  %#v", raw, encoded)
	}
}

func TestEncodeRoundTripKeepsRetypedStaleValue(t *testing.T) {
	codec := NewCodec()
	score := domain.NewFieldDefinition(domain.EntityTypeServices, domain.FieldDefinitionSpec{
		Name:    "score",
		Label:   "Score",
		Type:    domain.FieldTypeNumber,
		Visible: true,
	}, 0)
	defs := []domain.FieldDefinition{score}
	// Written before score was retyped to number; Decode parks it in Extra,
	// so the renderer values carry no entry for it.
	raw := domain.RawBag{"score": "five stars"}

	typed := codec.Decode(defs, raw)
	if _, ok := typed.Values["score"]; ok {
		t.Fatalf("stale value must not reach renderer values")
	}

	encoded, fieldErrs := codec.Encode(defs, typed.Values, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}
	if encoded["score"] != "five stars" {
		t.Fatalf("stale value must stay until the field is rewritten, got %#v", encoded)
	}
}

func TestEncodeLeavesUnsubmittedKeysUntouched(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()
	raw := domain.RawBag{
		"rating_scale": float64(4),
		"tagline":      "Great!",
	}

	// Partial submission: tagline is not part of the edit at all.
	encoded, fieldErrs := codec.Encode(defs, map[string]any{"rating_scale": 5}, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}
	if encoded["tagline"] != "Great!" {
		t.Fatalf("unsubmitted key must keep its stored value, got %#v", encoded)
	}
}

func TestEncodeClearsOrphanedKeyOnExplicitEmpty(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()[:1]
	raw := domain.RawBag{
		"rating_scale": float64(4),
		"tagline":      "Great!",
	}

	encoded, fieldErrs := codec.Encode(defs, map[string]any{"rating_scale": 4, "tagline": ""}, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}
	if _, ok := encoded["tagline"]; ok {
		t.Fatalf("explicitly emptied orphan must be removed, got %#v", encoded)
	}

	// A non-empty submission for an orphaned key is ignored, not written.
	encoded, fieldErrs = codec.Encode(defs, map[string]any{"rating_scale": 4, "tagline": "resurrected"}, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}
	if encoded["tagline"] != "Great!" {
		t.Fatalf("orphaned key must not accept unvalidated writes, got %#v", encoded)
	}
}

func TestEncodeDoesNotMaterializeDefaults(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()
	promo := domain.NewFieldDefinition(domain.EntityTypeServices, domain.FieldDefinitionSpec{
		Name:         "promo_text",
		Label:        "Promo Text",
		Type:         domain.FieldTypeText,
		DefaultValue: "coming soon",
		Visible:      true,
	}, 2)
	defs = append(defs, promo)

	raw := domain.RawBag{"rating_scale": float64(4)}
	typed := codec.Decode(defs, raw)
	if typed.Values["promo_text"] != "coming soon" {
		t.Fatalf("expected default substitution, got %#v", typed.Values["promo_text"])
	}

	encoded, fieldErrs := codec.Encode(defs, typed.Values, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}
	if !reflect.DeepEqual(encoded, raw) {
		t.Fatalf("untouched defaults must not be written:\noriginal: %#v\nencoded:  %#v", raw, encoded)
	}
}

func TestEncodePreservesOrphansOnUnrelatedEdit(t *testing.T) {
	codec := NewCodec()
	// The tagline definition has been deleted; its stored value is orphaned.
	defs := serviceDefs()[:1]
	raw := domain.RawBag{
		"rating_scale": float64(4),
		"tagline":      "Great!",
	}

	encoded, fieldErrs := codec.Encode(defs, map[string]any{"rating_scale": 5}, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}
	if encoded["tagline"] != "Great!" {
		t.Fatalf("orphaned key must survive an unrelated edit, got %#v", encoded)
	}
	if encoded["rating_scale"] != float64(5) {
		t.Fatalf("edit not applied, got %#v", encoded["rating_scale"])
	}
}

func TestEncodeClearsExplicitlyEmptiedValues(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()
	raw := domain.RawBag{
		"rating_scale": float64(4),
		"tagline":      "Great!",
	}

	encoded, fieldErrs := codec.Encode(defs, map[string]any{"rating_scale": 4, "tagline": ""}, raw)
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %+v", fieldErrs)
	}
	if _, ok := encoded["tagline"]; ok {
		t.Fatalf("cleared value must be removed from the bag, got %#v", encoded)
	}
}

func TestEncodeRejectsWithoutPartialApply(t *testing.T) {
	codec := NewCodec()
	defs := serviceDefs()
	raw := domain.RawBag{"rating_scale": float64(4)}

	encoded, fieldErrs := codec.Encode(defs, map[string]any{"rating_scale": "abc", "tagline": "ok"}, raw)
	if encoded != nil {
		t.Fatalf("rejected submission must not produce a bag, got %#v", encoded)
	}
	if len(fieldErrs) != 1 || fieldErrs[0].Field != "rating_scale" || fieldErrs[0].Code != validator.CodeTypeMismatch {
		t.Fatalf("unexpected errors: %+v", fieldErrs)
	}
}
