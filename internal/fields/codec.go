package fields

import (
	"reflect"

	"github.com/wenwex7981/dynfields/internal/domain"
	"github.com/wenwex7981/dynfields/pkg/validator"
)

// Codec converts between the stored form of a value bag and the typed form
// renderers consume. It is a pure function of the definition list and the
// bags handed to it; definitions are always passed explicitly and never
// cached.
type Codec struct {
	validator *validator.FieldValidator
}

// NewCodec creates a value codec.
func NewCodec() *Codec {
	return &Codec{validator: validator.NewFieldValidator()}
}

// Decode maps a raw bag onto the current definitions. For each definition
// the raw value is coerced when present and substituted with the definition
// default when absent. Keys without a matching definition, and stored values
// that no longer coerce against their (possibly retyped) definition, move to
// the Extra side-channel: excluded from what renderers see, never discarded.
func (c *Codec) Decode(defs []domain.FieldDefinition, raw domain.RawBag) domain.TypedBag {
	typed := domain.NewTypedBag()

	known := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		known[def.Name] = struct{}{}

		value, present := raw[def.Name]
		if !present {
			typed.Values[def.Name] = validator.DefaultValue(def)
			continue
		}

		desc, ok := domain.ResolveType(def.Type)
		if !ok {
			typed.Extra[def.Name] = value
			continue
		}
		coerced, err := desc.Coerce(value)
		if err != nil {
			typed.Extra[def.Name] = value
			continue
		}
		typed.Values[def.Name] = coerced
	}

	for name, value := range raw {
		if _, ok := known[name]; !ok {
			typed.Extra[name] = value
		}
	}

	return typed
}

// Encode validates every definition's candidate value and merges the
// accepted values over the prior raw bag, so orphaned keys survive the
// round trip. There is no partial apply: any rejection returns the full
// error list and no bag.
//
// Keys missing from values are not part of the submission and leave the
// prior entry untouched, including stored values that no longer coerce
// against a retyped definition. A key submitted with an empty value clears
// a previously set entry; when the prior entry is itself empty it stays as
// stored so unedited round trips reproduce the bag exactly. An accepted
// value equal to the definition default is not materialized unless the key
// already exists in the prior bag.
func (c *Codec) Encode(defs []domain.FieldDefinition, values map[string]any, prior domain.RawBag) (domain.RawBag, []validator.FieldError) {
	result := c.validator.ValidateBag(defs, values)
	if !result.IsValid {
		return nil, result.Errors
	}

	out := prior.Clone()
	known := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		known[def.Name] = struct{}{}

		raw, present := values[def.Name]
		if !present {
			continue
		}
		if validator.IsAbsent(raw, present) {
			if prev, existed := prior[def.Name]; existed && !validator.IsAbsent(prev, true) {
				delete(out, def.Name)
			}
			continue
		}

		accepted := result.Values[def.Name]
		if _, existed := prior[def.Name]; !existed {
			if reflect.DeepEqual(accepted, validator.DefaultValue(def)) {
				continue
			}
		}
		out[def.Name] = accepted
	}

	// Orphaned keys can only be cleared, never written: an empty submission
	// removes the stale entry, anything else is ignored because no
	// definition exists to validate it against.
	for name, raw := range values {
		if _, ok := known[name]; ok {
			continue
		}
		if validator.IsAbsent(raw, true) {
			delete(out, name)
		}
	}

	return out, nil
}
