package domain

import "encoding/json"

// RawBag is the stored form of an entity's custom attribute values: the
// JSONB column content keyed by definition name. Keys are not required to
// match the current definition set; stale keys from deleted definitions are
// tolerated.
type RawBag map[string]any

// TypedBag is the decoded, renderer-facing form of a value bag. Values holds
// coerced values for every current definition; Extra holds orphaned keys
// found in the raw bag that no current definition claims. Extra is carried
// so encode can round-trip raw data without loss, but renderers never see it
// as field values.
type TypedBag struct {
	Values map[string]any `json:"values"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewTypedBag returns an empty typed bag with allocated maps.
func NewTypedBag() TypedBag {
	return TypedBag{
		Values: make(map[string]any),
		Extra:  make(map[string]any),
	}
}

// AsJSONB returns the raw bag for database storage.
func (rb RawBag) AsJSONB() (json.RawMessage, error) {
	if rb == nil {
		rb = RawBag{}
	}
	return json.Marshal(rb)
}

// FromJSONBBag decodes a stored value bag column.
func FromJSONBBag(bagJSON json.RawMessage) (RawBag, error) {
	if len(bagJSON) == 0 {
		return RawBag{}, nil
	}
	var bag RawBag
	if err := json.Unmarshal(bagJSON, &bag); err != nil {
		return nil, err
	}
	if bag == nil {
		bag = RawBag{}
	}
	return bag, nil
}

// Clone returns a shallow copy of the raw bag.
func (rb RawBag) Clone() RawBag {
	clone := make(RawBag, len(rb))
	for k, v := range rb {
		clone[k] = v
	}
	return clone
}
