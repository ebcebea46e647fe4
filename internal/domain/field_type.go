package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FieldType represents the type of a dynamic field definition.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeEmail    FieldType = "email"
	FieldTypeURL      FieldType = "url"
	FieldTypeSelect   FieldType = "select"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeFile     FieldType = "file"
	FieldTypeJSON     FieldType = "json"
)

// StorageKind is the primitive representation a field type serializes to
// inside a value bag.
type StorageKind string

const (
	StorageKindString  StorageKind = "string"
	StorageKindNumber  StorageKind = "number"
	StorageKindBoolean StorageKind = "boolean"
	StorageKindJSON    StorageKind = "json"
)

const dateLayout = "2006-01-02"

// TypeDescriptor describes how one field type coerces and validates values.
// Coerce normalizes a raw value into the canonical in-memory form;
// BaseValidate checks a coerced value against the type's format rules.
type TypeDescriptor struct {
	Key          FieldType
	Kind         StorageKind
	Empty        any
	Coerce       func(raw any) (any, error)
	BaseValidate func(value any) error
}

// typeRegistry is the closed catalog of supported field types. Adding a type
// is a registry change because every rendering surface must also know how to
// draw it.
var typeRegistry = map[FieldType]TypeDescriptor{
	FieldTypeText: {
		Key:          FieldTypeText,
		Kind:         StorageKindString,
		Empty:        "",
		Coerce:       coerceString,
		BaseValidate: func(any) error { return nil },
	},
	FieldTypeTextarea: {
		Key:          FieldTypeTextarea,
		Kind:         StorageKindString,
		Empty:        "",
		Coerce:       coerceString,
		BaseValidate: func(any) error { return nil },
	},
	FieldTypeNumber: {
		Key:          FieldTypeNumber,
		Kind:         StorageKindNumber,
		Empty:        float64(0),
		Coerce:       coerceNumber,
		BaseValidate: func(value any) error {
			n, ok := value.(float64)
			if !ok {
				return fmt.Errorf("expected number, got %T", value)
			}
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return fmt.Errorf("number must be finite")
			}
			return nil
		},
	},
	FieldTypeEmail: {
		Key:          FieldTypeEmail,
		Kind:         StorageKindString,
		Empty:        "",
		Coerce:       coerceString,
		BaseValidate: func(value any) error {
			s, _ := value.(string)
			if _, err := mail.ParseAddress(s); err != nil {
				return fmt.Errorf("invalid email address %q", s)
			}
			return nil
		},
	},
	FieldTypeURL: {
		Key:          FieldTypeURL,
		Kind:         StorageKindString,
		Empty:        "",
		Coerce:       coerceString,
		BaseValidate: func(value any) error {
			s, _ := value.(string)
			parsed, err := url.Parse(s)
			if err != nil {
				return fmt.Errorf("invalid url %q", s)
			}
			if parsed.Scheme != "http" && parsed.Scheme != "https" {
				return fmt.Errorf("url %q must use http or https", s)
			}
			if parsed.Host == "" {
				return fmt.Errorf("url %q must be absolute", s)
			}
			return nil
		},
	},
	FieldTypeSelect: {
		Key:          FieldTypeSelect,
		Kind:         StorageKindString,
		Empty:        "",
		Coerce:       coerceString,
		// Option membership depends on the definition, not the type; the
		// validation engine checks it against the declared option list.
		BaseValidate: func(any) error { return nil },
	},
	FieldTypeBoolean: {
		Key:          FieldTypeBoolean,
		Kind:         StorageKindBoolean,
		Empty:        false,
		Coerce:       func(raw any) (any, error) {
			switch v := raw.(type) {
			case bool:
				return v, nil
			case string:
				parsed, err := strconv.ParseBool(strings.TrimSpace(v))
				if err != nil {
					return nil, fmt.Errorf("cannot interpret %q as boolean", v)
				}
				return parsed, nil
			default:
				return nil, fmt.Errorf("expected boolean, got %T", raw)
			}
		},
		BaseValidate: func(any) error { return nil },
	},
	FieldTypeDate: {
		Key:          FieldTypeDate,
		Kind:         StorageKindString,
		Empty:        "",
		Coerce:       func(raw any) (any, error) {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("expected date string, got %T", raw)
			}
			s = strings.TrimSpace(s)
			if t, err := time.Parse(dateLayout, s); err == nil {
				return t.Format(dateLayout), nil
			}
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t.Format(dateLayout), nil
			}
			return nil, fmt.Errorf("cannot interpret %q as date", s)
		},
		BaseValidate: func(any) error { return nil },
	},
	FieldTypeFile: {
		Key:          FieldTypeFile,
		Kind:         StorageKindString,
		Empty:        "",
		Coerce:       coerceString,
		BaseValidate: func(value any) error {
			s, _ := value.(string)
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("file reference must not be blank")
			}
			return nil
		},
	},
	FieldTypeJSON: {
		Key:          FieldTypeJSON,
		Kind:         StorageKindJSON,
		Empty:        nil,
		Coerce:       func(raw any) (any, error) {
			if s, ok := raw.(string); ok {
				var decoded any
				if err := json.Unmarshal([]byte(s), &decoded); err != nil {
					return nil, fmt.Errorf("invalid json payload: %w", err)
				}
				return decoded, nil
			}
			return raw, nil
		},
		BaseValidate: func(value any) error {
			if _, err := json.Marshal(value); err != nil {
				return fmt.Errorf("value does not marshal to json: %w", err)
			}
			return nil
		},
	},
}

// ResolveType looks up the descriptor for a field type key.
func ResolveType(key FieldType) (TypeDescriptor, bool) {
	desc, ok := typeRegistry[key]
	return desc, ok
}

// FieldTypes returns all registered field type keys in a stable order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeTextarea,
		FieldTypeNumber,
		FieldTypeEmail,
		FieldTypeURL,
		FieldTypeSelect,
		FieldTypeBoolean,
		FieldTypeDate,
		FieldTypeFile,
		FieldTypeJSON,
	}
}

func coerceString(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", raw)
	}
	return s, nil
}

func coerceNumber(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("cannot interpret %q as number", v.String())
		}
		return n, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot interpret %q as number", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("expected number, got %T", raw)
	}
}
