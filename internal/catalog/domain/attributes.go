package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AttributeKind tags the value held by an AttributeValue
type AttributeKind string

const (
	AttributeString AttributeKind = "string"
	AttributeNumber AttributeKind = "number"
	AttributeBool   AttributeKind = "bool"
)

// AttributeValue is a string, number or bool. Nested values are rejected.
type AttributeValue struct {
	Kind   AttributeKind
	String string
	Number decimal.Decimal
	Bool   bool
}

// Attributes are the variant-defining properties of a SKU (size, color, ...)
type Attributes map[string]AttributeValue

// StringAttr wraps a string attribute value
func StringAttr(s string) AttributeValue { return AttributeValue{Kind: AttributeString, String: s} }

// NumberAttr wraps a numeric attribute value
func NumberAttr(d decimal.Decimal) AttributeValue {
	return AttributeValue{Kind: AttributeNumber, Number: d}
}

// BoolAttr wraps a boolean attribute value
func BoolAttr(b bool) AttributeValue { return AttributeValue{Kind: AttributeBool, Bool: b} }

// MarshalJSON writes the bare JSON scalar
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AttributeString:
		return json.Marshal(v.String)
	case AttributeNumber:
		return []byte(v.Number.String()), nil
	case AttributeBool:
		return json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("attribute value has no kind")
	}
}

// UnmarshalJSON accepts a JSON string, number or bool
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty attribute value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringAttr(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolAttr(b)
	case '{', '[':
		return fmt.Errorf("attribute values must be string, number or bool")
	case 'n':
		return fmt.Errorf("attribute values cannot be null")
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("invalid attribute number: %w", err)
		}
		*v = NumberAttr(d)
	}
	return nil
}
