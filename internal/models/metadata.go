package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is an open key/value map stored as JSONB. Values are limited
// to scalars: strings, numbers, booleans and null.
type Metadata map[string]any

// Value implements driver.Valuer. A nil map is stored as SQL NULL.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSONB columns.
func (m *Metadata) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", src)
	}

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("scan metadata: %w", err)
	}
	*m = out
	return nil
}

// ScalarsOnly reports whether every value is a JSON scalar.
func (m Metadata) ScalarsOnly() bool {
	for _, v := range m {
		switch v.(type) {
		case nil, string, bool, float64, float32, int, int32, int64, json.Number:
		default:
			return false
		}
	}
	return true
}
