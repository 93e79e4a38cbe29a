package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONMap is a string-keyed bag of JSON-serialisable values, stored as a
// TEXT column. It replaces open-ended dynamic attributes on entities:
// serialisation happens only at the persistence boundary.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("JSONMap: unsupported scan type")
	}
	if len(b) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(b, m)
}

// Merge writes every key of other onto m, overwriting colliding keys.
func (m JSONMap) Merge(other JSONMap) {
	for k, v := range other {
		m[k] = v
	}
}
