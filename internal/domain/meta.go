package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// MetaMap is an opaque key/value payload stored as a JSON text column. It
// carries gateway verification payloads and other reconciliation breadcrumbs
// on wallet transactions.
type MetaMap map[string]any

// Value serializes the map to JSON for storage. A nil map stores NULL.
func (m MetaMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes a JSON text or blob column into the map.
func (m *MetaMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("meta: unsupported scan type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return errors.Join(errors.New("meta: invalid JSON"), err)
	}
	return nil
}

// Merge returns a copy of m with the entries of extra applied on top. The
// receiver is left unchanged, keeping transaction metadata append-only in
// spirit: callers persist the merged copy as a new column value.
func (m MetaMap) Merge(extra MetaMap) MetaMap {
	out := make(MetaMap, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
