package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB column support. These types round-trip through postgres jsonb
// columns via database/sql.

// Value implements driver.Valuer.
func (e ExtendedData) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner.
func (e *ExtendedData) Scan(src any) error {
	return scanJSON(src, e)
}

// IndicatorMap maps an industry name to a 0.0-1.0 signal strength.
type IndicatorMap map[string]float64

// Value implements driver.Valuer.
func (m IndicatorMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *IndicatorMap) Scan(src any) error {
	return scanJSON(src, m)
}

// ProjectList is the jsonb-backed list of projects on a crawled page.
type ProjectList []ProjectData

// Value implements driver.Valuer.
func (p ProjectList) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *ProjectList) Scan(src any) error {
	return scanJSON(src, p)
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
