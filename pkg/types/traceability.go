package types

import (
	"database/sql/driver"
	"encoding/json"
)

// Traceability records the provenance snapshot copied onto an order item.
type Traceability struct {
	FarmName      string `json:"farm_name,omitempty"`
	FarmLocation  string `json:"farm_location,omitempty"`
	HarvestDate   string `json:"harvest_date,omitempty"`
	Certification string `json:"certification,omitempty"`
}

// Value serializes the traceability snapshot to JSON.
func (t *Traceability) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan decodes JSONB into the traceability struct.
func (t *Traceability) Scan(value interface{}) error {
	if value == nil {
		*t = Traceability{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, t)
}
