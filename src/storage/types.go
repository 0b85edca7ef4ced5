package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Thread is one persisted conversation. Timestamps are unix milliseconds.
type Thread struct {
	ID           string   `json:"id" db:"id"`
	State        JSONText `json:"state" db:"state"`
	Status       string   `json:"status" db:"status"`
	MessageCount int      `json:"message_count" db:"message_count"`
	CreatedAt    int64    `json:"created_at" db:"created_at"`
	UpdatedAt    int64    `json:"updated_at" db:"updated_at"`
	ExpiresAt    *int64   `json:"expires_at,omitempty" db:"expires_at"`
}

// JSONText is a JSON document stored as TEXT
type JSONText []byte

// Scan implements the sql.Scanner interface for JSONText
func (j *JSONText) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case string:
		*j = append((*j)[:0], v...)
	case []byte:
		*j = append((*j)[:0], v...)
	default:
		return fmt.Errorf("cannot scan type %T into JSONText", value)
	}
	if len(*j) > 0 && !json.Valid(*j) {
		return fmt.Errorf("column holds invalid JSON")
	}
	return nil
}

// Value implements the driver.Valuer interface for JSONText
func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return string(j), nil
}
