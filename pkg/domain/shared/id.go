package shared

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ID is the uuid-backed identifier used by all entities. The zero value
// is the nil uuid and never identifies a persisted row.
type ID struct {
	value uuid.UUID
}

// NewID returns a fresh random ID.
func NewID() ID {
	return ID{value: uuid.New()}
}

// IDFromString parses an ID from its canonical uuid form.
func IDFromString(s string) (ID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid id format: %w", err)
	}
	return ID{value: parsed}, nil
}

// MustIDFromString is IDFromString for known-good literals; it panics on
// parse failure.
func MustIDFromString(s string) ID {
	id, err := IDFromString(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return id.value.String()
}

// IsZero reports whether the ID is the nil uuid.
func (id ID) IsZero() bool {
	return id.value == uuid.Nil
}

func (id ID) Equals(other ID) bool {
	return id.value == other.value
}

// Value implements driver.Valuer; IDs travel to postgres as text.
func (id ID) Value() (driver.Value, error) {
	return id.value.String(), nil
}

// Scan implements sql.Scanner.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		id.value = parsed
		return nil
	case []byte:
		parsed, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		id.value = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into ID", src)
	}
}

// MarshalJSON renders the ID as a uuid string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value.String())
}

// UnmarshalJSON parses the ID from a uuid string.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid id format: %w", err)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	id.value = parsed
	return nil
}
