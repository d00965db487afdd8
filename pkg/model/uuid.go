package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// UUID wraps google/uuid.UUID so gorm stores it as a 16-byte BLOB primary
// key instead of the library's default 36-byte string form.
type UUID uuid.UUID

// NewUUID generates a random (v4) UUID.
func NewUUID() UUID {
	return UUID(uuid.New())
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// IsZero reports whether u is the zero-value UUID (never assigned).
func (u UUID) IsZero() bool {
	return uuid.UUID(u) == uuid.UUID{}
}

// Value implements driver.Valuer, writing the raw 16 bytes.
func (u UUID) Value() (driver.Value, error) {
	return uuid.UUID(u).MarshalBinary()
}

// Scan implements sql.Scanner, reading the raw 16 bytes or, defensively, the
// 36-byte text form some sqlite tooling may have written.
func (u *UUID) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		parsed, err := uuid.FromBytes(v)
		if err != nil {
			parsed, err = uuid.ParseBytes(v)
			if err != nil {
				return fmt.Errorf("model: scanning UUID: %w", err)
			}
		}
		*u = UUID(parsed)
		return nil
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("model: scanning UUID: %w", err)
		}
		*u = UUID(parsed)
		return nil
	case nil:
		*u = UUID{}
		return nil
	default:
		return fmt.Errorf("model: cannot scan %T into UUID", src)
	}
}
