package kernel

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// UserID identifies an account in the IAM tables
type UserID string

func NewUserID(id string) UserID { return UserID(id) }

// GenerateUserID returns a fresh random UserID
func GenerateUserID() UserID { return UserID(uuid.NewString()) }

func (id UserID) String() string { return string(id) }

func (id UserID) IsEmpty() bool { return id == "" }

// Value implements driver.Valuer so UserID can be bound directly by sqlx
func (id UserID) Value() (driver.Value, error) {
	return string(id), nil
}

// Scan implements sql.Scanner
func (id *UserID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*id = UserID(v)
	case []byte:
		*id = UserID(v)
	case nil:
		*id = ""
	default:
		return fmt.Errorf("kernel: cannot scan %T into UserID", src)
	}
	return nil
}

// NewID returns a random identifier for documents
func NewID() string {
	return uuid.NewString()
}
