// Package docstore is the live document store every domain collection is kept in.
// A Store persists JSON documents grouped by collection and a Feed fans out the
// resulting changes to subscribers.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
)

// Document is one stored record
type Document struct {
	Collection string          `json:"collection" db:"collection"`
	ID         string          `json:"id" db:"id"`
	Version    int64           `json:"version" db:"version"`
	Data       json.RawMessage `json:"data" db:"data"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Store persists documents.
// Update compares doc.Version against the stored version unless it is zero, then bumps it.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string) ([]*Document, error)
	Create(ctx context.Context, doc *Document) error
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, collection, id string) error
}

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes a mutation applied to a collection
type Change struct {
	Op         Op              `json:"op"`
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Version    int64           `json:"version"`
	Data       json.RawMessage `json:"data,omitempty"`
	At         time.Time       `json:"at"`
}

// Feed distributes changes. Subscribe with no collections receives every change.
// The returned channel is closed once ctx is done.
type Feed interface {
	Publish(ctx context.Context, change Change) error
	Subscribe(ctx context.Context, collections ...string) (<-chan Change, error)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("DOCUMENT")

var (
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Document not found")
	CodeAlreadyExists   = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Document already exists")
	CodeVersionConflict = ErrRegistry.Register("VERSION_CONFLICT", errx.TypeConflict, http.StatusConflict, "Document was modified by someone else, reload and retry")
	CodeInvalidDocument = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Document is not valid")
)

func ErrNotFound(collection, id string) *errx.Error {
	return ErrRegistry.New(CodeNotFound).WithDetail("collection", collection).WithDetail("id", id)
}

func ErrAlreadyExists(collection, id string) *errx.Error {
	return ErrRegistry.New(CodeAlreadyExists).WithDetail("collection", collection).WithDetail("id", id)
}

func ErrVersionConflict(collection, id string, expected int64) *errx.Error {
	return ErrRegistry.New(CodeVersionConflict).
		WithDetail("collection", collection).
		WithDetail("id", id).
		WithDetail("expected_version", expected)
}

func ErrInvalidDocument() *errx.Error {
	return ErrRegistry.New(CodeInvalidDocument)
}

// IsNotFound reports whether err is a missing-document error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRegistry.New(CodeNotFound))
}
