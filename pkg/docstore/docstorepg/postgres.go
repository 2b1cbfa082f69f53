package docstorepg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore keeps every collection in the documents table as JSONB
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates the JSONB backed document store
func NewPostgresStore(db *sqlx.DB) docstore.Store {
	return &PostgresStore{
		db: db,
	}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	query := `
		SELECT collection, id, version, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2`

	var doc docstore.Document
	err := s.db.GetContext(ctx, &doc, query, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.ErrNotFound(collection, id)
		}
		return nil, errx.Wrap(err, "failed to get document", errx.TypeInternal).
			WithDetail("collection", collection).
			WithDetail("id", id)
	}
	return &doc, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]*docstore.Document, error) {
	query := `
		SELECT collection, id, version, data, created_at, updated_at
		FROM documents
		WHERE collection = $1
		ORDER BY created_at ASC, id ASC`

	var docs []docstore.Document
	if err := s.db.SelectContext(ctx, &docs, query, collection); err != nil {
		return nil, errx.Wrap(err, "failed to list documents", errx.TypeInternal).
			WithDetail("collection", collection)
	}

	result := make([]*docstore.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *PostgresStore) Create(ctx context.Context, doc *docstore.Document) error {
	if doc.Collection == "" || doc.ID == "" {
		return docstore.ErrInvalidDocument().WithDetail("reason", "collection and id are required")
	}

	query := `
		INSERT INTO documents (collection, id, version, data, created_at, updated_at)
		VALUES ($1, $2, 1, $3, NOW(), NOW())
		RETURNING version, created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query, doc.Collection, doc.ID, []byte(doc.Data))
	if err := row.Scan(&doc.Version, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return docstore.ErrAlreadyExists(doc.Collection, doc.ID)
		}
		return errx.Wrap(err, "failed to create document", errx.TypeInternal).
			WithDetail("collection", doc.Collection).
			WithDetail("id", doc.ID)
	}
	return nil
}

// Update bumps the version in the same statement that checks it, so two writers
// holding the same version cannot both succeed.
func (s *PostgresStore) Update(ctx context.Context, doc *docstore.Document) error {
	query := `
		UPDATE documents
		SET data = $1, version = version + 1, updated_at = NOW()
		WHERE collection = $2 AND id = $3 AND ($4 = 0 OR version = $4)
		RETURNING version, created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query, []byte(doc.Data), doc.Collection, doc.ID, doc.Version)
	err := row.Scan(&doc.Version, &doc.CreatedAt, &doc.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errx.Wrap(err, "failed to update document", errx.TypeInternal).
			WithDetail("collection", doc.Collection).
			WithDetail("id", doc.ID)
	}

	exists, err := s.exists(ctx, doc.Collection, doc.ID)
	if err != nil {
		return err
	}
	if !exists {
		return docstore.ErrNotFound(doc.Collection, doc.ID)
	}
	return docstore.ErrVersionConflict(doc.Collection, doc.ID, doc.Version)
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete document", errx.TypeInternal).
			WithDetail("collection", collection).
			WithDetail("id", id)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return docstore.ErrNotFound(collection, id)
	}
	return nil
}

func (s *PostgresStore) exists(ctx context.Context, collection, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`
	if err := s.db.GetContext(ctx, &exists, query, collection, id); err != nil {
		return false, errx.Wrap(err, "failed to check document existence", errx.TypeInternal)
	}
	return exists, nil
}
