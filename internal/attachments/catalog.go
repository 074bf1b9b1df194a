package attachments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/JaimeStill/intake/pkg/query"
	"github.com/JaimeStill/intake/pkg/repository"
)

// Catalog records which blobs are registered attachment objects.
type Catalog interface {
	// Insert registers obj under obj.ID, which the store assigns before upload.
	Insert(ctx context.Context, obj Object) (*Object, error)
	Find(ctx context.Context, id uuid.UUID) (*Object, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var errKeyTaken = errors.New("storage key already registered")

var projection = query.
	NewProjectionMap("public", "attachment_objects", "a").
	Project("id", "id").
	Project("storage_key", "key").
	Project("original_name", "originalName").
	Project("content_type", "contentType").
	Project("owner_submission_id", "ownerSubmissionId").
	Project("size_bytes", "sizeBytes").
	Project("page_count", "pageCount").
	Project("uploaded_at", "uploadedAt")

const returning = `id, storage_key, original_name, content_type, owner_submission_id, size_bytes, page_count, uploaded_at`

type pgCatalog struct {
	db *sql.DB
}

// NewCatalog creates a Catalog over the attachment_objects table.
func NewCatalog(db *sql.DB) Catalog {
	return &pgCatalog{db: db}
}

func (c *pgCatalog) Insert(ctx context.Context, obj Object) (*Object, error) {
	q := `
		INSERT INTO attachment_objects(id, storage_key, original_name, content_type, owner_submission_id, size_bytes, page_count, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + returning

	args := []any{
		obj.ID,
		obj.Key,
		obj.OriginalName,
		obj.ContentType,
		obj.OwnerSubmissionID,
		obj.SizeBytes,
		obj.PageCount,
		obj.UploadedAt,
	}

	o, err := repository.QueryOne(ctx, c.db, q, args, scanObject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, errKeyTaken)
	}
	return &o, nil
}

func (c *pgCatalog) Find(ctx context.Context, id uuid.UUID) (*Object, error) {
	q, args := query.NewBuilder(projection).BuildSingle("id", id)

	o, err := repository.QueryOne(ctx, c.db, q, args, scanObject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, errKeyTaken)
	}
	return &o, nil
}

func (c *pgCatalog) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, c.db, "DELETE FROM attachment_objects WHERE id = $1", id)
	return repository.MapError(err, ErrNotFound, errKeyTaken)
}

func scanObject(s repository.Scanner) (Object, error) {
	var o Object
	err := s.Scan(
		&o.ID,
		&o.Key,
		&o.OriginalName,
		&o.ContentType,
		&o.OwnerSubmissionID,
		&o.SizeBytes,
		&o.PageCount,
		&o.UploadedAt,
	)
	return o, err
}
