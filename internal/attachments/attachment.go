// Package attachments stores submission files. Blob bytes live in the
// configured storage backend; a Postgres catalog row makes each object
// addressable by id. An object is retrievable only once both exist.
package attachments

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Object is a stored attachment as recorded in the catalog.
type Object struct {
	ID                uuid.UUID `json:"id"`
	Key               string    `json:"key"`
	OriginalName      string    `json:"originalName"`
	ContentType       string    `json:"contentType"`
	OwnerSubmissionID string    `json:"ownerSubmissionId"`
	SizeBytes         int64     `json:"sizeBytes"`
	PageCount         *int      `json:"pageCount,omitempty"`
	UploadedAt        time.Time `json:"uploadedAt"`
}

// Descriptor is the attachment reference embedded in a submission record.
type Descriptor struct {
	FileName   string    `json:"fileName"`
	FileID     uuid.UUID `json:"fileId"`
	FileSize   int64     `json:"fileSize"`
	FileType   string    `json:"fileType"`
	UploadedAt time.Time `json:"uploadedAt"`
	PageCount  *int      `json:"pageCount,omitempty"`
}

// Descriptor returns the embedded reference for o.
func (o *Object) Descriptor() Descriptor {
	return Descriptor{
		FileName:   o.OriginalName,
		FileID:     o.ID,
		FileSize:   o.SizeBytes,
		FileType:   o.ContentType,
		UploadedAt: o.UploadedAt,
		PageCount:  o.PageCount,
	}
}

// PutCommand carries one file into the store. Body is read to EOF.
// PageCount is optional metadata extracted by the caller.
type PutCommand struct {
	OriginalName      string
	ContentType       string
	OwnerSubmissionID string
	UploadedAt        time.Time
	PageCount         *int
	Body              io.Reader
}
