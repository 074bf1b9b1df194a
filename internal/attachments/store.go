package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/intake/pkg/storage"
)

// System is the attachment store contract used by the submission service.
type System interface {
	// Put streams cmd.Body into the blob backend and registers the object.
	// Failures of either step return ErrStoreWrite and leave nothing registered.
	Put(ctx context.Context, cmd PutCommand) (*Object, error)
	// Get returns the object and a stream of its bytes. The caller closes the stream.
	Get(ctx context.Context, id uuid.UUID) (*Object, io.ReadCloser, error)
	// Delete removes the blob and then its catalog entry.
	// Returns ErrNotFound when no object is registered under id.
	Delete(ctx context.Context, id uuid.UUID) error
}

type store struct {
	catalog Catalog
	blobs   storage.System
	logger  *slog.Logger
}

// New creates an attachment store over a catalog and a blob backend.
func New(catalog Catalog, blobs storage.System, logger *slog.Logger) System {
	return &store{
		catalog: catalog,
		blobs:   blobs,
		logger:  logger.With("system", "attachments"),
	}
}

func (s *store) Put(ctx context.Context, cmd PutCommand) (*Object, error) {
	if strings.TrimSpace(cmd.OwnerSubmissionID) == "" {
		return nil, fmt.Errorf("%w: owner submission id required", ErrInvalidObject)
	}
	if cmd.Body == nil {
		return nil, fmt.Errorf("%w: body required", ErrInvalidObject)
	}

	id := uuid.New()
	key := BuildKey(cmd.OwnerSubmissionID, cmd.UploadedAt, id, cmd.OriginalName)

	body, size, err := measure(cmd.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStoreWrite, cmd.OriginalName, err)
	}

	if err := s.blobs.Upload(ctx, key, body, cmd.ContentType); err != nil {
		return nil, fmt.Errorf("%w: upload %s: %w", ErrStoreWrite, key, err)
	}

	obj, err := s.catalog.Insert(ctx, Object{
		ID:                id,
		Key:               key,
		OriginalName:      cmd.OriginalName,
		ContentType:       cmd.ContentType,
		OwnerSubmissionID: cmd.OwnerSubmissionID,
		SizeBytes:         size(),
		PageCount:         cmd.PageCount,
		UploadedAt:        cmd.UploadedAt,
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("%w: register %s: %w", ErrStoreWrite, key, err)
	}

	s.logger.Info("attachment stored", "id", obj.ID, "key", key, "size", obj.SizeBytes)
	return obj, nil
}

func (s *store) Get(ctx context.Context, id uuid.UUID) (*Object, io.ReadCloser, error) {
	obj, err := s.catalog.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: find %s: %w", ErrStoreRead, id, err)
	}

	blob, err := s.blobs.Download(ctx, obj.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("catalog entry has no blob", "id", id, "key", obj.Key)
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("%w: download %s: %w", ErrStoreRead, obj.Key, err)
	}

	return obj, blob.Body, nil
}

func (s *store) Delete(ctx context.Context, id uuid.UUID) error {
	obj, err := s.catalog.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: find %s: %w", ErrStoreWrite, id, err)
	}

	if err := s.blobs.Delete(ctx, obj.Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: delete blob %s: %w", ErrStoreWrite, obj.Key, err)
	}

	if err := s.catalog.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: unregister %s: %w", ErrStoreWrite, id, err)
	}

	s.logger.Info("attachment deleted", "id", id, "key", obj.Key)
	return nil
}

// measure returns the reader to upload and a func reporting its size once
// the upload has consumed it. Seekable bodies pass through untouched so
// backends that need io.ReadSeeker can use them without buffering.
func measure(r io.Reader) (io.Reader, func() int64, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		start, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, nil, err
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, nil, err
		}
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return nil, nil, err
		}
		return rs, func() int64 { return end - start }, nil
	}

	c := &countingReader{r: r}
	return c, func() int64 { return c.n }, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
