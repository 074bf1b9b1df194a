package submissions

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/intake/internal/attachments"
	"github.com/JaimeStill/intake/pkg/pagination"
)

// System defines the public contract for submission operations.
type System interface {
	Handler(trustProxy bool) *Handler

	Create(ctx context.Context, cmd CreateCommand) (*CreateResult, error)
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Submission], error)
	Find(ctx context.Context, lookup Lookup) (*Submission, error)
	FindByEmail(ctx context.Context, email string) ([]Submission, error)
	UpdateStatus(ctx context.Context, lookup Lookup, cmd StatusCommand) (*Submission, error)
	Delete(ctx context.Context, lookup Lookup) error
	Stats(ctx context.Context) (*Stats, error)
	Attachment(ctx context.Context, fileID uuid.UUID) (*attachments.Object, io.ReadCloser, error)
}

// Notifier delivers notifications about a newly created submission.
// Create never waits on it; failures are logged.
type Notifier interface {
	NotifySubmitter(ctx context.Context, sub *Submission) error
	NotifyAdmin(ctx context.Context, sub *Submission) error
}
