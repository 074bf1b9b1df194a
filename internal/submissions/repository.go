package submissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/intake/internal/attachments"
	"github.com/JaimeStill/intake/pkg/pagination"
	"github.com/JaimeStill/intake/pkg/query"
	"github.com/JaimeStill/intake/pkg/repository"
)

// StatusUpdate is a validated review decision ready to persist.
// Nil ReviewedBy or ReviewNotes keep the stored value.
type StatusUpdate struct {
	Status      Status
	ReviewedBy  *string
	ReviewNotes *string
	ReviewedAt  time.Time
}

// Repository persists submission records. Implementations report missing
// records as ErrNotFound and public id collisions as ErrDuplicate.
type Repository interface {
	Insert(ctx context.Context, sub Submission) (*Submission, error)
	SetFiles(ctx context.Context, id uuid.UUID, files []attachments.Descriptor) (*Submission, error)
	Find(ctx context.Context, lookup Lookup) (*Submission, error)
	FindByEmail(ctx context.Context, email string) ([]Submission, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Submission], error)
	UpdateStatus(ctx context.Context, lookup Lookup, update StatusUpdate) (*Submission, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

type pgRepository struct {
	db *sql.DB
}

// NewRepository creates a Repository over the submissions table.
func NewRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) Insert(ctx context.Context, sub Submission) (*Submission, error) {
	q := `
		INSERT INTO submissions(
			submission_id, full_name, email, phone, position, branch, region,
			submission_type, subject, description, urgency, files, status, ip_address, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + returning

	args := []any{
		sub.SubmissionID,
		sub.FullName,
		sub.Email,
		sub.Phone,
		sub.Position,
		sub.Branch,
		sub.Region,
		sub.SubmissionType,
		sub.Subject,
		sub.Description,
		sub.Urgency,
		fileList(sub.Files),
		sub.Status,
		sub.IPAddress,
		sub.UserAgent,
	}

	s, err := repository.QueryOne(ctx, r.db, q, args, scanSubmission)
	if err != nil {
		return nil, mapError("insert submission", err)
	}
	return &s, nil
}

func (r *pgRepository) SetFiles(ctx context.Context, id uuid.UUID, files []attachments.Descriptor) (*Submission, error) {
	q := `
		UPDATE submissions
		SET files = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + returning

	s, err := repository.QueryOne(ctx, r.db, q, []any{fileList(files), id}, scanSubmission)
	if err != nil {
		return nil, mapError("set submission files", err)
	}
	return &s, nil
}

func (r *pgRepository) Find(ctx context.Context, lookup Lookup) (*Submission, error) {
	field, _, arg := lookupTarget(lookup)
	q, args := query.NewBuilder(projection).BuildSingle(field, arg)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanSubmission)
	if err != nil {
		return nil, mapError("find submission", err)
	}
	return &s, nil
}

func (r *pgRepository) FindByEmail(ctx context.Context, email string) ([]Submission, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("email", &email).
		Build()

	subs, err := repository.QueryMany(ctx, r.db, q, args, scanSubmission)
	if err != nil {
		return nil, mapError("find submissions by email", err)
	}
	return subs, nil
}

func (r *pgRepository) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Submission], error) {
	sort := page.SortField(defaultSort.Field, sortable)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)
	qb.OrderByFields([]query.SortField{
		sort,
		{Field: "id", Descending: sort.Descending},
	})

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryScalar[int](ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, mapError("count submissions", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.Limit)
	subs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSubmission)
	if err != nil {
		return nil, mapError("query submissions", err)
	}

	result := pagination.NewPageResult(subs, total, page.Page, page.Limit)
	return &result, nil
}

func (r *pgRepository) UpdateStatus(ctx context.Context, lookup Lookup, update StatusUpdate) (*Submission, error) {
	_, column, arg := lookupTarget(lookup)
	q := fmt.Sprintf(`
		UPDATE submissions
		SET status = $1,
			reviewed_by = COALESCE($2, reviewed_by),
			review_notes = COALESCE($3, review_notes),
			reviewed_at = $4,
			updated_at = NOW()
		WHERE %s = $5
		RETURNING `+returning, column)

	args := []any{
		update.Status,
		update.ReviewedBy,
		update.ReviewNotes,
		update.ReviewedAt,
		arg,
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Submission, error) {
		return repository.QueryOne(ctx, tx, q, args, scanSubmission)
	})
	if err != nil {
		return nil, mapError("update submission status", err)
	}
	return &s, nil
}

func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM submissions WHERE id = $1", id)
	if err != nil {
		return mapError("delete submission", err)
	}
	return nil
}

func (r *pgRepository) Stats(ctx context.Context) (*Stats, error) {
	q := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'under-review'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE urgency = 'urgent')
		FROM ` + projection.From()

	var st Stats
	err := r.db.QueryRowContext(ctx, q).Scan(
		&st.Total,
		&st.Pending,
		&st.UnderReview,
		&st.Approved,
		&st.Urgent,
	)
	if err != nil {
		return nil, mapError("count submission stats", err)
	}

	if st.ByRegion, err = r.groupCount(ctx, "region"); err != nil {
		return nil, err
	}
	if st.ByType, err = r.groupCount(ctx, "submissionType"); err != nil {
		return nil, err
	}

	return &st, nil
}

func (r *pgRepository) groupCount(ctx context.Context, field string) ([]GroupCount, error) {
	q, args := query.NewBuilder(projection).BuildGroupCount(field)

	groups, err := repository.QueryMany(ctx, r.db, q, args, func(s repository.Scanner) (GroupCount, error) {
		var g GroupCount
		err := s.Scan(&g.Key, &g.Count)
		return g, err
	})
	if err != nil {
		return nil, mapError("group submissions by "+field, err)
	}
	return groups, nil
}

// lookupTarget returns the projected field, the raw column, and the
// argument that address l.
func lookupTarget(l Lookup) (string, string, any) {
	if l.Kind == LookupInternal {
		return "id", "id", l.ID
	}
	return "submissionId", "submission_id", l.PublicID
}

// mapError translates driver errors into domain errors. Anything that is
// not a missing row, a duplicate id, or a CHECK violation is a persistence fault.
func mapError(op string, err error) error {
	mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
	if errors.Is(mapped, ErrNotFound) || errors.Is(mapped, ErrDuplicate) {
		return mapped
	}
	if constraint, ok := repository.IsCheckViolation(err); ok {
		return &ValidationError{Errors: []string{"value rejected by constraint " + constraint}}
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
