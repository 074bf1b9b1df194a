package submissions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/intake/internal/attachments"
	"github.com/JaimeStill/intake/pkg/pagination"
)

// Options tunes a submission service.
type Options struct {
	Pagination pagination.Config
	Limits     UploadLimits
	// UploadConcurrency bounds parallel attachment uploads per submission.
	UploadConcurrency int
	// NotifyTimeout bounds the detached notification dispatch.
	NotifyTimeout time.Duration
	// Generator overrides the public id generator.
	Generator *Generator
	// Now overrides the clock used for upload and review timestamps.
	Now func() time.Time
}

type service struct {
	repo      Repository
	files     attachments.System
	notifier  Notifier
	validator *Validator
	ids       *Generator
	now       func() time.Time
	opts      Options
	logger    *slog.Logger
}

// New creates the submission System.
func New(
	repo Repository,
	files attachments.System,
	notifier Notifier,
	logger *slog.Logger,
	opts Options,
) System {
	if opts.UploadConcurrency < 1 {
		opts.UploadConcurrency = 4
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 30 * time.Second
	}

	ids := opts.Generator
	if ids == nil {
		ids = NewGenerator()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		repo:      repo,
		files:     files,
		notifier:  notifier,
		validator: NewValidator(opts.Limits),
		ids:       ids,
		now:       now,
		opts:      opts,
		logger:    logger.With("system", "submissions"),
	}
}

func (s *service) Handler(trustProxy bool) *Handler {
	return NewHandler(s, s.logger, s.opts.Pagination, s.opts.Limits, trustProxy)
}

func (s *service) Create(ctx context.Context, cmd CreateCommand) (*CreateResult, error) {
	fields := Sanitize(cmd.Fields)

	if err := s.validator.Files(cmd.Files); err != nil {
		return nil, err
	}
	if err := s.validator.Fields(fields); err != nil {
		return nil, err
	}

	urgency := Urgency(fields.Urgency)
	if urgency == "" {
		urgency = UrgencyNormal
	}

	sub, err := s.insert(ctx, Submission{
		FullName:       fields.FullName,
		Email:          fields.Email,
		Phone:          fields.Phone,
		Position:       fields.Position,
		Branch:         fields.Branch,
		Region:         Region(fields.Region),
		SubmissionType: SubmissionType(fields.SubmissionType),
		Subject:        fields.Subject,
		Description:    fields.Description,
		Urgency:        urgency,
		Files:          []attachments.Descriptor{},
		Status:         StatusPending,
		IPAddress:      cmd.Client.IPAddress,
		UserAgent:      cmd.Client.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Submission: sub}

	if len(cmd.Files) > 0 {
		descriptors, warnings := s.upload(ctx, sub.SubmissionID, cmd.Files)
		result.Warnings = warnings

		if len(descriptors) > 0 {
			updated, err := s.repo.SetFiles(ctx, sub.ID, descriptors)
			if err != nil {
				s.discard(ctx, descriptors)
				return nil, err
			}
			result.Submission = updated
		}
	}

	s.logger.Info(
		"submission created",
		"id", result.Submission.ID,
		"submission_id", result.Submission.SubmissionID,
		"files", len(result.Submission.Files),
		"warnings", len(result.Warnings),
	)

	s.notify(ctx, result.Submission)
	return result, nil
}

// insert persists sub under a freshly generated public id, retrying with a
// new id when the store reports a collision.
func (s *service) insert(ctx context.Context, sub Submission) (*Submission, error) {
	for attempt := 1; attempt <= MaxIdentifierAttempts; attempt++ {
		sub.SubmissionID = s.ids.Generate()

		created, err := s.repo.Insert(ctx, sub)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return nil, err
		}

		s.logger.Warn("submission id collision", "submission_id", sub.SubmissionID, "attempt", attempt)
	}

	return nil, fmt.Errorf("%w: %w", ErrPersistence, ErrIdentifierExhausted)
}

// upload stores files concurrently under the owner namespace. Descriptors
// keep the input order; failed files are skipped and reported as warnings.
func (s *service) upload(ctx context.Context, owner string, files []FileInput) ([]attachments.Descriptor, []string) {
	objects := make([]*attachments.Object, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(s.opts.UploadConcurrency)

	for i, f := range files {
		g.Go(func() error {
			obj, err := s.files.Put(ctx, attachments.PutCommand{
				OriginalName:      f.Name,
				ContentType:       f.ContentType,
				OwnerSubmissionID: owner,
				UploadedAt:        s.now(),
				PageCount:         f.PageCount,
				Body:              bytes.NewReader(f.Data),
			})
			objects[i] = obj
			errs[i] = err
			return nil
		})
	}
	g.Wait()

	var (
		descriptors []attachments.Descriptor
		warnings    []string
	)

	for i, obj := range objects {
		if errs[i] != nil {
			s.logger.Error("attachment upload failed", "submission_id", owner, "file", files[i].Name, "error", errs[i])
			warnings = append(warnings, fmt.Sprintf("File %s could not be stored", files[i].Name))
			continue
		}
		descriptors = append(descriptors, obj.Descriptor())
	}

	return descriptors, warnings
}

// discard removes uploaded objects that could not be attached to their record.
func (s *service) discard(ctx context.Context, descriptors []attachments.Descriptor) {
	ctx = context.WithoutCancel(ctx)
	for _, d := range descriptors {
		if err := s.files.Delete(ctx, d.FileID); err != nil {
			s.logger.Warn("compensating attachment delete failed", "file_id", d.FileID, "error", err)
		}
	}
}

// notify dispatches the submitter and admin notifications on detached
// goroutines that outlive the request. Each send runs independently so a
// stalled delivery never holds back the other.
func (s *service) notify(ctx context.Context, sub *Submission) {
	if s.notifier == nil {
		return
	}

	snapshot := *sub
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := s.notifier.NotifySubmitter(ctx, &snapshot); err != nil {
			s.logger.Error("submitter notification failed", "submission_id", snapshot.SubmissionID, "error", err)
		}
	})
	wg.Go(func() {
		if err := s.notifier.NotifyAdmin(ctx, &snapshot); err != nil {
			s.logger.Error("admin notification failed", "submission_id", snapshot.SubmissionID, "error", err)
		}
	})

	go func() {
		wg.Wait()
		cancel()
	}()
}

func (s *service) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Submission], error) {
	page.Normalize(s.opts.Pagination)
	return s.repo.List(ctx, page, filters)
}

func (s *service) Find(ctx context.Context, lookup Lookup) (*Submission, error) {
	if !lookup.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, lookup)
	}
	return s.repo.Find(ctx, lookup)
}

func (s *service) FindByEmail(ctx context.Context, email string) ([]Submission, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &ValidationError{Errors: []string{requiredMessages["email"]}}
	}
	return s.repo.FindByEmail(ctx, email)
}

func (s *service) UpdateStatus(ctx context.Context, lookup Lookup, cmd StatusCommand) (*Submission, error) {
	if err := s.validator.Status(cmd); err != nil {
		return nil, err
	}
	if !lookup.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, lookup)
	}

	sub, err := s.repo.UpdateStatus(ctx, lookup, StatusUpdate{
		Status:      Status(strings.TrimSpace(cmd.Status)),
		ReviewedBy:  optional(cmd.ReviewedBy),
		ReviewNotes: optional(cmd.ReviewNotes),
		ReviewedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission status updated", "submission_id", sub.SubmissionID, "status", sub.Status)
	return sub, nil
}

func (s *service) Delete(ctx context.Context, lookup Lookup) error {
	sub, err := s.Find(ctx, lookup)
	if err != nil {
		return err
	}

	for _, f := range sub.Files {
		if err := s.files.Delete(ctx, f.FileID); err != nil {
			s.logger.Warn(
				"attachment delete failed",
				"submission_id", sub.SubmissionID,
				"file_id", f.FileID,
				"error", err,
			)
		}
	}

	if err := s.repo.Delete(ctx, sub.ID); err != nil {
		return err
	}

	s.logger.Info("submission deleted", "submission_id", sub.SubmissionID)
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *service) Attachment(ctx context.Context, fileID uuid.UUID) (*attachments.Object, io.ReadCloser, error) {
	return s.files.Get(ctx, fileID)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
