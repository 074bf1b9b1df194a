package api

import (
	"fmt"

	"github.com/JaimeStill/intake/internal/attachments"
	"github.com/JaimeStill/intake/internal/notify"
	"github.com/JaimeStill/intake/internal/submissions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Attachments attachments.System
	Submissions submissions.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, notifyCfg *notify.Config) (*Domain, error) {
	files := attachments.New(
		attachments.NewCatalog(runtime.Database.Connection()),
		runtime.Storage,
		runtime.Logger,
	)

	notifier, err := notify.New(notifyCfg, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("notifier init failed: %w", err)
	}

	subs := submissions.New(
		submissions.NewRepository(runtime.Database.Connection()),
		files,
		notifier,
		runtime.Logger,
		submissions.Options{
			Pagination:        runtime.Pagination,
			Limits:            runtime.Limits,
			UploadConcurrency: runtime.UploadConcurrency,
			NotifyTimeout:     notifyCfg.TimeoutDuration(),
		},
	)

	return &Domain{
		Attachments: files,
		Submissions: subs,
	}, nil
}
