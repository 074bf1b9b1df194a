// Package notify delivers submission receipts and admin alerts by email.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/JaimeStill/intake/internal/submissions"
	"github.com/JaimeStill/intake/pkg/formatting"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{"megabytes": formatting.FormatMegabytes}).
		ParseFS(templateFS, "templates/*.html"),
)

// Message is a rendered email ready for delivery.
type Message struct {
	FromName string
	To       string
	Subject  string
	HTML     string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Accent is the banner colour pair used for an urgency level.
type Accent struct {
	Background string
	Text       string
}

// AccentFor returns the admin banner colours for u.
func AccentFor(u submissions.Urgency) Accent {
	switch u {
	case submissions.UrgencyUrgent:
		return Accent{Background: "#FEE", Text: "#D32F2F"}
	case submissions.UrgencyHigh:
		return Accent{Background: "#FFF3E0", Text: "#F57C00"}
	default:
		return Accent{Background: "#E8F4F8", Text: "#1976D2"}
	}
}

type view struct {
	Organization string
	Contact      Contact
	Submission   *submissions.Submission
	SubmittedAt  string
	Accent       Accent
}

// Notifier renders and sends the notifications for a new submission.
type Notifier struct {
	cfg      Config
	sender   Sender
	location *time.Location
	logger   *slog.Logger
}

var _ submissions.Notifier = (*Notifier)(nil)

// New creates a Notifier from cfg. Without an SMTP host, messages are logged
// rather than sent.
func New(cfg *Config, logger *slog.Logger) (*Notifier, error) {
	logger = logger.With("notify", "email")

	if !cfg.Enabled() {
		logger.Warn("smtp host not configured, notifications will be logged only")
		return NewWithSender(cfg, NewLogSender(logger), logger), nil
	}

	sender, err := NewSMTPSender(cfg)
	if err != nil {
		return nil, fmt.Errorf("smtp sender: %w", err)
	}

	return NewWithSender(cfg, sender, logger), nil
}

// NewWithSender creates a Notifier that delivers through sender.
func NewWithSender(cfg *Config, sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:      *cfg,
		sender:   sender,
		location: time.UTC,
		logger:   logger,
	}
}

// SubmitterMessage renders the receipt sent to the submitter.
func (n *Notifier) SubmitterMessage(sub *submissions.Submission) (Message, error) {
	body, err := n.render("submitter.html", sub)
	if err != nil {
		return Message{}, err
	}

	return Message{
		FromName: n.cfg.FromName,
		To:       sub.Email,
		Subject:  fmt.Sprintf("Submission Received - %s", n.cfg.Organization),
		HTML:     body,
	}, nil
}

// AdminMessage renders the alert sent to the admin mailbox.
func (n *Notifier) AdminMessage(sub *submissions.Submission) (Message, error) {
	body, err := n.render("admin.html", sub)
	if err != nil {
		return Message{}, err
	}

	return Message{
		FromName: n.cfg.AdminName,
		To:       n.cfg.AdminEmail,
		Subject:  fmt.Sprintf("New Submission - %s [%s]", sub.SubmissionType, sub.Urgency.Display()),
		HTML:     body,
	}, nil
}

func (n *Notifier) NotifySubmitter(ctx context.Context, sub *submissions.Submission) error {
	msg, err := n.SubmitterMessage(sub)
	if err != nil {
		return err
	}
	return n.send(ctx, msg, sub)
}

func (n *Notifier) NotifyAdmin(ctx context.Context, sub *submissions.Submission) error {
	msg, err := n.AdminMessage(sub)
	if err != nil {
		return err
	}
	return n.send(ctx, msg, sub)
}

func (n *Notifier) send(ctx context.Context, msg Message, sub *submissions.Submission) error {
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", msg.To, err)
	}

	n.logger.Info("notification sent", "submission_id", sub.SubmissionID, "to", msg.To)
	return nil
}

func (n *Notifier) render(name string, sub *submissions.Submission) (string, error) {
	var buf bytes.Buffer

	err := templates.ExecuteTemplate(&buf, name, view{
		Organization: n.cfg.Organization,
		Contact:      n.cfg.Contact,
		Submission:   sub,
		SubmittedAt:  sub.CreatedAt.In(n.location).Format("2 Jan 2006 15:04 MST"),
		Accent:       AccentFor(sub.Urgency),
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	return buf.String(), nil
}
