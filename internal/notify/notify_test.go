package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/intake/internal/attachments"
	"github.com/JaimeStill/intake/internal/notify"
	"github.com/JaimeStill/intake/internal/submissions"
)

type recordingSender struct {
	sent []notify.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func finalized(t *testing.T, cfg notify.Config) *notify.Config {
	t.Helper()
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return &cfg
}

func sampleSubmission() *submissions.Submission {
	return &submissions.Submission{
		ID:             uuid.New(),
		SubmissionID:   "SUB-202603-0042",
		FullName:       "Grace Wanjiru",
		Email:          "grace@example.org",
		Phone:          "+254700000000",
		Position:       "Treasurer",
		Branch:         "Karen",
		Region:         submissions.Region("nairobi"),
		SubmissionType: submissions.SubmissionType("Financial Statement"),
		Subject:        "Q1 <report>",
		Description:    "Quarterly figures",
		Urgency:        submissions.UrgencyUrgent,
		Status:         submissions.StatusPending,
		IPAddress:      "203.0.113.7",
		UserAgent:      "curl/8.5",
		Files: []attachments.Descriptor{
			{FileName: "q1.pdf", FileID: uuid.New(), FileSize: 2 * 1024 * 1024, FileType: "application/pdf"},
		},
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := finalized(t, notify.Config{})

	if cfg.Enabled() {
		t.Error("Enabled() = true without host")
	}
	if cfg.Port != 587 {
		t.Errorf("Port = %d, want 587", cfg.Port)
	}
	if cfg.AdminEmail != "info@ntcogk.org" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
	if cfg.TimeoutDuration() != 30*time.Second {
		t.Errorf("TimeoutDuration() = %s", cfg.TimeoutDuration())
	}
	if cfg.Contact.Email != cfg.AdminEmail {
		t.Errorf("Contact.Email = %q, want %q", cfg.Contact.Email, cfg.AdminEmail)
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("TEST_SMTP_HOST", "smtp.example.org")
	t.Setenv("TEST_SMTP_PORT", "2525")
	t.Setenv("TEST_SMTP_USER", "relay@example.org")

	cfg := notify.Config{}
	err := cfg.Finalize(&notify.Env{
		Host:     "TEST_SMTP_HOST",
		Port:     "TEST_SMTP_PORT",
		Username: "TEST_SMTP_USER",
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if !cfg.Enabled() || cfg.Host != "smtp.example.org" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Port != 2525 {
		t.Errorf("Port = %d, want 2525", cfg.Port)
	}
	if cfg.From != "relay@example.org" {
		t.Errorf("From = %q, want username fallback", cfg.From)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  notify.Config
	}{
		{"host without sender", notify.Config{Host: "smtp.example.org"}},
		{"bad tls policy", notify.Config{TLSPolicy: "starttls-ish"}},
		{"bad timeout", notify.Config{Timeout: "soon"}},
		{"bad port", notify.Config{Port: 70000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("Finalize() = nil, want error")
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := notify.Config{Host: "a", Port: 25, AdminEmail: "admin@a"}
	base.Merge(&notify.Config{Host: "b", Contact: notify.Contact{Phone: "123"}})

	if base.Host != "b" || base.Port != 25 || base.AdminEmail != "admin@a" || base.Contact.Phone != "123" {
		t.Errorf("Merge result = %+v", base)
	}
}

func TestSubmitterMessage(t *testing.T) {
	n := notify.NewWithSender(finalized(t, notify.Config{}), &recordingSender{}, discardLogger())

	msg, err := n.SubmitterMessage(sampleSubmission())
	if err != nil {
		t.Fatalf("SubmitterMessage: %v", err)
	}

	if msg.To != "grace@example.org" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.Subject != "Submission Received - NTCOG Kenya" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.FromName != "NTCOG Kenya" {
		t.Errorf("FromName = %q", msg.FromName)
	}

	for _, want := range []string{
		"Dear Grace Wanjiru",
		"SUB-202603-0042",
		"Q1 &lt;report&gt;",
		"1 file(s)",
		"14 Mar 2026 09:30 UTC",
		"+254 759 120 222",
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(msg.HTML, "<report>") {
		t.Error("subject rendered unescaped")
	}
}

func TestAdminMessage(t *testing.T) {
	n := notify.NewWithSender(finalized(t, notify.Config{}), &recordingSender{}, discardLogger())
	sub := sampleSubmission()

	msg, err := n.AdminMessage(sub)
	if err != nil {
		t.Fatalf("AdminMessage: %v", err)
	}

	if msg.To != "info@ntcogk.org" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.FromName != "NTCOG Submissions" {
		t.Errorf("FromName = %q", msg.FromName)
	}
	wantSubject := "New Submission - Financial Statement [Urgent]"
	if msg.Subject != wantSubject {
		t.Errorf("Subject = %q, want %q", msg.Subject, wantSubject)
	}

	for _, want := range []string{
		"#D32F2F",
		"Urgent Submission",
		"q1.pdf (2.00 MB)",
		"203.0.113.7",
		"mailto:grace@example.org",
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestAccentFor(t *testing.T) {
	tests := []struct {
		urgency submissions.Urgency
		text    string
	}{
		{submissions.UrgencyUrgent, "#D32F2F"},
		{submissions.UrgencyHigh, "#F57C00"},
		{submissions.UrgencyNormal, "#1976D2"},
		{submissions.UrgencyLow, "#1976D2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.urgency), func(t *testing.T) {
			if got := notify.AccentFor(tt.urgency).Text; got != tt.text {
				t.Errorf("AccentFor(%s).Text = %q, want %q", tt.urgency, got, tt.text)
			}
		})
	}
}

func TestNotifyDelivers(t *testing.T) {
	sender := &recordingSender{}
	n := notify.NewWithSender(finalized(t, notify.Config{}), sender, discardLogger())
	sub := sampleSubmission()

	if err := n.NotifySubmitter(context.Background(), sub); err != nil {
		t.Fatalf("NotifySubmitter: %v", err)
	}
	if err := n.NotifyAdmin(context.Background(), sub); err != nil {
		t.Fatalf("NotifyAdmin: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}
	if sender.sent[0].To != sub.Email || sender.sent[1].To != "info@ntcogk.org" {
		t.Errorf("recipients = %q, %q", sender.sent[0].To, sender.sent[1].To)
	}
}

func TestNotifySendError(t *testing.T) {
	relayDown := errors.New("connection refused")
	n := notify.NewWithSender(finalized(t, notify.Config{}), &recordingSender{err: relayDown}, discardLogger())

	err := n.NotifyAdmin(context.Background(), sampleSubmission())
	if !errors.Is(err, relayDown) {
		t.Errorf("NotifyAdmin error = %v, want wrapped %v", err, relayDown)
	}
}

func TestNewWithoutHostLogsOnly(t *testing.T) {
	n, err := notify.New(finalized(t, notify.Config{}), discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := n.NotifySubmitter(context.Background(), sampleSubmission()); err != nil {
		t.Errorf("NotifySubmitter with log sender: %v", err)
	}
}

func TestNewSMTPSender(t *testing.T) {
	cfg := finalized(t, notify.Config{
		Host:      "smtp.example.org",
		Username:  "relay@example.org",
		Password:  "secret",
		TLSPolicy: notify.TLSImplicit,
		Port:      465,
	})

	if _, err := notify.NewSMTPSender(cfg); err != nil {
		t.Errorf("NewSMTPSender: %v", err)
	}
}
