// Package submissions implements the submission lifecycle: validating public
// form submissions, persisting them under a generated public identifier,
// attaching uploaded files, and the staff review operations over them.
package submissions

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/intake/internal/attachments"
)

// Status is the review state of a submission.
type Status string

const (
	StatusPending        Status = "pending"
	StatusUnderReview    Status = "under-review"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusRequiresAction Status = "requires-action"
)

// Statuses lists every valid Status in display order.
var Statuses = []Status{
	StatusPending,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusRequiresAction,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Region identifies the organisational region a branch belongs to.
type Region string

var regionNames = map[Region]string{
	"nairobi":     "Nairobi Region",
	"central":     "Central Region",
	"coast":       "Coast Region",
	"eastern":     "Eastern Region",
	"nyanza":      "Nyanza Region",
	"rift-valley": "Rift Valley Region",
	"western":     "Western Region",
}

// Regions lists every valid Region.
var Regions = []Region{"nairobi", "central", "coast", "eastern", "nyanza", "rift-valley", "western"}

// Valid reports whether r is a known region.
func (r Region) Valid() bool {
	_, ok := regionNames[r]
	return ok
}

// Display returns the human-facing region name, or the raw value if unknown.
func (r Region) Display() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return string(r)
}

// Urgency is the submitter's priority for a submission.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

var urgencyNames = map[Urgency]string{
	UrgencyLow:    "Low Priority",
	UrgencyNormal: "Normal",
	UrgencyHigh:   "High Priority",
	UrgencyUrgent: "Urgent",
}

// Urgencies lists every valid Urgency from lowest to highest.
var Urgencies = []Urgency{UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyUrgent}

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	_, ok := urgencyNames[u]
	return ok
}

// Display returns the human-facing urgency label, or the raw value if unknown.
func (u Urgency) Display() string {
	if name, ok := urgencyNames[u]; ok {
		return name
	}
	return string(u)
}

// SubmissionType classifies what a submission contains.
type SubmissionType string

// SubmissionTypes lists every valid SubmissionType.
var SubmissionTypes = []SubmissionType{
	"Monthly Report",
	"Financial Statement",
	"Event Proposal",
	"Ministry Update",
	"Building/Property Documents",
	"Membership Records",
	"Pastoral Credentials",
	"Other Documents",
}

// Valid reports whether t is a known submission type.
func (t SubmissionType) Valid() bool {
	return slices.Contains(SubmissionTypes, t)
}

// Submission is a persisted form submission with its attachment descriptors.
type Submission struct {
	ID             uuid.UUID                `json:"id"`
	SubmissionID   string                   `json:"submissionId"`
	FullName       string                   `json:"fullName"`
	Email          string                   `json:"email"`
	Phone          string                   `json:"phone"`
	Position       string                   `json:"position"`
	Branch         string                   `json:"branch"`
	Region         Region                   `json:"region"`
	SubmissionType SubmissionType           `json:"submissionType"`
	Subject        string                   `json:"subject"`
	Description    string                   `json:"description"`
	Urgency        Urgency                  `json:"urgency"`
	Files          []attachments.Descriptor `json:"files"`
	Status         Status                   `json:"status"`
	ReviewedBy     *string                  `json:"reviewedBy,omitempty"`
	ReviewNotes    *string                  `json:"reviewNotes,omitempty"`
	ReviewedAt     *time.Time               `json:"reviewedAt,omitempty"`
	IPAddress      string                   `json:"ipAddress"`
	UserAgent      string                   `json:"userAgent"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// MarshalJSON adds the regionDisplay and urgencyDisplay fields.
func (s Submission) MarshalJSON() ([]byte, error) {
	type alias Submission
	files := s.Files
	if files == nil {
		files = []attachments.Descriptor{}
	}
	a := alias(s)
	a.Files = files
	return json.Marshal(struct {
		alias
		RegionDisplay  string `json:"regionDisplay"`
		UrgencyDisplay string `json:"urgencyDisplay"`
	}{
		alias:          a,
		RegionDisplay:  s.Region.Display(),
		UrgencyDisplay: s.Urgency.Display(),
	})
}

// Fields are the client-supplied form values of a new submission.
type Fields struct {
	FullName       string `json:"fullName" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email_basic"`
	Phone          string `json:"phone" validate:"required"`
	Position       string `json:"position" validate:"required"`
	Branch         string `json:"branch" validate:"required"`
	Region         string `json:"region" validate:"required,region"`
	SubmissionType string `json:"submissionType" validate:"required,submission_type"`
	Subject        string `json:"subject" validate:"required,max=200"`
	Description    string `json:"description" validate:"required,max=5000"`
	Urgency        string `json:"urgency" validate:"omitempty,urgency"`
}

// FileInput is one uploaded file awaiting storage.
type FileInput struct {
	Name        string
	ContentType string
	Data        []byte
	PageCount   *int
}

// ClientMeta records where a submission came from.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// CreateCommand carries everything needed to create a submission.
type CreateCommand struct {
	Fields Fields
	Files  []FileInput
	Client ClientMeta
}

// CreateResult is the created submission plus any non-fatal upload warnings.
type CreateResult struct {
	Submission *Submission `json:"submission"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// StatusCommand is a review decision applied to a submission.
// Empty ReviewedBy and ReviewNotes leave the stored values unchanged.
type StatusCommand struct {
	Status      string `json:"status"`
	ReviewedBy  string `json:"reviewedBy,omitempty"`
	ReviewNotes string `json:"reviewNotes,omitempty"`
}

// GroupCount is the number of submissions sharing one value of a field.
type GroupCount struct {
	Key   string `json:"_id"`
	Count int    `json:"count"`
}

// Stats summarises the submission population.
type Stats struct {
	Total       int          `json:"total"`
	Pending     int          `json:"pending"`
	UnderReview int          `json:"underReview"`
	Approved    int          `json:"approved"`
	Urgent      int          `json:"urgent"`
	ByRegion    []GroupCount `json:"byRegion"`
	ByType      []GroupCount `json:"byType"`
}

// UploadLimits bounds the files accepted with a single submission.
type UploadLimits struct {
	MaxFiles     int
	MaxFileSize  int64
	AllowedTypes []string
}

// Allows reports whether contentType is in the allow-list.
func (l UploadLimits) Allows(contentType string) bool {
	return slices.Contains(l.AllowedTypes, contentType)
}
