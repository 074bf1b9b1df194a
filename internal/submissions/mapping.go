package submissions

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/intake/internal/attachments"
	"github.com/JaimeStill/intake/pkg/query"
	"github.com/JaimeStill/intake/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "submissions", "s").
	Project("id", "id").
	Project("submission_id", "submissionId").
	Project("full_name", "fullName").
	Project("email", "email").
	Project("phone", "phone").
	Project("position", "position").
	Project("branch", "branch").
	Project("region", "region").
	Project("submission_type", "submissionType").
	Project("subject", "subject").
	Project("description", "description").
	Project("urgency", "urgency").
	Project("files", "files").
	Project("status", "status").
	Project("reviewed_by", "reviewedBy").
	Project("review_notes", "reviewNotes").
	Project("reviewed_at", "reviewedAt").
	Project("ip_address", "ipAddress").
	Project("user_agent", "userAgent").
	Project("created_at", "createdAt").
	Project("updated_at", "updatedAt")

const returning = `id, submission_id, full_name, email, phone, position, branch, region,
	submission_type, subject, description, urgency, files, status, reviewed_by, review_notes,
	reviewed_at, ip_address, user_agent, created_at, updated_at`

var defaultSort = query.SortField{
	Field:      "createdAt",
	Descending: true,
}

// sortable reports whether a client may order by the named field.
// The JSONB files column is excluded.
func sortable(field string) bool {
	return field != "files" && projection.Has(field)
}

// Filters contains optional exact-match criteria for listing submissions.
// Nil fields are ignored; set fields combine with AND.
type Filters struct {
	Status         *string `json:"status,omitempty"`
	Region         *string `json:"region,omitempty"`
	Urgency        *string `json:"urgency,omitempty"`
	SubmissionType *string `json:"submissionType,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("status", f.Status).
		WhereEquals("region", f.Region).
		WhereEquals("urgency", f.Urgency).
		WhereEquals("submissionType", f.SubmissionType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if r := values.Get("region"); r != "" {
		f.Region = &r
	}

	if u := values.Get("urgency"); u != "" {
		f.Urgency = &u
	}

	if st := values.Get("submissionType"); st != "" {
		f.SubmissionType = &st
	}

	return f
}

// fileList stores attachment descriptors in a JSONB column.
type fileList []attachments.Descriptor

func (l fileList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]attachments.Descriptor(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *fileList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = fileList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan files: unsupported type %T", src)
	}
	return json.Unmarshal(data, (*[]attachments.Descriptor)(l))
}

func scanSubmission(s repository.Scanner) (Submission, error) {
	var (
		sub   Submission
		files fileList
	)
	err := s.Scan(
		&sub.ID,
		&sub.SubmissionID,
		&sub.FullName,
		&sub.Email,
		&sub.Phone,
		&sub.Position,
		&sub.Branch,
		&sub.Region,
		&sub.SubmissionType,
		&sub.Subject,
		&sub.Description,
		&sub.Urgency,
		&files,
		&sub.Status,
		&sub.ReviewedBy,
		&sub.ReviewNotes,
		&sub.ReviewedAt,
		&sub.IPAddress,
		&sub.UserAgent,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	sub.Files = files
	return sub, err
}
