package submissions_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/intake/internal/submissions"
	"github.com/JaimeStill/intake/pkg/query"
)

func ptr(s string) *string { return &s }

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		values := url.Values{
			"status":         {"pending"},
			"region":         {"nyanza"},
			"urgency":        {"urgent"},
			"submissionType": {"Monthly Report"},
		}

		f := submissions.FiltersFromQuery(values)

		if f.Status == nil || *f.Status != "pending" {
			t.Errorf("Status = %v, want pending", f.Status)
		}
		if f.Region == nil || *f.Region != "nyanza" {
			t.Errorf("Region = %v, want nyanza", f.Region)
		}
		if f.Urgency == nil || *f.Urgency != "urgent" {
			t.Errorf("Urgency = %v, want urgent", f.Urgency)
		}
		if f.SubmissionType == nil || *f.SubmissionType != "Monthly Report" {
			t.Errorf("SubmissionType = %v, want Monthly Report", f.SubmissionType)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := submissions.FiltersFromQuery(url.Values{"status": {""}, "page": {"2"}})

		if f.Status != nil || f.Region != nil || f.Urgency != nil || f.SubmissionType != nil {
			t.Errorf("filters = %+v, want all nil", f)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "submissions", "s").
		Project("status", "status").
		Project("region", "region").
		Project("urgency", "urgency").
		Project("submission_type", "submissionType")

	tests := []struct {
		name      string
		filters   submissions.Filters
		wantWhere string
		wantArgs  []string
	}{
		{
			name:    "no filters",
			filters: submissions.Filters{},
		},
		{
			name:      "status only",
			filters:   submissions.Filters{Status: ptr("pending")},
			wantWhere: " WHERE s.status = $1",
			wantArgs:  []string{"pending"},
		},
		{
			name:      "urgency and type",
			filters:   submissions.Filters{Urgency: ptr("high"), SubmissionType: ptr("Financial Statement")},
			wantWhere: " WHERE s.urgency = $1 AND s.submission_type = $2",
			wantArgs:  []string{"high", "Financial Statement"},
		},
		{
			name: "all filters",
			filters: submissions.Filters{
				Status:         ptr("approved"),
				Region:         ptr("coast"),
				Urgency:        ptr("normal"),
				SubmissionType: ptr("Monthly Report"),
			},
			wantWhere: " WHERE s.status = $1 AND s.region = $2 AND s.urgency = $3 AND s.submission_type = $4",
			wantArgs:  []string{"approved", "coast", "normal", "Monthly Report"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(projection)
			tt.filters.Apply(b)

			countSQL, countArgs := b.BuildCount()
			wantCount := "SELECT COUNT(*) FROM public.submissions s" + tt.wantWhere
			if countSQL != wantCount {
				t.Errorf("count sql = %q, want %q", countSQL, wantCount)
			}

			pageSQL, pageArgs := b.BuildPage(2, 20)
			_, afterFrom, _ := strings.Cut(pageSQL, "FROM public.submissions s")
			pageWhere, _, _ := strings.Cut(afterFrom, " LIMIT")
			if pageWhere != tt.wantWhere {
				t.Errorf("page where = %q, want %q", pageWhere, tt.wantWhere)
			}
			if !strings.HasSuffix(pageSQL, " LIMIT 20 OFFSET 20") {
				t.Errorf("page sql = %q, want LIMIT 20 OFFSET 20", pageSQL)
			}

			for _, args := range [][]any{countArgs, pageArgs} {
				if len(args) != len(tt.wantArgs) {
					t.Fatalf("args = %v, want %v", args, tt.wantArgs)
				}
				for i, want := range tt.wantArgs {
					if v, ok := args[i].(*string); !ok || *v != want {
						t.Errorf("args[%d] = %v, want %s", i, args[i], want)
					}
				}
			}
		})
	}
}
