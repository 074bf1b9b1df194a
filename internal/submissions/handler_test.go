package submissions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/intake/internal/attachments"
	"github.com/JaimeStill/intake/internal/submissions"
	"github.com/JaimeStill/intake/pkg/pagination"
	"github.com/JaimeStill/intake/pkg/routes"
)

type mockSystem struct {
	createFn       func(ctx context.Context, cmd submissions.CreateCommand) (*submissions.CreateResult, error)
	listFn         func(ctx context.Context, page pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error)
	findFn         func(ctx context.Context, lookup submissions.Lookup) (*submissions.Submission, error)
	findByEmailFn  func(ctx context.Context, email string) ([]submissions.Submission, error)
	updateStatusFn func(ctx context.Context, lookup submissions.Lookup, cmd submissions.StatusCommand) (*submissions.Submission, error)
	deleteFn       func(ctx context.Context, lookup submissions.Lookup) error
	statsFn        func(ctx context.Context) (*submissions.Stats, error)
	attachmentFn   func(ctx context.Context, id uuid.UUID) (*attachments.Object, io.ReadCloser, error)
}

func (m *mockSystem) Handler(trustProxy bool) *submissions.Handler {
	return newTestHandler(m, testLimits())
}

func (m *mockSystem) Create(ctx context.Context, cmd submissions.CreateCommand) (*submissions.CreateResult, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, lookup submissions.Lookup) (*submissions.Submission, error) {
	return m.findFn(ctx, lookup)
}

func (m *mockSystem) FindByEmail(ctx context.Context, email string) ([]submissions.Submission, error) {
	return m.findByEmailFn(ctx, email)
}

func (m *mockSystem) UpdateStatus(ctx context.Context, lookup submissions.Lookup, cmd submissions.StatusCommand) (*submissions.Submission, error) {
	return m.updateStatusFn(ctx, lookup, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, lookup submissions.Lookup) error {
	return m.deleteFn(ctx, lookup)
}

func (m *mockSystem) Stats(ctx context.Context) (*submissions.Stats, error) {
	return m.statsFn(ctx)
}

func (m *mockSystem) Attachment(ctx context.Context, id uuid.UUID) (*attachments.Object, io.ReadCloser, error) {
	return m.attachmentFn(ctx, id)
}

func newTestHandler(sys submissions.System, limits submissions.UploadLimits) *submissions.Handler {
	return submissions.NewHandler(
		sys,
		discardLogger(),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		limits,
		false,
	)
}

func setupMux(h *submissions.Handler, createMiddleware ...func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes(createMiddleware...))
	return mux
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

type formFile struct {
	name string
	typ  string
	data []byte
}

func multipartBody(t *testing.T, fields submissions.Fields, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	values := map[string]string{
		"fullName":       fields.FullName,
		"email":          fields.Email,
		"phone":          fields.Phone,
		"position":       fields.Position,
		"branch":         fields.Branch,
		"region":         fields.Region,
		"submissionType": fields.SubmissionType,
		"subject":        fields.Subject,
		"description":    fields.Description,
		"urgency":        fields.Urgency,
	}
	for k, v := range values {
		if v != "" {
			w.WriteField(k, v)
		}
	}

	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		if f.typ != "" {
			hdr.Set("Content-Type", f.typ)
		}
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(f.data)
	}

	w.Close()
	return &buf, w.FormDataContentType()
}

func sampleSubmission() submissions.Submission {
	return submissions.Submission{
		ID:             uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		SubmissionID:   "SUB-202603-0042",
		FullName:       "Jane Wanjiru",
		Email:          "jane@example.org",
		Region:         "nyanza",
		SubmissionType: "Monthly Report",
		Urgency:        submissions.UrgencyNormal,
		Status:         submissions.StatusPending,
		CreatedAt:      fixedNow,
		UpdatedAt:      fixedNow,
	}
}

func TestHandlerCreateEndToEnd(t *testing.T) {
	h := newHarness(nil)
	mux := setupMux(h.sys.Handler(false))

	content := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 2*mb)...)
	body, contentType := multipartBody(t, validFields(), formFile{name: "march-report.pdf", data: content})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/submissions", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "intake-test")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Submission created successfully" {
		t.Errorf("envelope = %+v", env)
	}

	var data struct {
		SubmissionID string                 `json:"submissionId"`
		Submission   submissions.Submission `json:"submission"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if !submissions.IsPublicID(data.SubmissionID) || data.Submission.SubmissionID != data.SubmissionID {
		t.Errorf("submissionId = %q, submission.submissionId = %q", data.SubmissionID, data.Submission.SubmissionID)
	}
	if data.Submission.UserAgent != "intake-test" {
		t.Errorf("userAgent = %q", data.Submission.UserAgent)
	}
	if len(data.Submission.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(data.Submission.Files))
	}

	file := data.Submission.Files[0]
	if file.FileName != "march-report.pdf" || file.FileType != "application/pdf" || file.FileSize != int64(len(content)) {
		t.Errorf("descriptor = %+v", file)
	}

	t.Run("download returns stored bytes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/submissions/files/"+file.FileID.String(), nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
			t.Errorf("Content-Type = %s", got)
		}
		if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=march-report.pdf` {
			t.Errorf("Content-Disposition = %s", got)
		}
		if !bytes.Equal(rec.Body.Bytes(), content) {
			t.Error("downloaded bytes differ from upload")
		}
	})

	t.Run("found by public id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/submissions/"+data.SubmissionID, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestHandlerCreate(t *testing.T) {
	created := sampleSubmission()

	t.Run("validation errors listed", func(t *testing.T) {
		h := newHarness(nil)
		mux := setupMux(h.sys.Handler(false))

		fields := validFields()
		fields.FullName = ""
		fields.Email = "nope"
		body, contentType := multipartBody(t, fields)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Message != "Validation failed" || len(env.Errors) != 2 {
			t.Errorf("envelope = %+v", env)
		}
	})

	t.Run("oversized file rejected with 413", func(t *testing.T) {
		sys := &mockSystem{}
		limits := testLimits()
		limits.MaxFileSize = 1024
		mux := setupMux(newTestHandler(sys, limits))

		body, contentType := multipartBody(t, validFields(), formFile{name: "big.pdf", typ: "application/pdf", data: make([]byte, 1025)})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("disallowed type rejected with 400", func(t *testing.T) {
		h := newHarness(nil)
		mux := setupMux(h.sys.Handler(false))

		body, contentType := multipartBody(t, validFields(), formFile{name: "notes.txt", typ: "text/plain", data: []byte("hi")})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if env := decodeEnvelope(t, rec); !strings.Contains(env.Message, "Invalid file type") {
			t.Errorf("message = %q", env.Message)
		}
	})

	t.Run("json body accepted", func(t *testing.T) {
		var captured submissions.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd submissions.CreateCommand) (*submissions.CreateResult, error) {
				captured = cmd
				return &submissions.CreateResult{Submission: &created}, nil
			},
		}
		mux := setupMux(newTestHandler(sys, testLimits()))

		payload, _ := json.Marshal(validFields())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.10:5555"
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if captured.Fields.Region != "nyanza" || captured.Client.IPAddress != "192.0.2.10" {
			t.Errorf("captured = %+v", captured)
		}
	})

	t.Run("query string does not fill form fields", func(t *testing.T) {
		var captured submissions.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd submissions.CreateCommand) (*submissions.CreateResult, error) {
				captured = cmd
				return &submissions.CreateResult{Submission: &created}, nil
			},
		}
		mux := setupMux(newTestHandler(sys, testLimits()))

		fields := validFields()
		fields.FullName = ""
		fields.Urgency = ""
		body, contentType := multipartBody(t, fields)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions?fullName=Injected&urgency=urgent", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if captured.Fields.FullName != "" || captured.Fields.Urgency != "" {
			t.Errorf("fields taken from query: fullName=%q urgency=%q", captured.Fields.FullName, captured.Fields.Urgency)
		}
		if captured.Fields.Email != fields.Email {
			t.Errorf("email = %q, want %q", captured.Fields.Email, fields.Email)
		}
	})

	t.Run("middleware wraps create only", func(t *testing.T) {
		sys := &mockSystem{
			createFn: func(context.Context, submissions.CreateCommand) (*submissions.CreateResult, error) {
				return &submissions.CreateResult{Submission: &created}, nil
			},
			listFn: func(_ context.Context, page pagination.PageRequest, _ submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
				result := pagination.NewPageResult[submissions.Submission](nil, 0, page.Page, page.Limit)
				return &result, nil
			},
		}

		block := func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			})
		}
		mux := setupMux(newTestHandler(sys, testLimits()), block)

		payload, _ := json.Marshal(validFields())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("POST status = %d, want 429", rec.Code)
		}

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/submissions", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET status = %d, want 200", rec.Code)
		}
	})
}

func TestHandlerList(t *testing.T) {
	sub := sampleSubmission()
	var capturedPage pagination.PageRequest
	var capturedFilters submissions.Filters

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
			capturedPage = page
			capturedFilters = f
			result := pagination.NewPageResult([]submissions.Submission{sub}, 41, page.Page, page.Limit)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys, testLimits()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/submissions?status=pending&region=coast&page=2&limit=20&sortBy=urgency&order=asc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if capturedFilters.Status == nil || *capturedFilters.Status != "pending" {
		t.Errorf("status filter = %v", capturedFilters.Status)
	}
	if capturedFilters.Region == nil || *capturedFilters.Region != "coast" {
		t.Errorf("region filter = %v", capturedFilters.Region)
	}
	if capturedFilters.Urgency != nil {
		t.Errorf("urgency filter = %v, want nil", capturedFilters.Urgency)
	}
	if capturedPage.Page != 2 || capturedPage.SortBy != "urgency" || capturedPage.Order != "asc" {
		t.Errorf("page = %+v", capturedPage)
	}

	env := decodeEnvelope(t, rec)
	var data struct {
		Submissions []submissions.Submission `json:"submissions"`
		Pagination  pagination.Meta          `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Submissions) != 1 {
		t.Errorf("submissions = %d, want 1", len(data.Submissions))
	}
	if data.Pagination != (pagination.Meta{Total: 41, Page: 2, Limit: 20, Pages: 3}) {
		t.Errorf("pagination = %+v", data.Pagination)
	}
}

func TestHandlerFind(t *testing.T) {
	sub := sampleSubmission()
	sys := &mockSystem{
		findFn: func(_ context.Context, l submissions.Lookup) (*submissions.Submission, error) {
			if l == submissions.ByID(sub.ID) || l == submissions.ByPublicID(sub.SubmissionID) {
				return &sub, nil
			}
			return nil, submissions.ErrNotFound
		},
	}
	mux := setupMux(newTestHandler(sys, testLimits()))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"internal id", "/submissions/" + sub.ID.String(), http.StatusOK},
		{"public id", "/submissions/" + sub.SubmissionID, http.StatusOK},
		{"unknown", "/submissions/SUB-202603-9999", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerFindByEmail(t *testing.T) {
	var captured string
	sys := &mockSystem{
		findByEmailFn: func(_ context.Context, email string) ([]submissions.Submission, error) {
			captured = email
			return []submissions.Submission{sampleSubmission(), sampleSubmission()}, nil
		},
	}
	mux := setupMux(newTestHandler(sys, testLimits()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/submissions/email/Jane@Example.org", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured != "jane@example.org" {
		t.Errorf("email = %q, want lowercased", captured)
	}

	var data struct {
		Email string `json:"email"`
		Count int    `json:"count"`
	}
	json.Unmarshal(decodeEnvelope(t, rec).Data, &data)
	if data.Count != 2 || data.Email != "jane@example.org" {
		t.Errorf("data = %+v", data)
	}
}

func TestHandlerStats(t *testing.T) {
	sys := &mockSystem{
		statsFn: func(context.Context) (*submissions.Stats, error) {
			return &submissions.Stats{
				Total:    3,
				Pending:  2,
				ByRegion: []submissions.GroupCount{{Key: "coast", Count: 2}, {Key: "nyanza", Count: 1}},
			}, nil
		},
	}
	mux := setupMux(newTestHandler(sys, testLimits()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/submissions/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `{"_id":"coast","count":2}`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	sub := sampleSubmission()

	tests := []struct {
		name    string
		body    string
		sysErr  error
		want    int
		wantMsg string
	}{
		{"updated", `{"status":"approved","reviewedBy":"Admin"}`, nil, http.StatusOK, "Submission status updated successfully"},
		{"malformed body", `{`, nil, http.StatusBadRequest, ""},
		{"invalid status", `{"status":"done"}`, &submissions.ValidationError{Errors: []string{"Invalid status"}}, http.StatusBadRequest, "Invalid status"},
		{"not found", `{"status":"approved"}`, submissions.ErrNotFound, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured submissions.StatusCommand
			sys := &mockSystem{
				updateStatusFn: func(_ context.Context, _ submissions.Lookup, cmd submissions.StatusCommand) (*submissions.Submission, error) {
					captured = cmd
					if tt.sysErr != nil {
						return nil, tt.sysErr
					}
					return &sub, nil
				},
			}
			mux := setupMux(newTestHandler(sys, testLimits()))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("PATCH", "/submissions/"+sub.SubmissionID+"/status", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.wantMsg != "" {
				if env := decodeEnvelope(t, rec); env.Message != tt.wantMsg {
					t.Errorf("message = %q, want %q", env.Message, tt.wantMsg)
				}
			}
			if tt.name == "updated" && captured.ReviewedBy != "Admin" {
				t.Errorf("reviewedBy = %q", captured.ReviewedBy)
			}
		})
	}
}

func TestHandlerDelete(t *testing.T) {
	deleted := map[string]bool{}
	sys := &mockSystem{
		deleteFn: func(_ context.Context, l submissions.Lookup) error {
			if deleted[l.String()] {
				return submissions.ErrNotFound
			}
			deleted[l.String()] = true
			return nil
		},
	}
	mux := setupMux(newTestHandler(sys, testLimits()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/submissions/SUB-202603-0042", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Message != "Submission deleted successfully" {
		t.Errorf("message = %q", env.Message)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/submissions/SUB-202603-0042", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHandlerDownloadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"malformed id", "/submissions/files/not-a-uuid", nil, http.StatusNotFound},
		{"missing object", "/submissions/files/" + uuid.NewString(), attachments.ErrNotFound, http.StatusNotFound},
		{"backend fault", "/submissions/files/" + uuid.NewString(), attachments.ErrStoreRead, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				attachmentFn: func(context.Context, uuid.UUID) (*attachments.Object, io.ReadCloser, error) {
					return nil, nil, tt.err
				},
			}
			mux := setupMux(newTestHandler(sys, testLimits()))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
