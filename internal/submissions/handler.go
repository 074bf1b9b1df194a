package submissions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/intake/internal/attachments"
	"github.com/JaimeStill/intake/pkg/formatting"
	"github.com/JaimeStill/intake/pkg/handlers"
	"github.com/JaimeStill/intake/pkg/middleware"
	"github.com/JaimeStill/intake/pkg/pagination"
	"github.com/JaimeStill/intake/pkg/routes"
)

// formOverhead is the allowance for non-file multipart parts on top of the file budget.
const formOverhead = 1 << 20

// Handler provides HTTP endpoints for submission operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
	limits     UploadLimits
	trustProxy bool
}

// NewHandler creates a Handler. trustProxy controls whether X-Forwarded-For
// is used for the recorded client address.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	limits UploadLimits,
	trustProxy bool,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "submissions"),
		pagination: pagination,
		limits:     limits,
		trustProxy: trustProxy,
	}
}

// Routes returns the route group for submission endpoints. createMiddleware
// wraps only the create route.
func (h *Handler) Routes(createMiddleware ...func(http.Handler) http.Handler) routes.Group {
	return routes.Group{
		Prefix: "/submissions",
		Tags:   []string{"Submissions"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: ops.List},
			{Method: "POST", Pattern: "", Handler: h.Create, Middleware: createMiddleware, OpenAPI: ops.Create},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats, OpenAPI: ops.Stats},
			{Method: "GET", Pattern: "/email/{email}", Handler: h.FindByEmail, OpenAPI: ops.FindByEmail},
			{Method: "GET", Pattern: "/files/{fileId}", Handler: h.Download, OpenAPI: ops.Download},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: ops.Find},
			{Method: "PATCH", Pattern: "/{id}/status", Handler: h.UpdateStatus, OpenAPI: ops.UpdateStatus},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: ops.Delete},
		},
	}
}

type createResponse struct {
	SubmissionID string      `json:"submissionId"`
	Submission   *Submission `json:"submission"`
	Warnings     []string    `json:"warnings,omitempty"`
}

type listResponse struct {
	Submissions []Submission    `json:"submissions"`
	Pagination  pagination.Meta `json:"pagination"`
}

type emailResponse struct {
	Email       string       `json:"email"`
	Count       int          `json:"count"`
	Submissions []Submission `json:"submissions"`
}

// Create accepts a multipart form (or a JSON body without files) and creates a submission.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.parseCreate(w, r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondData(w, http.StatusCreated, "Submission created successfully", createResponse{
		SubmissionID: result.Submission.SubmissionID,
		Submission:   result.Submission,
		Warnings:     result.Warnings,
	})
}

// List returns a filtered, paginated page of submissions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondData(w, http.StatusOK, "", listResponse{
		Submissions: result.Data,
		Pagination:  result.Meta,
	})
}

// Find returns a submission by internal or public id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	sub, err := h.sys.Find(r.Context(), ParseLookup(r.PathValue("id")))
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondData(w, http.StatusOK, "", sub)
}

// FindByEmail returns every submission made from an email address.
func (h *Handler) FindByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.PathValue("email")))

	subs, err := h.sys.FindByEmail(r.Context(), email)
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondData(w, http.StatusOK, "", emailResponse{
		Email:       email,
		Count:       len(subs),
		Submissions: subs,
	})
}

// Stats returns submission counts by status, urgency, region, and type.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sys.Stats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondData(w, http.StatusOK, "", stats)
}

// UpdateStatus applies a review decision from a JSON body.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var cmd StatusCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	sub, err := h.sys.UpdateStatus(r.Context(), ParseLookup(r.PathValue("id")), cmd)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && len(verr.Errors) > 0 {
			handlers.RespondValidation(w, h.logger, verr.Errors[0], verr.Errors)
			return
		}
		h.respondError(w, err)
		return
	}

	handlers.RespondData(w, http.StatusOK, "Submission status updated successfully", sub)
}

// Delete removes a submission and its attachments.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Delete(r.Context(), ParseLookup(r.PathValue("id"))); err != nil {
		h.respondError(w, err)
		return
	}

	handlers.RespondData(w, http.StatusOK, "Submission deleted successfully", nil)
}

// Download streams an attachment's bytes.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("fileId"))
	if err != nil {
		h.respondError(w, attachments.ErrNotFound)
		return
	}

	obj, body, err := h.sys.Attachment(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.SizeBytes, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": obj.OriginalName,
	}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("attachment stream interrupted", "file_id", id, "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		handlers.RespondValidation(w, h.logger, "Validation failed", verr.Errors)
		return
	}
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func (h *Handler) parseCreate(w http.ResponseWriter, r *http.Request) (CreateCommand, error) {
	cmd := CreateCommand{
		Client: ClientMeta{
			IPAddress: middleware.ClientAddr(r, h.trustProxy),
			UserAgent: r.UserAgent(),
		},
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		r.Body = http.MaxBytesReader(w, r.Body, formOverhead)
		if err := json.NewDecoder(r.Body).Decode(&cmd.Fields); err != nil {
			return cmd, fmt.Errorf("%w: malformed JSON body", ErrValidation)
		}
		return cmd, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit())
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return cmd, fmt.Errorf("%w: request exceeds %s", ErrFileTooLarge, formatting.FormatBytes(maxErr.Limit, 0))
		}
		return cmd, fmt.Errorf("%w: malformed multipart form", ErrInvalidFile)
	}
	defer r.MultipartForm.RemoveAll()

	// Only body values count; query parameters never fill form fields.
	cmd.Fields = Fields{
		FullName:       r.PostFormValue("fullName"),
		Email:          r.PostFormValue("email"),
		Phone:          r.PostFormValue("phone"),
		Position:       r.PostFormValue("position"),
		Branch:         r.PostFormValue("branch"),
		Region:         r.PostFormValue("region"),
		SubmissionType: r.PostFormValue("submissionType"),
		Subject:        r.PostFormValue("subject"),
		Description:    r.PostFormValue("description"),
		Urgency:        r.PostFormValue("urgency"),
	}

	headers := r.MultipartForm.File["files"]
	if h.limits.MaxFiles > 0 && len(headers) > h.limits.MaxFiles {
		return cmd, fmt.Errorf("%w: at most %d files are allowed", ErrInvalidFile, h.limits.MaxFiles)
	}

	for _, fh := range headers {
		if h.limits.MaxFileSize > 0 && fh.Size > h.limits.MaxFileSize {
			return cmd, fmt.Errorf("%w: %s is larger than %s", ErrFileTooLarge, fh.Filename, formatting.FormatBytes(h.limits.MaxFileSize, 0))
		}

		in, err := h.readFile(fh)
		if err != nil {
			return cmd, err
		}
		cmd.Files = append(cmd.Files, in)
	}

	return cmd, nil
}

func (h *Handler) readFile(fh *multipart.FileHeader) (FileInput, error) {
	f, err := fh.Open()
	if err != nil {
		return FileInput{}, fmt.Errorf("%w: %s", ErrInvalidFile, fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return FileInput{}, fmt.Errorf("%w: %s", ErrInvalidFile, fh.Filename)
	}

	contentType := detectContentType(fh.Header.Get("Content-Type"), data)

	return FileInput{
		Name:        fh.Filename,
		ContentType: contentType,
		Data:        data,
		PageCount:   extractPDFPageCount(h.logger, data, contentType),
	}, nil
}

// bodyLimit is the largest request body a create call may send.
func (h *Handler) bodyLimit() int64 {
	files := max(h.limits.MaxFiles, 1)
	return int64(files)*h.limits.MaxFileSize + formOverhead
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	ct, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return ct
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
