package submissions

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/intake/pkg/formatting"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	scriptPattern = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	iframePattern = regexp.MustCompile(`(?is)<iframe\b.*?</iframe>`)
)

// Validator checks submission input before anything is persisted.
type Validator struct {
	validate *validator.Validate
	limits   UploadLimits
}

// NewValidator creates a Validator enforcing the given upload limits.
func NewValidator(limits UploadLimits) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("email_basic", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return Region(fl.Field().String()).Valid()
	})
	v.RegisterValidation("submission_type", func(fl validator.FieldLevel) bool {
		return SubmissionType(fl.Field().String()).Valid()
	})
	v.RegisterValidation("urgency", func(fl validator.FieldLevel) bool {
		return Urgency(fl.Field().String()).Valid()
	})

	return &Validator{validate: v, limits: limits}
}

// Sanitize removes script and iframe blocks from every text field, trims
// surrounding whitespace, and lowercases the email.
func Sanitize(f Fields) Fields {
	f.FullName = clean(f.FullName)
	f.Email = strings.ToLower(clean(f.Email))
	f.Phone = clean(f.Phone)
	f.Position = clean(f.Position)
	f.Branch = clean(f.Branch)
	f.Region = clean(f.Region)
	f.SubmissionType = clean(f.SubmissionType)
	f.Subject = clean(f.Subject)
	f.Description = clean(f.Description)
	f.Urgency = clean(f.Urgency)
	return f
}

func clean(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = iframePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Files checks the count, size, and type of uploaded files. Oversized files
// return ErrFileTooLarge; other problems return ErrInvalidFile.
func (v *Validator) Files(files []FileInput) error {
	if v.limits.MaxFiles > 0 && len(files) > v.limits.MaxFiles {
		return fmt.Errorf("%w: at most %d files are allowed", ErrInvalidFile, v.limits.MaxFiles)
	}

	for _, f := range files {
		if v.limits.MaxFileSize > 0 && int64(len(f.Data)) > v.limits.MaxFileSize {
			return fmt.Errorf("%w: %s is larger than %s", ErrFileTooLarge, f.Name, formatting.FormatBytes(v.limits.MaxFileSize, 0))
		}
		if !v.limits.Allows(f.ContentType) {
			return fmt.Errorf(
				"%w: Invalid file type. Only PDF, DOC, DOCX, XLS, XLSX, JPG, PNG are allowed.",
				ErrInvalidFile,
			)
		}
	}

	return nil
}

// Fields validates sanitized form values and returns a *ValidationError
// listing one message per failing field.
func (v *Validator) Fields(f Fields) error {
	err := v.validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate fields: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &ValidationError{Errors: msgs}
}

// Status validates a review decision.
func (v *Validator) Status(cmd StatusCommand) error {
	s := strings.TrimSpace(cmd.Status)
	if s == "" {
		return &ValidationError{Errors: []string{"Status is required"}}
	}
	if !Status(s).Valid() {
		return &ValidationError{Errors: []string{invalidStatusMessage()}}
	}
	return nil
}

var requiredMessages = map[string]string{
	"fullName":       "Full name is required",
	"email":          "Valid email address is required",
	"phone":          "Phone number is required",
	"position":       "Position/Title is required",
	"branch":         "Branch/Church name is required",
	"region":         "Region is required",
	"submissionType": "Submission type is required",
	"subject":        "Subject is required",
	"description":    "Description is required",
}

var maxLabels = map[string]string{
	"fullName":    "Full name",
	"subject":     "Subject",
	"description": "Description",
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required", "email_basic":
		if msg, ok := requiredMessages[field]; ok {
			return msg
		}
	case "max":
		if label, ok := maxLabels[field]; ok {
			return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
		}
	case "region":
		return "Invalid region. Must be one of: " + joinValues(Regions)
	case "submission_type":
		return "Invalid submission type. Must be one of: " + joinValues(SubmissionTypes)
	case "urgency":
		return "Invalid urgency. Must be one of: " + joinValues(Urgencies)
	}

	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func invalidStatusMessage() string {
	return "Invalid status. Must be one of: " + joinValues(Statuses)
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
