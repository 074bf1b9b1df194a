package submissions

import "github.com/JaimeStill/intake/pkg/openapi"

type operations struct {
	List         *openapi.Operation
	Create       *openapi.Operation
	Stats        *openapi.Operation
	Find         *openapi.Operation
	FindByEmail  *openapi.Operation
	Download     *openapi.Operation
	UpdateStatus *openapi.Operation
	Delete       *openapi.Operation
}

func enumOf[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func maxLen(n int) *int { return &n }

var idParam = openapi.PathParam("id", "Internal UUID or public SUB-YYYYMM-NNNN id")

var ops = operations{
	List: &openapi.Operation{
		Summary: "List submissions",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("status", "string", "Filter by status", false),
			openapi.QueryParam("region", "string", "Filter by region", false),
			openapi.QueryParam("urgency", "string", "Filter by urgency", false),
			openapi.QueryParam("submissionType", "string", "Filter by submission type", false),
			openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
			openapi.QueryParam("limit", "integer", "Results per page", false),
			openapi.QueryParam("sortBy", "string", "Sort field (default createdAt)", false),
			openapi.QueryParam("order", "string", "asc or desc (default desc)", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseEnvelope("Page of submissions", "SubmissionList"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create a submission",
		Description: "Accepts the form fields and up to the configured number of files in the files field.",
		RequestBody: openapi.RequestBodyMultipart(openapi.SchemaRef("SubmissionForm"), true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseEnvelope("Submission created", "CreateResult"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			429: openapi.ResponseRef("TooManyRequests"),
			502: openapi.ResponseRef("BadGateway"),
		},
	},
	Stats: &openapi.Operation{
		Summary: "Submission statistics",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseEnvelope("Counts by status, urgency, region, and type", "Stats"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a submission",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseEnvelope("Submission", "Submission"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	FindByEmail: &openapi.Operation{
		Summary:    "List submissions for an email address",
		Parameters: []*openapi.Parameter{openapi.PathParam("email", "Submitter email")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseEnvelope("Submissions for the address", "EmailSubmissions"),
		},
	},
	Download: &openapi.Operation{
		Summary:    "Download an attachment",
		Parameters: []*openapi.Parameter{openapi.PathParam("fileId", "Attachment object id")},
		Responses: map[int]*openapi.Response{
			200: {Description: "Attachment bytes"},
			404: openapi.ResponseRef("NotFound"),
			502: openapi.ResponseRef("BadGateway"),
		},
	},
	UpdateStatus: &openapi.Operation{
		Summary:     "Record a review decision",
		Parameters:  []*openapi.Parameter{idParam},
		RequestBody: openapi.RequestBodyJSON("StatusCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseEnvelope("Updated submission", "Submission"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete a submission and its attachments",
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: {Description: "Submission deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

// Schemas returns the component schemas referenced by the submission operations.
func Schemas() map[string]*openapi.Schema {
	str := func(desc string) *openapi.Schema {
		return &openapi.Schema{Type: "string", Description: desc}
	}
	dateTime := &openapi.Schema{Type: "string", Format: "date-time"}
	groups := &openapi.Schema{
		Type: "array",
		Items: &openapi.Schema{
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"_id":   {Type: "string"},
				"count": {Type: "integer"},
			},
		},
	}

	return map[string]*openapi.Schema{
		"Attachment": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"fileName":   str("Original file name"),
				"fileId":     {Type: "string", Format: "uuid"},
				"fileSize":   {Type: "integer"},
				"fileType":   str("Content type"),
				"uploadedAt": dateTime,
				"pageCount":  {Type: "integer", Description: "PDF page count when known"},
			},
		},
		"Submission": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"submissionId":   {Type: "string", Example: "SUB-202603-0042"},
				"fullName":       str(""),
				"email":          {Type: "string", Format: "email"},
				"phone":          str(""),
				"position":       str(""),
				"branch":         str(""),
				"region":         {Type: "string", Enum: enumOf(Regions)},
				"regionDisplay":  str("Region display name"),
				"submissionType": {Type: "string", Enum: enumOf(SubmissionTypes)},
				"subject":        str(""),
				"description":    str(""),
				"urgency":        {Type: "string", Enum: enumOf(Urgencies)},
				"urgencyDisplay": str("Urgency display name"),
				"files":          {Type: "array", Items: openapi.SchemaRef("Attachment")},
				"status":         {Type: "string", Enum: enumOf(Statuses)},
				"reviewedBy":     str(""),
				"reviewNotes":    str(""),
				"reviewedAt":     dateTime,
				"ipAddress":      str(""),
				"userAgent":      str(""),
				"createdAt":      dateTime,
				"updatedAt":      dateTime,
			},
		},
		"SubmissionForm": {
			Type:     "object",
			Required: []string{"fullName", "email", "phone", "position", "branch", "region", "submissionType", "subject", "description"},
			Properties: map[string]*openapi.Schema{
				"fullName":       {Type: "string", MaxLength: maxLen(100)},
				"email":          {Type: "string", Format: "email"},
				"phone":          str(""),
				"position":       str(""),
				"branch":         str(""),
				"region":         {Type: "string", Enum: enumOf(Regions)},
				"submissionType": {Type: "string", Enum: enumOf(SubmissionTypes)},
				"subject":        {Type: "string", MaxLength: maxLen(200)},
				"description":    {Type: "string", MaxLength: maxLen(5000)},
				"urgency":        {Type: "string", Enum: enumOf(Urgencies), Default: string(UrgencyNormal)},
				"files":          {Type: "array", Items: &openapi.Schema{Type: "string", Format: "binary"}},
			},
		},
		"CreateResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"submissionId": str("Public submission id"),
				"submission":   openapi.SchemaRef("Submission"),
				"warnings":     {Type: "array", Items: &openapi.Schema{Type: "string"}, Description: "Files that could not be stored"},
			},
		},
		"SubmissionList": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"submissions": {Type: "array", Items: openapi.SchemaRef("Submission")},
				"pagination":  openapi.SchemaRef("Pagination"),
			},
		},
		"EmailSubmissions": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"email":       str(""),
				"count":       {Type: "integer"},
				"submissions": {Type: "array", Items: openapi.SchemaRef("Submission")},
			},
		},
		"StatusCommand": {
			Type:     "object",
			Required: []string{"status"},
			Properties: map[string]*openapi.Schema{
				"status":      {Type: "string", Enum: enumOf(Statuses)},
				"reviewedBy":  str(""),
				"reviewNotes": str(""),
			},
		},
		"Stats": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"total":       {Type: "integer"},
				"pending":     {Type: "integer"},
				"underReview": {Type: "integer"},
				"approved":    {Type: "integer"},
				"urgent":      {Type: "integer"},
				"byRegion":    groups,
				"byType":      groups,
			},
		},
	}
}
