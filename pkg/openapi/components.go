package openapi

import "maps"

func errorResponse(description string) *Response {
	return ResponseJSON(description, "Error")
}

// NewComponents creates Components with the shared error envelope and error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"success": {Type: "boolean", Example: false},
					"message": {Type: "string", Description: "Error message"},
					"error":   {Type: "string", Description: "Underlying fault detail (server errors only)"},
					"errors":  {Type: "array", Items: &Schema{Type: "string"}, Description: "Field-level validation messages"},
				},
			},
			"Pagination": {
				Type: "object",
				Properties: map[string]*Schema{
					"total": {Type: "integer", Description: "Records matching the filter"},
					"page":  {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"limit": {Type: "integer", Description: "Results per page", Example: 20},
					"pages": {Type: "integer", Description: "Total pages"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":      errorResponse("Invalid request"),
			"NotFound":        errorResponse("Resource not found"),
			"PayloadTooLarge": errorResponse("Upload exceeds the size limit"),
			"TooManyRequests": {
				Description: "Rate limit exceeded",
				Content: map[string]*MediaType{
					"application/json": {
						Schema: &Schema{
							Type: "object",
							Properties: map[string]*Schema{
								"success":    {Type: "boolean", Example: false},
								"message":    {Type: "string"},
								"retryAfter": {Type: "integer", Description: "Seconds until the window resets"},
							},
						},
					},
				},
			},
			"BadGateway": errorResponse("Attachment store fault"),
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
