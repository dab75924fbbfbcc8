package types

// StatusResponse is a plain confirmation message.
type StatusResponse struct {
	Status string `json:"status" example:"Feedback submitted successfully!"`
}

// ErrorResponse documents the error body rendered by the error middleware.
type ErrorResponse struct {
	Type    string `json:"type" example:"VALIDATION_ERROR"`
	Message string `json:"message" example:"Invalid name"`
	Code    string `json:"code" example:"400"`
	Details string `json:"details,omitempty" example:"name must be between 1 and 50 characters"`
}
