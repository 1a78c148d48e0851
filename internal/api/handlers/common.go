package handlers

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error string `json:"error" example:"session not found"`
}

// SuccessResponse is the standard acknowledgement body
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
}
