package models

// ErrorResponse represents a generic API error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
