package dto

// ErrorResponse is the JSON body for HTTP error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}
