package models

// uniform error responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// OperationResult is the {success, message} shape returned by mutations that
// can partially fail without being an API error (e.g. stopping an instance
// whose container is already gone).
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
