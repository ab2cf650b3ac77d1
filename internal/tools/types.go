package tools

// Status is the outcome of a tool invocation.
type Status string

// Tool invocation outcomes.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Error codes returned to the model inside a Result.
const (
	ErrCodeValidation = "validation"
	ErrCodeConfig     = "config"
	ErrCodeNetwork    = "network"
	ErrCodeIO         = "io"
)

// Error is a structured tool failure the model can read and explain.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the uniform envelope every tool returns. Failures are data,
// not Go errors: a broken tool call degrades the answer, never the turn.
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *Error         `json:"error,omitempty"`
}

// Errorf builds an error Result from a code and message.
func Errorf(code, message string) Result {
	return Result{
		Status:  StatusError,
		Message: message,
		Error:   &Error{Code: code, Message: message},
	}
}
