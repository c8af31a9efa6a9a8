package common

import "errors"

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// AnalysisError represents audio analysis errors
type AnalysisError struct {
	Op      string `json:"op"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeModel        = "MODEL_FAILED"
)

// NewAnalysisError creates a new analysis error
func NewAnalysisError(op, code, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Op:      op,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an analysis error for rejected caller input
func NewInvalidInputError(op, message string) *AnalysisError {
	return NewAnalysisError(op, ErrCodeInvalidInput, message, nil)
}

// IsInvalidInput reports whether err is an INVALID_INPUT analysis error
func IsInvalidInput(err error) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeInvalidInput
	}
	return false
}
