package apierr

import "fmt"

// Codes map the engine's failure taxonomy onto API responses.
const (
	CodeValidationFailed  = "validation_failed"
	CodeGenerationFailed  = "generation_failed"
	CodePersistenceFailed = "persistence_failed"
	CodeConflict          = "conflict"
	CodeNotFound          = "not_found"
	CodeEntitlement       = "entitlement_required"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
