package scans

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrNoSession = errors.New("no session")
)

const (
	ErrorCodeEmptyInput         = "EMPTY_INPUT"
	ErrorCodeMissingFile        = "MISSING_FILE"
	ErrorCodeEngineUnavailable  = "ENGINE_UNAVAILABLE"
	ErrorCodeNetworkUnreachable = "NETWORK_UNREACHABLE"
	ErrorCodeTimeout            = "TIMEOUT"
	ErrorCodeCancelled          = "CANCELLED"
	ErrorCodeSuperseded         = "SUPERSEDED"
	ErrorCodeInternal           = "INTERNAL_ERROR"
)

// ValidationError rejects a submission before any run is created. It is
// surfaced to the caller as a dismissible warning, never as a failed run.
type ValidationError struct {
	Code    string
	Warning string
}

func (e *ValidationError) Error() string { return e.Warning }

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
