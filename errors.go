package stream_resolver

import "errors"

var (
	// ErrExtractionFailed matches every *ExtractionError.
	ErrExtractionFailed = errors.New("extraction failed")

	ErrToolFailed       = errors.New("extraction tool failed")
	ErrNoStreams        = errors.New("no streams found")
	ErrProcessTimeout   = errors.New("process timeout")
	ErrToolNotInstalled = errors.New("tool not installed")
)

// ExtractionError is the single error type returned when stream extraction fails. Error() is exactly Message, and
// errors.Is matches both ErrExtractionFailed and the Reason.
type ExtractionError struct {
	Reason  error
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed || (e.Reason != nil && target == e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Reason
}

// NewExtractionError creates an ExtractionError, defaulting Message to the text of reason.
func NewExtractionError(reason error, message string) *ExtractionError {
	if message == "" && reason != nil {
		message = reason.Error()
	}
	return &ExtractionError{Reason: reason, Message: message}
}
