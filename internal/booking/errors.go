package booking

import "errors"

var (
	// ErrSessionNotFound is returned when Book, Cancel or AttachChannelMessage
	// target a session that was never ensured.
	ErrSessionNotFound = errors.New("booking: session not found")
	// ErrInvalidAction is returned when an inbound action payload is malformed.
	ErrInvalidAction = errors.New("booking: invalid action")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAction):
		return "invalid_action"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
