package docservice

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/pi-generator/internal/domain/order"
)

// Kind classifies the failure of a delivery attempt.
type Kind int

const (
	// KindNone means no error.
	KindNone Kind = iota
	// KindValidation is a user input defect caught before any network call.
	KindValidation
	// KindTimeout means the service did not answer within the time budget.
	KindTimeout
	// KindService means the service answered with a non-success status.
	KindService
	// KindUnexpected covers every other failure.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindTimeout:
		return "timeout"
	case KindService:
		return "service"
	default:
		return "unexpected"
	}
}

// ErrTimeout is returned when no response headers arrive before the client
// timeout fires. The in-flight request is cancelled.
var ErrTimeout = errors.New("request timed out")

// ServiceError is a non-success response from the document service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// UnexpectedError wraps a transport failure that is neither a timeout nor a
// service response.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// KindOf classifies err.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}
	if errors.Is(err, ErrTimeout) {
		return KindTimeout
	}
	var sErr *ServiceError
	if errors.As(err, &sErr) {
		return KindService
	}
	return KindUnexpected
}

// fallbackMessage is used when a failed response carries no usable message.
func fallbackMessage(status int) string {
	return fmt.Sprintf("Request failed (%d)", status)
}
