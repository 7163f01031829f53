package weather

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Kind classifies failures surfaced by the upstream clients.
type Kind int

const (
	// KindUpstream covers transport failures, timeouts and non-2xx responses.
	KindUpstream Kind = iota
	// KindNotFound means the geocoder had no match for the requested city.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	default:
		return "upstream"
	}
}

// Error is returned by every upstream call. Status is used directly as the
// HTTP response code.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds the error returned when a city cannot be geocoded.
func NotFound(city string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: `City "` + city + `" not found.`,
	}
}

// statusError builds an upstream error for a non-2xx response.
func statusError(status int) *Error {
	return &Error{
		Kind:    KindUpstream,
		Status:  status,
		Message: fmt.Sprintf("request failed with status code %d", status),
	}
}

// transportError wraps err as an upstream failure. The *url.Error layer is
// peeled off so the request URL, which carries the API key, is not echoed.
func transportError(err error) *Error {
	var we *Error
	if errors.As(err, &we) {
		return we
	}

	msg := err.Error()
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		msg = ue.Err.Error()
	}

	return &Error{
		Kind:    KindUpstream,
		Status:  http.StatusInternalServerError,
		Message: msg,
		Err:     err,
	}
}
