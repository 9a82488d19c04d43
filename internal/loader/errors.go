package loader

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"object-mapper/internal/mapper"
	"object-mapper/internal/payload"
)

var (
	// ErrInvalidBaseURL is returned by New for an unusable base URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")
	// ErrNoSerializer is returned when an object body is sent without a serializer.
	ErrNoSerializer = errors.New("object bodies need a serializer")
)

// ResponseError is returned for 4xx and 5xx responses. Messages come from the
// objects the error mapping produced, or the status text when nothing mapped.
type ResponseError struct {
	StatusCode int
	Messages   []string
	// Result holds the objects mapped with the error context, if any.
	Result *mapper.Result
	Body   []byte
}

func (e *ResponseError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("request failed with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, strings.Join(e.Messages, ", "))
}

// IsClientError reports a 4xx status.
func (e *ResponseError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// message turns a mapped error object into text.
func message(obj any) string {
	switch x := obj.(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	case *payload.Object:
		var out string

		x.Range(func(_ string, v payload.Value) bool {
			if s, ok := v.AsString(); ok {
				out = s
				return false
			}

			return true
		})

		if out == "" {
			out = payload.ObjectValue(x).String()
		}

		return out
	default:
		return fmt.Sprint(x)
	}
}
