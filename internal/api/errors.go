package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/model"
	"github.com/samcharles93/dscript/pkg/platform"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps a decode failure to a status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, platform.ErrUnknownPlatform),
		errors.Is(err, platform.ErrUnsupportedPlatformVersion):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, model.ErrNotImplemented):
		return http.StatusNotImplemented, "not_implemented_error"
	case errors.Is(err, chunk.ErrMalformedContainer),
		errors.Is(err, chunk.ErrNotChunk),
		errors.Is(err, model.ErrBadMagic),
		errors.Is(err, model.ErrMalformedPackage):
		return http.StatusUnprocessableEntity, "decode_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
