package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType   = errors.New("unsupported image type")
	ErrDecodeFailed      = errors.New("failed to decode image")
	ErrCompressionFailed = errors.New("unable to compress image below size target")
	ErrUnauthenticated   = errors.New("missing credential")
)

// APIError carries the server-supplied error text for a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("upload failed (%d): %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("upload failed (%d): %s", e.StatusCode, e.Message)
}
