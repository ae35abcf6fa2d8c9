package normalizer

import "errors"

var (
	ErrUnsupportedType   = errors.New("unsupported image type")
	ErrDecodeFailed      = errors.New("failed to decode image")
	ErrCompressionFailed = errors.New("unable to compress image below size target")
)
