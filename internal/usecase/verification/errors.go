package verification

import "errors"

var (
	ErrInvalidStatus = errors.New("invalid review status")
	ErrStoreFailure  = errors.New("object store write failed")
	ErrRecordFailure = errors.New("record write failed")
)
