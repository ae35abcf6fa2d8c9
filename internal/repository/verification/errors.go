package verification

import "errors"

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrStorageError       = errors.New("storage error")
)
