package domain

// ThumbnailTask asks the worker to render a stamped reviewer thumbnail for a
// stored proof image.
type ThumbnailTask struct {
	SubmissionID string `json:"submission_id"`
	ProjectID    string `json:"project_id"`
	ObjectPath   string `json:"object_path"`
}

const (
	DefaultThumbnailSize = 320
	DefaultJPEGQuality   = 85
)
