package domain

import "time"

type Submission struct {
	ID            string
	ProjectID     string
	UserID        string
	ImageURL      string
	ThumbnailPath string
	Status        SubmissionStatus
	SubmittedAt   time.Time
	ReviewedBy    string
	ReviewedAt    *time.Time
}

type VerificationAudit struct {
	ID         string
	ProjectID  string
	ImageURL   string
	UploadedBy string
	CreatedAt  time.Time
}

// NormalizedImage is the artifact produced by the compression pipeline.
// Data is always a JPEG no larger than TargetMaxBytes.
type NormalizedImage struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
	Scale   float64
}

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// ValidReviewStatus reports whether s is one of the two literals a reviewer
// may set. Comparison is done on the already-lowercased value.
func ValidReviewStatus(s SubmissionStatus) bool {
	return s == StatusApproved || s == StatusRejected
}

const (
	// MaxUploadSize bounds the raw request body before any decoding happens.
	// It is deliberately looser than TargetMaxBytes.
	MaxUploadSize = 5 << 20

	// TargetMaxBytes is the hard ceiling for a normalized proof image.
	TargetMaxBytes = 500 * 1024

	// MaxWidth is the largest width a normalized image may have. Smaller
	// images are never upscaled.
	MaxWidth = 1600

	QualityStart = 80
	QualityStep  = 5
	QualityFloor = 45
)

var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

const (
	PathPrefixProofs     = "verification-images/"
	PathPrefixThumbnails = "thumbnails/"
)
