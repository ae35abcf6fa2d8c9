package verification

import (
	"context"
	"time"

	"verification-service/internal/domain"

	"github.com/wb-go/wbf/retry"
)

type submissionRepository interface {
	InsertAudit(ctx context.Context, audit *domain.VerificationAudit) error
	InsertSubmission(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	UpdateReview(ctx context.Context, id string, status domain.SubmissionStatus, reviewerID string, reviewedAt time.Time) error
	SetProjectProofPhoto(ctx context.Context, projectID, url string) error
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]domain.Submission, error)
}

type fileRepository interface {
	SaveProof(ctx context.Context, path string, data []byte) (string, error)
}

type taskProducer interface {
	Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

type imageNormalizer interface {
	Normalize(data []byte, mimeType string) (*domain.NormalizedImage, error)
}
