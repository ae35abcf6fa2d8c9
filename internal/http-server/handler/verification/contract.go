package verification

import (
	"context"

	"verification-service/internal/domain"
	uc "verification-service/internal/usecase/verification"
)

type verificationUsecase interface {
	SubmitProof(ctx context.Context, data []byte, mimeType, projectID, userID string) (*uc.UploadResult, error)
	Review(ctx context.Context, submissionID, status, reviewerID string) error
	ListSubmissions(ctx context.Context, projectID string, limit, offset int) ([]domain.Submission, error)
}
