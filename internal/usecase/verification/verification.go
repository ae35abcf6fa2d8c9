package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"verification-service/internal/domain"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type VerificationUsecase struct {
	repo       submissionRepository
	fileRepo   fileRepository
	producer   taskProducer
	normalizer imageNormalizer
	logger     *zlog.Zerolog
	retries    retry.Strategy
}

func NewVerificationUsecase(repo submissionRepository, fileRepo fileRepository, producer taskProducer, normalizer imageNormalizer, logger *zlog.Zerolog, retries retry.Strategy) *VerificationUsecase {
	return &VerificationUsecase{
		repo:       repo,
		fileRepo:   fileRepo,
		producer:   producer,
		normalizer: normalizer,
		logger:     logger,
		retries:    retries,
	}
}

// UploadResult is what a successful proof upload reports back to the caller.
type UploadResult struct {
	SubmissionID string
	PublicID     string
	URL          string
	Width        int
	Height       int
	Bytes        int
	Quality      int
}

// SubmitProof re-compresses the received bytes, stores the result and records
// the audit and submission rows. The store write, audit insert and submission
// insert are strictly ordered and each failure aborts the request. The three
// writes are not atomic: a failure mid-sequence leaves the earlier writes in
// place (an orphaned object or an audit row without a submission), which is
// an accepted operational cost; each step logs enough to reconcile manually.
func (u *VerificationUsecase) SubmitProof(ctx context.Context, data []byte, mimeType, projectID, userID string) (*UploadResult, error) {
	// Always normalize server-side, even if the payload already fits the
	// byte budget. Client claims are not trusted.
	img, err := u.normalizer.Normalize(data, mimeType)
	if err != nil {
		return nil, err
	}

	publicID := fmt.Sprintf("%s-%d", projectID, time.Now().UnixMilli())
	objectPath := fmt.Sprintf("%s%s/%s.jpg", domain.PathPrefixProofs, projectID, publicID)

	url, err := u.fileRepo.SaveProof(ctx, objectPath, img.Data)
	if err != nil {
		u.logger.Error().Err(err).Str("project_id", projectID).Str("path", objectPath).Msg("Failed to store proof image")
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	audit := &domain.VerificationAudit{
		ProjectID:  projectID,
		ImageURL:   url,
		UploadedBy: userID,
		CreatedAt:  time.Now(),
	}
	if err := u.repo.InsertAudit(ctx, audit); err != nil {
		u.logger.Error().Err(err).Str("project_id", projectID).Str("url", url).Msg("Failed to insert audit row")
		return nil, fmt.Errorf("%w: audit insert: %v", ErrRecordFailure, err)
	}

	sub := &domain.Submission{
		ProjectID:   projectID,
		UserID:      userID,
		ImageURL:    url,
		Status:      domain.StatusPending,
		SubmittedAt: time.Now(),
	}
	if err := u.repo.InsertSubmission(ctx, sub); err != nil {
		u.logger.Error().Err(err).Str("project_id", projectID).Str("audit_id", audit.ID).Msg("Failed to insert submission row")
		return nil, fmt.Errorf("%w: submission insert: %v", ErrRecordFailure, err)
	}

	// Mirroring the URL onto the project row is best-effort; the audit and
	// submission rows are the authoritative trail.
	if err := u.repo.SetProjectProofPhoto(ctx, projectID, url); err != nil {
		u.logger.Warn().Err(err).Str("project_id", projectID).Msg("Failed to update project proof photo")
	}

	u.enqueueThumbnail(ctx, sub.ID, projectID, objectPath)

	u.logger.Info().
		Str("submission_id", sub.ID).
		Str("project_id", projectID).
		Str("user_id", userID).
		Int("bytes", len(img.Data)).
		Int("quality", img.Quality).
		Msg("Proof uploaded")

	return &UploadResult{
		SubmissionID: sub.ID,
		PublicID:     publicID,
		URL:          url,
		Width:        img.Width,
		Height:       img.Height,
		Bytes:        len(img.Data),
		Quality:      img.Quality,
	}, nil
}

// Review writes a review decision onto a submission. Statuses are matched
// case-insensitively against the two allowed literals. Reviewing an
// already-reviewed submission overwrites the earlier decision; the project
// row is not touched.
func (u *VerificationUsecase) Review(ctx context.Context, submissionID, status, reviewerID string) error {
	st := domain.SubmissionStatus(strings.ToLower(strings.TrimSpace(status)))
	if !domain.ValidReviewStatus(st) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	sub, err := u.repo.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}

	if err := u.repo.UpdateReview(ctx, sub.ID, st, reviewerID, time.Now()); err != nil {
		u.logger.Error().Err(err).Str("submission_id", sub.ID).Msg("Failed to write review")
		return fmt.Errorf("%w: review update: %v", ErrRecordFailure, err)
	}

	u.logger.Info().
		Str("submission_id", sub.ID).
		Str("status", string(st)).
		Str("reviewed_by", reviewerID).
		Msg("Submission reviewed")

	return nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListSubmissions returns a page of a project's submissions, newest first.
func (u *VerificationUsecase) ListSubmissions(ctx context.Context, projectID string, limit, offset int) ([]domain.Submission, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	subs, err := u.repo.ListByProject(ctx, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list submissions: %v", ErrRecordFailure, err)
	}
	return subs, nil
}

func (u *VerificationUsecase) enqueueThumbnail(ctx context.Context, submissionID, projectID, objectPath string) {
	task := &domain.ThumbnailTask{
		SubmissionID: submissionID,
		ProjectID:    projectID,
		ObjectPath:   objectPath,
	}

	value, err := json.Marshal(task)
	if err != nil {
		u.logger.Warn().Err(err).Str("submission_id", submissionID).Msg("Failed to marshal thumbnail task")
		return
	}

	if err := u.producer.Send(ctx, u.retries, []byte(submissionID), value); err != nil {
		u.logger.Warn().Err(err).Str("submission_id", submissionID).Msg("Failed to enqueue thumbnail task")
	}
}
