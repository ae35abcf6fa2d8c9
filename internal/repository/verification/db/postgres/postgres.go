package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"verification-service/internal/domain"
	"verification-service/internal/repository/verification"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type SubmissionsRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewSubmissionsRepository(db *dbpg.DB, retries retry.Strategy) *SubmissionsRepository {
	return &SubmissionsRepository{
		db:      db,
		retries: retries,
	}
}

// InsertAudit appends one row to the audit trail. Audit rows are never
// updated or deleted.
func (r *SubmissionsRepository) InsertAudit(ctx context.Context, audit *domain.VerificationAudit) error {
	query := `
		INSERT INTO verification_audits (id, project_id, image_url, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if audit.ID == "" {
		audit.ID = uuid.New().String()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		audit.ID,
		audit.ProjectID,
		audit.ImageURL,
		audit.UploadedBy,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}

	return nil
}

func (r *SubmissionsRepository) InsertSubmission(ctx context.Context, sub *domain.Submission) error {
	query := `
		INSERT INTO submissions (id, project_id, user_id, image_url, thumbnail_path, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		sub.ID,
		sub.ProjectID,
		sub.UserID,
		sub.ImageURL,
		sub.ThumbnailPath,
		sub.Status,
		sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

func (r *SubmissionsRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	query := `
		SELECT id, project_id, user_id, image_url, thumbnail_path,
		       status, submitted_at, reviewed_by, reviewed_at
		FROM submissions
		WHERE id = $1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query submission: %w", err)
	}

	var sub domain.Submission
	var reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	err = row.Scan(
		&sub.ID,
		&sub.ProjectID,
		&sub.UserID,
		&sub.ImageURL,
		&sub.ThumbnailPath,
		&sub.Status,
		&sub.SubmittedAt,
		&reviewedBy,
		&reviewedAt,
	)

	if err == sql.ErrNoRows {
		return nil, verification.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}

	sub.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		sub.ReviewedAt = &t
	}

	return &sub, nil
}

// UpdateReview writes the review decision. A second review on the same
// submission overwrites the first.
func (r *SubmissionsRepository) UpdateReview(ctx context.Context, id string, status domain.SubmissionStatus, reviewerID string, reviewedAt time.Time) error {
	query := `UPDATE submissions SET status = $1, reviewed_by = $2, reviewed_at = $3 WHERE id = $4`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, status, reviewerID, reviewedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return verification.ErrSubmissionNotFound
	}

	return nil
}

func (r *SubmissionsRepository) SetThumbnailPath(ctx context.Context, id, path string) error {
	query := `UPDATE submissions SET thumbnail_path = $1 WHERE id = $2`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, path, id)
	if err != nil {
		return fmt.Errorf("failed to set thumbnail path: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return verification.ErrSubmissionNotFound
	}

	return nil
}

// SetProjectProofPhoto mirrors the latest proof URL onto the project row.
// The authoritative trail stays in submissions and verification_audits.
func (r *SubmissionsRepository) SetProjectProofPhoto(ctx context.Context, projectID, url string) error {
	query := `UPDATE projects SET proof_photo_url = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, url, time.Now(), projectID)
	if err != nil {
		return fmt.Errorf("failed to update project proof photo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return verification.ErrProjectNotFound
	}

	return nil
}

// ListByProject returns submissions for a project, newest first.
func (r *SubmissionsRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]domain.Submission, error) {
	query := `
		SELECT id, project_id, user_id, image_url, thumbnail_path,
		       status, submitted_at, reviewed_by, reviewed_at
		FROM submissions
		WHERE project_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		var reviewedBy sql.NullString
		var reviewedAt sql.NullTime
		err := rows.Scan(
			&sub.ID,
			&sub.ProjectID,
			&sub.UserID,
			&sub.ImageURL,
			&sub.ThumbnailPath,
			&sub.Status,
			&sub.SubmittedAt,
			&reviewedBy,
			&reviewedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.ReviewedBy = reviewedBy.String
		if reviewedAt.Valid {
			t := reviewedAt.Time
			sub.ReviewedAt = &t
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return subs, nil
}
