package dto

type ReviewRequest struct {
	SubmissionID string `json:"submissionId" validate:"required"`
	Status       string `json:"status" validate:"required"`
}
