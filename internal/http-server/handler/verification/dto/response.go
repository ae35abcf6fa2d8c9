package dto

type UploadResponse struct {
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int    `json:"bytes"`
	Quality      int    `json:"quality"`
	PublicID     string `json:"public_id"`
	SubmissionID string `json:"submission_id"`
}

type ReviewResponse struct {
	Success bool `json:"success"`
}

type SubmissionResponse struct {
	ID            string `json:"id"`
	ProjectID     string `json:"projectId"`
	ImageURL      string `json:"imageUrl"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
	Status        string `json:"status"`
	SubmittedAt   string `json:"submittedAt"`
	ReviewedBy    string `json:"reviewedBy,omitempty"`
	ReviewedAt    string `json:"reviewedAt,omitempty"`
}

type SubmissionListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
