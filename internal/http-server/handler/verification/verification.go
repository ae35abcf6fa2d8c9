package verification

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"verification-service/internal/domain"
	"verification-service/internal/http-server/handler/verification/dto"
	"verification-service/internal/http-server/middleware"
	repo "verification-service/internal/repository/verification"
	"verification-service/internal/usecase/normalizer"
	uc "verification-service/internal/usecase/verification"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory = 32 << 20
)

type VerificationHandler struct {
	usecase  verificationUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewVerificationHandler(usecase verificationUsecase, logger *zlog.Zerolog) *VerificationHandler {
	return &VerificationHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

// UploadVerification accepts a multipart proof photo for a project, re-runs
// the compression pipeline server-side and records the submission. The raw
// body is capped well above the post-compression target so decode work stays
// bounded.
func (h *VerificationHandler) UploadVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Missing Authorization token", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("File is too large (max %d MB)", domain.MaxUploadSize/(1024*1024)), nil)
			return
		}
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	projectID := r.FormValue("projectId")
	if projectID == "" {
		h.respondError(w, http.StatusBadRequest, "Missing projectId", nil)
		return
	}

	file, handler, err := r.FormFile("image")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "No file uploaded", nil)
		return
	}
	defer file.Close()

	// Gate on size and declared type before touching the pixel data.
	if err := h.validateFile(handler); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", handler.Filename).Msg("Failed to read file")
		h.respondError(w, http.StatusInternalServerError, "Failed to read file", err)
		return
	}

	contentType := handler.Header.Get("Content-Type")

	result, err := h.usecase.SubmitProof(ctx, fileBytes, contentType, projectID, userID)
	if err != nil {
		h.handleUploadError(w, err, projectID)
		return
	}

	h.logger.Info().
		Str("submission_id", result.SubmissionID).
		Str("project_id", projectID).
		Str("user_id", userID).
		Int("bytes", result.Bytes).
		Msg("Verification photo uploaded")

	h.respondJSON(w, http.StatusOK, dto.UploadResponse{
		URL:          result.URL,
		Width:        result.Width,
		Height:       result.Height,
		Bytes:        result.Bytes,
		Quality:      result.Quality,
		PublicID:     result.PublicID,
		SubmissionID: result.SubmissionID,
	})
}

// ReviewSubmission records an approve/reject decision on a submission.
func (h *VerificationHandler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reviewerID, ok := middleware.UserID(ctx)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Missing Authorization token", nil)
		return
	}

	var req dto.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "submissionId and status are required", nil)
		return
	}

	if err := h.usecase.Review(ctx, req.SubmissionID, req.Status, reviewerID); err != nil {
		h.handleReviewError(w, err, req.SubmissionID)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ReviewResponse{Success: true})
}

// ListProjectSubmissions returns a project's submissions for the review
// screen, newest first.
func (h *VerificationHandler) ListProjectSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := middleware.UserID(ctx); !ok {
		h.respondError(w, http.StatusUnauthorized, "Missing Authorization token", nil)
		return
	}

	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		h.respondError(w, http.StatusBadRequest, "Missing projectId", nil)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	subs, err := h.usecase.ListSubmissions(ctx, projectID, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Str("project_id", projectID).Msg("Failed to list submissions")
		h.respondError(w, http.StatusInternalServerError, "Failed to list submissions", err)
		return
	}

	resp := dto.SubmissionListResponse{Submissions: make([]dto.SubmissionResponse, 0, len(subs))}
	for _, sub := range subs {
		item := dto.SubmissionResponse{
			ID:            sub.ID,
			ProjectID:     sub.ProjectID,
			ImageURL:      sub.ImageURL,
			ThumbnailPath: sub.ThumbnailPath,
			Status:        string(sub.Status),
			SubmittedAt:   sub.SubmittedAt.Format(time.RFC3339),
			ReviewedBy:    sub.ReviewedBy,
		}
		if sub.ReviewedAt != nil {
			item.ReviewedAt = sub.ReviewedAt.Format(time.RFC3339)
		}
		resp.Submissions = append(resp.Submissions, item)
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *VerificationHandler) validateFile(handler *multipart.FileHeader) error {
	if handler.Size > domain.MaxUploadSize {
		return fmt.Errorf("File is too large (max %d MB)", domain.MaxUploadSize/(1024*1024))
	}

	contentType := strings.ToLower(handler.Header.Get("Content-Type"))
	if !domain.AllowedMimeTypes[contentType] {
		return fmt.Errorf("Invalid file type. Allowed: JPG, JPEG, PNG")
	}

	return nil
}

func (h *VerificationHandler) handleUploadError(w http.ResponseWriter, err error, projectID string) {
	switch {
	case errors.Is(err, normalizer.ErrUnsupportedType):
		h.logger.Warn().Str("project_id", projectID).Msg("Unsupported file type")
		h.respondError(w, http.StatusBadRequest, "Invalid file type. Allowed: JPG, JPEG, PNG", nil)
	case errors.Is(err, normalizer.ErrDecodeFailed):
		h.logger.Warn().Err(err).Str("project_id", projectID).Msg("Undecodable image")
		h.respondError(w, http.StatusBadRequest, "Unable to read image dimensions", nil)
	case errors.Is(err, normalizer.ErrCompressionFailed):
		h.logger.Warn().Str("project_id", projectID).Msg("Compression target not reachable")
		h.respondError(w, http.StatusBadRequest, "Unable to compress image below 500KB without excessive quality loss", nil)
	case errors.Is(err, uc.ErrStoreFailure):
		h.logger.Error().Err(err).Str("project_id", projectID).Msg("Object store write failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to store image", err)
	case errors.Is(err, uc.ErrRecordFailure):
		h.logger.Error().Err(err).Str("project_id", projectID).Msg("Record write failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to record submission", err)
	default:
		h.logger.Error().Err(err).Str("project_id", projectID).Msg("Upload failed")
		h.respondError(w, http.StatusInternalServerError, "Server error during upload", err)
	}
}

func (h *VerificationHandler) handleReviewError(w http.ResponseWriter, err error, submissionID string) {
	switch {
	case errors.Is(err, uc.ErrInvalidStatus):
		h.respondError(w, http.StatusBadRequest, "Status must be approved or rejected", nil)
	case errors.Is(err, repo.ErrSubmissionNotFound):
		h.logger.Info().Str("submission_id", submissionID).Msg("Submission not found")
		h.respondError(w, http.StatusNotFound, "Submission not found", nil)
	default:
		h.logger.Error().Err(err).Str("submission_id", submissionID).Msg("Review failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to review submission", err)
	}
}

func (h *VerificationHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *VerificationHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
