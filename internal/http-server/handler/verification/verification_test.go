package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"verification-service/internal/domain"
	"verification-service/internal/http-server/handler/verification/dto"
	"verification-service/internal/http-server/middleware"
	repo "verification-service/internal/repository/verification"
	"verification-service/internal/usecase/normalizer"
	uc "verification-service/internal/usecase/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type stubUsecase struct {
	submitCalls int
	reviewCalls int

	submitErr  error
	reviewErr  error
	listErr    error
	listResult []domain.Submission

	lastData      []byte
	lastMime      string
	lastProjectID string
	lastUserID    string
}

func (s *stubUsecase) SubmitProof(_ context.Context, data []byte, mimeType, projectID, userID string) (*uc.UploadResult, error) {
	s.submitCalls++
	s.lastData = data
	s.lastMime = mimeType
	s.lastProjectID = projectID
	s.lastUserID = userID
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &uc.UploadResult{
		SubmissionID: "sub-1",
		PublicID:     projectID + "-123",
		URL:          "https://cdn.example.com/verification-images/" + projectID + "/" + projectID + "-123.jpg",
		Width:        1600,
		Height:       1067,
		Bytes:        len(data),
		Quality:      75,
	}, nil
}

func (s *stubUsecase) Review(_ context.Context, _, _, _ string) error {
	s.reviewCalls++
	return s.reviewErr
}

func (s *stubUsecase) ListSubmissions(_ context.Context, _ string, _, _ int) ([]domain.Submission, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listResult, nil
}

func newHandler(t *testing.T) (*VerificationHandler, *stubUsecase) {
	t.Helper()
	zlog.Init()

	stub := &stubUsecase{}
	return NewVerificationHandler(stub, &zlog.Logger), stub
}

func multipartBody(t *testing.T, projectID, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	if projectID != "" {
		require.NoError(t, writer.WriteField("projectId", projectID))
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="proof.jpg"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func uploadRequest(t *testing.T, projectID, contentType string, payload []byte) *http.Request {
	t.Helper()

	body, formContentType := multipartBody(t, projectID, contentType, payload)
	req := httptest.NewRequest(http.MethodPost, "/api/upload-verification", body)
	req.Header.Set("Content-Type", formContentType)
	return req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUploadVerification_Success(t *testing.T) {
	h, stub := newHandler(t)

	rec := httptest.NewRecorder()
	h.UploadVerification(rec, uploadRequest(t, "proj-1", "image/jpeg", []byte("jpeg-bytes")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.submitCalls)
	assert.Equal(t, []byte("jpeg-bytes"), stub.lastData)
	assert.Equal(t, "image/jpeg", stub.lastMime)
	assert.Equal(t, "proj-1", stub.lastProjectID)
	assert.Equal(t, "user-1", stub.lastUserID)

	var resp dto.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sub-1", resp.SubmissionID)
	assert.Equal(t, "proj-1-123", resp.PublicID)
	assert.Equal(t, 1600, resp.Width)
}

func TestUploadVerification_MissingUser(t *testing.T) {
	h, stub := newHandler(t)

	body, formContentType := multipartBody(t, "proj-1", "image/jpeg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload-verification", body)
	req.Header.Set("Content-Type", formContentType)

	rec := httptest.NewRecorder()
	h.UploadVerification(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, stub.submitCalls)
}

func TestUploadVerification_OversizedBodyRejectedBeforeDecode(t *testing.T) {
	h, stub := newHandler(t)

	// 10 MB payload: double the hard cap, rejected while reading the body.
	rec := httptest.NewRecorder()
	h.UploadVerification(rec, uploadRequest(t, "proj-1", "image/jpeg", bytes.Repeat([]byte{0xAB}, 10<<20)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorBody(t, rec).Message, "too large")
	assert.Equal(t, 0, stub.submitCalls)
}

func TestUploadVerification_TypeGateBeforeRead(t *testing.T) {
	h, stub := newHandler(t)

	for _, contentType := range []string{"image/gif", "application/pdf", "text/plain"} {
		rec := httptest.NewRecorder()
		h.UploadVerification(rec, uploadRequest(t, "proj-1", contentType, []byte("payload")))

		assert.Equal(t, http.StatusBadRequest, rec.Code, "content type %q", contentType)
		assert.Equal(t, "Invalid file type. Allowed: JPG, JPEG, PNG", decodeErrorBody(t, rec).Message)
	}
	assert.Equal(t, 0, stub.submitCalls)
}

func TestUploadVerification_MissingProjectID(t *testing.T) {
	h, stub := newHandler(t)

	rec := httptest.NewRecorder()
	h.UploadVerification(rec, uploadRequest(t, "", "image/jpeg", []byte("payload")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing projectId", decodeErrorBody(t, rec).Message)
	assert.Equal(t, 0, stub.submitCalls)
}

func TestUploadVerification_UsecaseErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unsupported type", normalizer.ErrUnsupportedType, http.StatusBadRequest, "Invalid file type. Allowed: JPG, JPEG, PNG"},
		{"decode failure", normalizer.ErrDecodeFailed, http.StatusBadRequest, "Unable to read image dimensions"},
		{"compression failure", normalizer.ErrCompressionFailed, http.StatusBadRequest, "Unable to compress image below 500KB without excessive quality loss"},
		{"store failure", fmt.Errorf("%w: minio down", uc.ErrStoreFailure), http.StatusInternalServerError, "Failed to store image"},
		{"record failure", fmt.Errorf("%w: db down", uc.ErrRecordFailure), http.StatusInternalServerError, "Failed to record submission"},
		{"unknown failure", errors.New("boom"), http.StatusInternalServerError, "Server error during upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, stub := newHandler(t)
			stub.submitErr = tt.err

			rec := httptest.NewRecorder()
			h.UploadVerification(rec, uploadRequest(t, "proj-1", "image/jpeg", []byte("payload")))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeErrorBody(t, rec).Message)
		})
	}
}

func TestListProjectSubmissions_Success(t *testing.T) {
	h, stub := newHandler(t)
	reviewedAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	stub.listResult = []domain.Submission{
		{
			ID:          "sub-2",
			ProjectID:   "proj-1",
			ImageURL:    "https://cdn.example.com/verification-images/proj-1/proj-1-2.jpg",
			Status:      domain.StatusPending,
			SubmittedAt: time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          "sub-1",
			ProjectID:   "proj-1",
			ImageURL:    "https://cdn.example.com/verification-images/proj-1/proj-1-1.jpg",
			Status:      domain.StatusApproved,
			SubmittedAt: time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC),
			ReviewedBy:  "admin-1",
			ReviewedAt:  &reviewedAt,
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/project-submissions?projectId=proj-1", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "admin-1"))

	rec := httptest.NewRecorder()
	h.ListProjectSubmissions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.SubmissionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Submissions, 2)
	assert.Equal(t, "sub-2", resp.Submissions[0].ID)
	assert.Equal(t, "pending", resp.Submissions[0].Status)
	assert.Empty(t, resp.Submissions[0].ReviewedAt)
	assert.Equal(t, "admin-1", resp.Submissions[1].ReviewedBy)
	assert.Equal(t, "2026-08-20T12:00:00Z", resp.Submissions[1].ReviewedAt)
}

func TestListProjectSubmissions_MissingProjectID(t *testing.T) {
	h, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/project-submissions", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "admin-1"))

	rec := httptest.NewRecorder()
	h.ListProjectSubmissions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing projectId", decodeErrorBody(t, rec).Message)
}

func TestListProjectSubmissions_RepoFailure(t *testing.T) {
	h, stub := newHandler(t)
	stub.listErr = errors.New("db down")

	req := httptest.NewRequest(http.MethodGet, "/api/project-submissions?projectId=proj-1", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "admin-1"))

	rec := httptest.NewRecorder()
	h.ListProjectSubmissions(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func reviewRequest(t *testing.T, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/review-submission", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithUserID(req.Context(), "admin-1"))
}

func TestReviewSubmission_Success(t *testing.T) {
	h, stub := newHandler(t)

	rec := httptest.NewRecorder()
	h.ReviewSubmission(rec, reviewRequest(t, `{"submissionId":"sub-1","status":"approved"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.reviewCalls)

	var resp dto.ReviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestReviewSubmission_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing submission id", `{"status":"approved"}`},
		{"missing status", `{"submissionId":"sub-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, stub := newHandler(t)

			rec := httptest.NewRecorder()
			h.ReviewSubmission(rec, reviewRequest(t, tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, stub.reviewCalls)
		})
	}
}

func TestReviewSubmission_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"invalid status", fmt.Errorf("%w: %q", uc.ErrInvalidStatus, "maybe"), http.StatusBadRequest, "Status must be approved or rejected"},
		{"not found", repo.ErrSubmissionNotFound, http.StatusNotFound, "Submission not found"},
		{"db failure", errors.New("db down"), http.StatusInternalServerError, "Failed to review submission"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, stub := newHandler(t)
			stub.reviewErr = tt.err

			rec := httptest.NewRecorder()
			h.ReviewSubmission(rec, reviewRequest(t, `{"submissionId":"sub-1","status":"maybe"}`))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeErrorBody(t, rec).Message)
		})
	}
}
