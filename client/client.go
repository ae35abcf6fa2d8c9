package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// State is the observable phase of one upload attempt.
type State string

const (
	StateUploading State = "uploading"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// UploadResult is the server's description of a stored proof.
type UploadResult struct {
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int    `json:"bytes"`
	Quality      int    `json:"quality"`
	PublicID     string `json:"public_id"`
	SubmissionID string `json:"submission_id"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithStateFunc registers a callback invoked on every state change, so a UI
// can disable resubmission while an attempt is in flight.
func WithStateFunc(fn func(State)) Option {
	return func(c *Client) {
		c.onState = fn
	}
}

// Client submits normalized proof photos to the verification service.
// A failed attempt is not retried; resubmission is the caller's decision.
type Client struct {
	baseURL    string
	httpClient *http.Client
	onState    func(State)
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends one normalized image for one project in a single multipart
// request. An empty token fails immediately without touching the network.
func (c *Client) Submit(ctx context.Context, img *NormalizedImage, projectID, token string) (*UploadResult, error) {
	if token == "" {
		c.setState(StateFailed)
		return nil, ErrUnauthenticated
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="image"; filename="proof.jpg"`)
	partHeader.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, fmt.Errorf("failed to write image part: %w", err)
	}

	if err := writer.WriteField("projectId", projectID); err != nil {
		return nil, fmt.Errorf("failed to write projectId field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-verification", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	c.setState(StateUploading)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setState(StateFailed)
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.setState(StateFailed)
		return nil, c.decodeError(resp)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.setState(StateFailed)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.setState(StateSucceeded)
	return &result, nil
}

func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		apiErr.Message = resp.Status
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		apiErr.Message = string(bytes.TrimSpace(data))
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	apiErr.Message = body.Message
	apiErr.Details = body.Details
	return apiErr
}

func (c *Client) setState(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}
