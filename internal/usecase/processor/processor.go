package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"

	"verification-service/internal/domain"
	"verification-service/internal/usecase/processor/operations"

	"github.com/wb-go/wbf/zlog"
)

// ThumbnailProcessor renders the stamped reviewer thumbnail for one stored
// proof image.
type ThumbnailProcessor struct {
	thumbnailer *operations.Thumbnailer
	stamper     *operations.Stamper
	logger      *zlog.Zerolog
}

func NewThumbnailProcessor(logger *zlog.Zerolog) *ThumbnailProcessor {
	return &ThumbnailProcessor{
		thumbnailer: operations.NewThumbnailer(),
		stamper:     operations.NewStamper(),
		logger:      logger,
	}
}

// Process decodes the stored proof, scales it down and stamps it with the
// project id and submission date. Returns the encoded JPEG and the object
// path it should be stored under.
func (p *ThumbnailProcessor) Process(ctx context.Context, task *domain.ThumbnailTask, proofData []byte, submittedAt string) (string, []byte, error) {
	img, _, err := image.Decode(bytes.NewReader(proofData))
	if err != nil {
		p.logger.Error().Err(err).Str("submission_id", task.SubmissionID).Msg("Failed to decode proof image")
		return "", nil, fmt.Errorf("failed to decode proof image: %w", err)
	}

	thumb, err := p.thumbnailer.Process(img, domain.DefaultThumbnailSize)
	if err != nil {
		return "", nil, fmt.Errorf("thumbnail failed: %w", err)
	}

	stampText := fmt.Sprintf("%s | %s", task.ProjectID, submittedAt)
	stamped, err := p.stamper.Process(thumb, stampText)
	if err != nil {
		return "", nil, fmt.Errorf("stamp failed: %w", err)
	}

	data, err := operations.EncodeJPEG(stamped)
	if err != nil {
		return "", nil, err
	}

	path := fmt.Sprintf("%s%s.jpg", domain.PathPrefixThumbnails, task.SubmissionID)

	p.logger.Debug().
		Str("submission_id", task.SubmissionID).
		Str("path", path).
		Int("size", len(data)).
		Msg("Thumbnail rendered")

	return path, data, nil
}
