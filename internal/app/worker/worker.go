package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"verification-service/internal/broker"
	kafka_impl "verification-service/internal/broker/kafka"
	"verification-service/internal/config"
	"verification-service/internal/domain"
	repo "verification-service/internal/repository/verification"
	minio_repo "verification-service/internal/repository/verification/cloud/minio"
	postgres_repo "verification-service/internal/repository/verification/db/postgres"
	"verification-service/internal/usecase/processor"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// Worker renders stamped reviewer thumbnails for uploaded proofs. It is
// additive: the synchronous upload path never waits on it, and a failed task
// stays uncommitted so the broker redelivers it.
type Worker struct {
	cfg             *config.Config
	logger          *zlog.Zerolog
	db              *dbpg.DB
	consumer        broker.Consumer
	processor       *processor.ThumbnailProcessor
	submissionsRepo *postgres_repo.SubmissionsRepository
	fileRepo        *minio_repo.FileRepository
	concurrency     int
	wg              sync.WaitGroup
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	fileRepo, err := minio_repo.NewMinIORepository(cfg, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	submissionsRepo := postgres_repo.NewSubmissionsRepository(db, retries)
	consumer := kafka_impl.NewConsumerClient(cfg)

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.ThumbnailsTopic).
		Str("group", cfg.Kafka.GroupID).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("Worker configuration")

	return &Worker{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		consumer:        consumer,
		processor:       processor.NewThumbnailProcessor(logger),
		submissionsRepo: submissionsRepo,
		fileRepo:        fileRepo,
		concurrency:     cfg.Worker.Concurrency,
	}, nil
}

func (w *Worker) Run() error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("Starting worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		w.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal, stopping worker")
		cancel()
	}()

	messages := make(chan kafka.Message, w.concurrency*2)
	go w.consumer.StartConsuming(ctx, messages, w.cfg.DefaultRetryStrategy())

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}

	<-ctx.Done()

	w.logger.Info().Msg("Shutting down worker gracefully")
	w.wg.Wait()

	if w.db != nil && w.db.Master != nil {
		w.db.Master.Close()
	}
	if w.consumer != nil {
		w.consumer.Close()
	}

	w.logger.Info().Msg("Worker stopped gracefully")
	return nil
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan kafka.Message) {
	w.logger.Info().Int("worker_id", id).Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			start := time.Now()
			if err := w.safeProcessMessage(ctx, id, msg); err != nil {
				// Tasks that can never succeed are dropped; everything
				// else stays uncommitted for redelivery.
				if isPermanent(err) {
					w.logger.Warn().
						Err(err).
						Int("worker_id", id).
						Int64("offset", msg.Offset).
						Msg("Dropping unprocessable task")
					if err := w.consumer.Commit(ctx, msg); err != nil {
						w.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit dropped task")
					}
					continue
				}

				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to process message")
				continue
			}

			if err := w.consumer.Commit(ctx, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to commit message after successful processing")
				continue
			}

			w.logger.Debug().
				Int("worker_id", id).
				Int64("offset", msg.Offset).
				Dur("duration", time.Since(start)).
				Msg("Message processed and committed")
		}
	}
}

var errMalformedTask = errors.New("malformed task payload")

func isPermanent(err error) bool {
	return errors.Is(err, errMalformedTask) ||
		errors.Is(err, repo.ErrSubmissionNotFound) ||
		errors.Is(err, repo.ErrFileNotFound)
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

func (w *Worker) processMessage(ctx context.Context, msg kafka.Message) error {
	var task domain.ThumbnailTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Str("message", string(msg.Value)).Msg("Failed to unmarshal thumbnail task")
		return fmt.Errorf("%w: %v", errMalformedTask, err)
	}
	if task.SubmissionID == "" || task.ObjectPath == "" {
		return fmt.Errorf("%w: missing submission id or object path", errMalformedTask)
	}

	sub, err := w.submissionsRepo.GetByID(ctx, task.SubmissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission %s: %w", task.SubmissionID, err)
	}

	reader, err := w.fileRepo.GetObject(ctx, task.ObjectPath)
	if err != nil {
		return fmt.Errorf("failed to get proof object: %w", err)
	}
	proofData, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return fmt.Errorf("failed to read proof object: %w", err)
	}

	path, data, err := w.processor.Process(ctx, &task, proofData, sub.SubmittedAt.Format("2006-01-02"))
	if err != nil {
		return err
	}

	if err := w.fileRepo.SaveThumbnail(ctx, path, data); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}

	if err := w.submissionsRepo.SetThumbnailPath(ctx, task.SubmissionID, path); err != nil {
		return fmt.Errorf("failed to record thumbnail path: %w", err)
	}

	w.logger.Info().
		Str("submission_id", task.SubmissionID).
		Str("path", path).
		Msg("Thumbnail generated")

	return nil
}
