package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumen-ar/backend/internal/contents"
	"github.com/lumen-ar/backend/internal/models"
	"github.com/lumen-ar/backend/internal/videos"
	"github.com/lumen-ar/backend/pkg/queue"
	"github.com/lumen-ar/backend/pkg/storage"
)

// ImportProcessor processes video import jobs: download from the source URL,
// upload to S3, insert the video row.
type ImportProcessor struct {
	videoRepo   *videos.Repository
	contentRepo *contents.Repository
	s3          *storage.S3
	queue       *queue.Queue
	logger      *zap.Logger
}

// NewImportProcessor creates a video import processor.
func NewImportProcessor(videoRepo *videos.Repository, contentRepo *contents.Repository, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *ImportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportProcessor{videoRepo: videoRepo, contentRepo: contentRepo, s3: s3, queue: q, logger: logger}
}

// importFilename derives an object filename from the source URL, falling back
// to a generated .mp4 name when the URL path carries no usable extension.
func importFilename(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err == nil {
		name := path.Base(u.Path)
		if _, ok := storage.AllowedVideoExtensions[path.Ext(name)]; ok {
			return name
		}
	}
	return uuid.New().String() + ".mp4"
}

// Process executes one video import job.
func (p *ImportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeVideoImport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.VideoImportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	item, err := p.contentRepo.GetContent(ctx, payload.ContentID)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	if item == nil {
		// Content deleted since enqueue; nothing to import.
		p.logger.Warn("import skipped, content gone", zap.Int64("content_id", payload.ContentID))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status: %d", resp.StatusCode)
	}

	filename := importFilename(payload.SourceURL)
	contentType := resp.Header.Get("Content-Type")
	if !storage.ValidateVideoFileType(contentType, filename) {
		return fmt.Errorf("source is not a supported video type: %q", contentType)
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(filename)
	}
	key := storage.VideoKey(payload.ContentID, filename)

	// Stream to S3 without buffering the whole file.
	fileURL, err := p.s3.Upload(ctx, p.s3.VideosBucket(), key, contentType, resp.Body, resp.ContentLength, true)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	v := &models.Video{
		ContentID: payload.ContentID,
		FileURL:   fileURL,
		FileType:  contentType,
		FileSize:  resp.ContentLength,
		S3Key:     key,
	}
	if err := p.videoRepo.Create(ctx, v); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	p.logger.Info("video import completed",
		zap.Int64("content_id", payload.ContentID),
		zap.Int64("video_id", v.ID),
		zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ImportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("import worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
