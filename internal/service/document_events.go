package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/jobs"
)

// DocumentEventPublisher hands an event to the broker.
type DocumentEventPublisher interface {
	Publish(ctx context.Context, event models.DocumentEvent) error
}

// DocumentEventConfig configures the dispatch queue.
type DocumentEventConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// DocumentEventDispatcher publishes document events asynchronously. Emit never
// blocks and never fails the mutation that produced the event.
type DocumentEventDispatcher struct {
	queue     *jobs.Queue[models.DocumentEvent]
	publisher DocumentEventPublisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewDocumentEventDispatcher builds a dispatcher. With a nil publisher events
// are only logged.
func NewDocumentEventDispatcher(publisher DocumentEventPublisher, metrics *MetricsService, logger *zap.Logger, cfg DocumentEventConfig) *DocumentEventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DocumentEventDispatcher{publisher: publisher, metrics: metrics, logger: logger}
	d.queue = jobs.NewQueue("document-events", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

// Start launches the publishing workers.
func (d *DocumentEventDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop waits for the workers to exit. Events still buffered are dropped.
func (d *DocumentEventDispatcher) Stop() {
	d.queue.Stop()
}

// Stats exposes queue counters.
func (d *DocumentEventDispatcher) Stats() jobs.Stats {
	return d.queue.Stats()
}

// Emit queues event for publication.
func (d *DocumentEventDispatcher) Emit(_ context.Context, event models.DocumentEvent) {
	if d.publisher == nil {
		d.logger.Debug("document event not published", zap.String("type", event.Type), zap.String("document_id", event.DocumentID))
		return
	}
	err := d.queue.Enqueue(jobs.Job[models.DocumentEvent]{
		ID:      event.DocumentID,
		Type:    event.Type,
		Payload: event,
	})
	if err != nil {
		d.metrics.RecordEventPublish(EventResultDropped)
		level := d.logger.Warn
		if !errors.Is(err, jobs.ErrQueueFull) {
			level = d.logger.Error
		}
		level("document event dropped", zap.String("type", event.Type), zap.String("document_id", event.DocumentID), zap.Error(err))
	}
}

func (d *DocumentEventDispatcher) handle(ctx context.Context, job jobs.Job[models.DocumentEvent]) error {
	if err := d.publisher.Publish(ctx, job.Payload); err != nil {
		d.metrics.RecordEventPublish(EventResultFailed)
		return err
	}
	d.metrics.RecordEventPublish(EventResultPublished)
	return nil
}
