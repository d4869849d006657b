package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/metrics"
	"github.com/Paidguy/SpotiFLAC-web/internal/telemetry"
)

// Queue is the part of the queue manager the pool drives.
type Queue interface {
	Claim(ctx context.Context) (domain.DownloadItem, error)
	UpdateProgress(id string, p domain.Progress) error
	PublishProgress(id string)
	Complete(ctx context.Context, id, filePath string, size int64) error
	Skip(ctx context.Context, id, filePath string) error
	Fail(ctx context.Context, id, message string) error
}

// Pool runs MaxConcurrent long-lived workers. Each worker claims the oldest
// queued item, fetches it and records the outcome before claiming again.
type Pool struct {
	queue            Queue
	fetcher          Fetcher
	tracer           trace.Tracer
	ctx              context.Context
	Logger           *logger.Logger
	cancel           context.CancelFunc
	done             chan struct{}
	MaxConcurrent    int
	ProgressInterval time.Duration
	mu               sync.Mutex
}

func NewPool(q Queue, f Fetcher, log *logger.Logger) *Pool {
	if log == nil {
		log = logger.Default()
	}
	return &Pool{
		queue:            q,
		fetcher:          f,
		tracer:           telemetry.Tracer("spotiflac/downloader"),
		Logger:           log.WithComponent("worker"),
		MaxConcurrent:    constants.DefaultConcurrency,
		ProgressInterval: constants.DefaultProgressInterval,
	}
}

// Start launches the workers in the background. Stop waits for them.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		if err := p.Run(p.ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.Logger.Error("Worker pool stopped", "error", err)
		}
	}()
}

func (p *Pool) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}

	p.Logger.Info("Stopping worker pool")
	cancel()
	<-done
}

// Run blocks until ctx is done. In-flight fetches see the cancellation and
// their items end up failed.
func (p *Pool) Run(ctx context.Context) error {
	workers := p.MaxConcurrent
	if workers <= 0 {
		workers = constants.DefaultConcurrency
	}
	p.Logger.Info("Starting worker pool", "workers", workers, "progress_interval", p.ProgressInterval)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return p.work(ctx, i)
		})
	}
	return g.Wait()
}

func (p *Pool) work(ctx context.Context, n int) error {
	log := p.Logger.With("worker", n)
	for {
		item, err := p.queue.Claim(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("Failed to claim item", "error", err)
			continue
		}
		p.process(ctx, item)
	}
}

func (p *Pool) process(ctx context.Context, item domain.DownloadItem) {
	log := p.Logger.WithItem(item.ID, item.TrackName)
	started := time.Now()

	ctx, span := p.tracer.Start(ctx, "downloader.fetch", trace.WithAttributes(
		attribute.String("item.id", item.ID),
		attribute.String("item.service", item.Service),
		attribute.String("item.kind", string(item.Kind)),
	))
	defer span.End()

	// terminal writes must land even when shutdown cancelled the fetch
	finishCtx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in fetch", "panic", r)
			span.SetStatus(codes.Error, "panic")
			p.record(log, domain.OutcomeFailure, started)
			p.report(log, p.queue.Fail(finishCtx, item.ID, fmt.Sprintf("panic: %v", r)))
		}
	}()

	log.Info("Fetching item", "service", item.Service, "kind", item.Kind)
	res, err := p.fetcher.Fetch(ctx, item.Request, p.progressFunc(item.ID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("Fetch failed", "error", err)
		p.record(log, domain.OutcomeFailure, started)
		p.report(log, p.queue.Fail(finishCtx, item.ID, err.Error()))
		return
	}

	span.SetAttributes(attribute.String("fetch.outcome", string(res.Outcome)))
	p.record(log, res.Outcome, started)

	switch res.Outcome {
	case domain.OutcomeSuccess:
		p.report(log, p.queue.Complete(finishCtx, item.ID, res.FilePath, res.Size))
	case domain.OutcomeAlreadyExists:
		p.report(log, p.queue.Skip(finishCtx, item.ID, res.FilePath))
	case domain.OutcomeFailure:
		msg := res.Message
		if msg == "" {
			msg = "download failed"
		}
		span.SetStatus(codes.Error, msg)
		p.report(log, p.queue.Fail(finishCtx, item.ID, msg))
	default:
		p.report(log, p.queue.Fail(finishCtx, item.ID, fmt.Sprintf("unknown fetch outcome: %q", res.Outcome)))
	}
}

// progressFunc relays every callback into the item and publishes at most one
// progress event per interval. The 100% update is always published.
func (p *Pool) progressFunc(id string) domain.ProgressFunc {
	throttle := &rate.Sometimes{Interval: p.ProgressInterval}
	return func(pr domain.Progress) {
		if err := p.queue.UpdateProgress(id, pr); err != nil {
			return
		}
		if pr.Percent >= 100 || p.ProgressInterval <= 0 {
			p.queue.PublishProgress(id)
			return
		}
		throttle.Do(func() { p.queue.PublishProgress(id) })
	}
}

func (p *Pool) record(log *logger.Logger, outcome domain.FetchOutcome, started time.Time) {
	metrics.FetchOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	metrics.FetchDuration.Observe(time.Since(started).Seconds())
	log.Debug("Fetch finished", "outcome", outcome, "duration", time.Since(started))
}

func (p *Pool) report(log *logger.Logger, err error) {
	if err == nil {
		return
	}
	var warning *domain.HistoryWriteWarning
	if errors.As(err, &warning) {
		log.Warn("Item finished without history record", "error", warning.Err)
		return
	}
	log.Error("Failed to finish item", "error", err)
}
