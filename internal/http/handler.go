package httpapp

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/Paidguy/SpotiFLAC-web/internal/app"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/events"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/queue"
)

// Queue is the part of the queue manager exposed over HTTP.
type Queue interface {
	Snapshot() domain.QueueSnapshot
	Get(id string) (domain.DownloadItem, error)
	CancelQueued(ctx context.Context) (int, error)
	SkipQueued(ctx context.Context, id, filePath string) error
	ClearCompleted() int
	ClearAll() int
	ExportFailed(ctx context.Context) (queue.FailedReport, error)
}

// Subscriber hands out event stream subscriptions.
type Subscriber interface {
	Subscribe() *events.Subscription
}

type Handler struct {
	Queue        Queue
	Admission    app.Admitter
	History      *app.HistoryService
	Events       Subscriber
	Logger       *logger.Logger
	DownloadPath string
}

func NewHandler(q Queue, admission app.Admitter, history *app.HistoryService, sub Subscriber, downloadPath string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Queue:        q,
		Admission:    admission,
		History:      history,
		Events:       sub,
		Logger:       log.WithComponent("http"),
		DownloadPath: downloadPath,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/download", h.Download)
	r.Get("/download-queue", h.QueueSnapshot)
	r.Get("/download-queue/{id}", h.QueueItem)
	r.Get("/download-progress", h.DownloadProgress)
	r.Post("/cancel-queued", h.CancelQueued)
	r.Post("/skip-item", h.SkipItem)
	r.Post("/clear-completed", h.ClearCompleted)
	r.Post("/clear-all", h.ClearAll)
	r.Get("/export-failed", h.ExportFailed)

	r.Get("/history", h.ListHistory)
	r.Delete("/history", h.ClearHistory)
	r.Delete("/history/{id}", h.DeleteHistory)

	r.Get("/fetch-history", h.ListFetchHistory)
	r.Post("/fetch-history", h.AddFetchHistory)
	r.Delete("/fetch-history", h.ClearFetchHistory)
	r.Delete("/fetch-history/{id}", h.DeleteFetchHistory)
	r.Delete("/fetch-history/type/{type}", h.DeleteFetchHistoryByType)

	r.Get("/events", h.EventStream)
	r.Get("/ws", h.WebSocket)

	r.Get("/settings", h.GetSettings)
	r.Post("/settings", h.SaveSettings)
	r.Get("/health", h.Health)
	r.Get("/download-path", h.GetDownloadPath)
}
