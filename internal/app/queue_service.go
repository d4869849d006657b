package app

import (
	"strings"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
)

// Admitter is the admission side of the queue manager.
type Admitter interface {
	Enqueue(req domain.DownloadRequest) (string, error)
}

// artistDelimiters mark where the first credited artist ends.
var artistDelimiters = []string{", ", " & ", " feat. ", " ft. ", " featuring "}

// QueueService applies request defaults before admission.
type QueueService struct {
	queue          Admitter
	Logger         *logger.Logger
	DefaultService string
	DefaultFormat  string
}

func NewQueueService(q Admitter, defaultService, defaultFormat string, log *logger.Logger) *QueueService {
	if log == nil {
		log = logger.Default()
	}
	return &QueueService{
		queue:          q,
		Logger:         log.WithComponent("queue_service"),
		DefaultService: defaultService,
		DefaultFormat:  defaultFormat,
	}
}

// Enqueue normalizes req and admits it. Validation errors come back unchanged.
func (s *QueueService) Enqueue(req domain.DownloadRequest) (string, error) {
	req = s.Normalize(req)
	id, err := s.queue.Enqueue(req)
	if err != nil {
		s.Logger.Debug("Rejected download request", "track", req.TrackName, "error", err)
		return "", err
	}
	return id, nil
}

// Normalize fills defaults and trims surrounding whitespace.
func (s *QueueService) Normalize(req domain.DownloadRequest) domain.DownloadRequest {
	req.TrackName = strings.TrimSpace(req.TrackName)
	req.ArtistName = strings.TrimSpace(req.ArtistName)
	req.AlbumName = strings.TrimSpace(req.AlbumName)
	req.AlbumArtist = strings.TrimSpace(req.AlbumArtist)

	if req.Service == "" {
		req.Service = s.DefaultService
	}
	req.Service = strings.ToLower(req.Service)
	if req.Format == "" {
		req.Format = s.DefaultFormat
	}
	req.Format = strings.ToLower(req.Format)

	if req.UseFirstArtistOnly {
		req.ArtistName = FirstArtist(req.ArtistName)
		req.AlbumArtist = FirstArtist(req.AlbumArtist)
	}
	return req
}

// FirstArtist returns the part of s before the earliest collaboration delimiter.
// Delimiters match case-insensitively and offsets always fall on rune
// boundaries of s.
func FirstArtist(s string) string {
	for i := range s {
		for _, d := range artistDelimiters {
			if len(s)-i >= len(d) && strings.EqualFold(s[i:i+len(d)], d) {
				return strings.TrimSpace(s[:i])
			}
		}
	}
	return strings.TrimSpace(s)
}
