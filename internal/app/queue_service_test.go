package app

import (
	"errors"
	"testing"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
)

type admitterFunc func(req domain.DownloadRequest) (string, error)

func (f admitterFunc) Enqueue(req domain.DownloadRequest) (string, error) { return f(req) }

func TestFirstArtist(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Solo", "Solo"},
		{"A, B", "A"},
		{"A & B, C", "A"},
		{"A feat. B", "A"},
		{"A Feat. B", "A"},
		{"A ft. B", "A"},
		{"A featuring B", "A"},
		{"Simon & Garfunkel", "Simon"},
		{"\u0130lhan feat. B", "\u0130lhan"},
		{"\u212Aelvin ft. Someone", "\u212Aelvin"},
		{"Beyonc\u00e9 FEATURING Jay", "Beyonc\u00e9"},
		{"\u0130\u0130\u0130\u0130, Other", "\u0130\u0130\u0130\u0130"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FirstArtist(tt.input); got != tt.want {
				t.Errorf("FirstArtist(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueueService_Enqueue(t *testing.T) {
	var got domain.DownloadRequest
	svc := NewQueueService(admitterFunc(func(req domain.DownloadRequest) (string, error) {
		got = req
		return "id-1", nil
	}), "http", "flac", logger.Discard())

	id, err := svc.Enqueue(domain.DownloadRequest{
		TrackName:          "  Song ",
		ArtistName:         "Artist A, Artist B",
		AlbumArtist:        "Artist A & Artist C",
		UseFirstArtistOnly: true,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if id != "id-1" {
		t.Errorf("Expected id-1, got %s", id)
	}
	if got.TrackName != "Song" {
		t.Errorf("Expected trimmed track name, got %q", got.TrackName)
	}
	if got.ArtistName != "Artist A" || got.AlbumArtist != "Artist A" {
		t.Errorf("Expected first artist only, got %q / %q", got.ArtistName, got.AlbumArtist)
	}
	if got.Service != "http" || got.Format != "flac" {
		t.Errorf("Expected defaults, got service=%q format=%q", got.Service, got.Format)
	}
}

func TestQueueService_KeepsExplicitValues(t *testing.T) {
	svc := NewQueueService(nil, "http", "flac", logger.Discard())
	req := svc.Normalize(domain.DownloadRequest{ArtistName: "A, B", Service: "Tidal", Format: "MP3"})
	if req.Service != "tidal" || req.Format != "mp3" {
		t.Errorf("Expected lowercased explicit values, got %q %q", req.Service, req.Format)
	}
	if req.ArtistName != "A, B" {
		t.Errorf("Artist should be untouched without the flag, got %q", req.ArtistName)
	}
}

func TestQueueService_PropagatesValidation(t *testing.T) {
	invalid := &domain.InvalidRequestError{Errors: []domain.ValidationError{{Field: "track_name", Message: "is required"}}}
	svc := NewQueueService(admitterFunc(func(domain.DownloadRequest) (string, error) {
		return "", invalid
	}), "http", "flac", logger.Discard())

	_, err := svc.Enqueue(domain.DownloadRequest{})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}
