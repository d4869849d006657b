package downloader

import (
	"context"
	"errors"
	"testing"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher("http")
	var called string
	d.Register("HTTP", FetcherFunc(func(_ context.Context, req domain.FetchRequest, _ domain.ProgressFunc) (domain.FetchResult, error) {
		called = "http:" + req.TrackName
		return domain.Success("/out/a.flac", 1), nil
	}))
	d.Register("broken", FetcherFunc(func(context.Context, domain.FetchRequest, domain.ProgressFunc) (domain.FetchResult, error) {
		return domain.FetchResult{}, errors.New("upstream 503")
	}))

	tests := []struct {
		name    string
		service string
		wantErr string
	}{
		{"registered", "http", ""},
		{"case insensitive", "Http", ""},
		{"fallback", "", ""},
		{"unknown", "tidal", "unsupported service: tidal"},
		{"fetch error wrapped", "broken", "broken: upstream 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = ""
			_, err := d.Fetch(context.Background(), domain.FetchRequest{TrackName: "a", Service: tt.service}, nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if called != "http:a" {
					t.Errorf("Expected http fetcher to run, got %q", called)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Expected error %q, got %v", tt.wantErr, err)
			}
		})
	}

	var unsupported *UnsupportedServiceError
	_, err := d.Fetch(context.Background(), domain.FetchRequest{Service: "x"}, nil)
	if !errors.As(err, &unsupported) || unsupported.Service != "x" {
		t.Errorf("Expected UnsupportedServiceError, got %v", err)
	}

	if got := d.Services(); len(got) != 2 || got[0] != "broken" || got[1] != "http" {
		t.Errorf("Unexpected services %v", got)
	}
}
