package downloader

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

// Fetcher performs the actual retrieval of one asset. It reports progress
// through the callback and returns a single terminal outcome.
type Fetcher interface {
	Fetch(ctx context.Context, req domain.FetchRequest, progress domain.ProgressFunc) (domain.FetchResult, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, req domain.FetchRequest, progress domain.ProgressFunc) (domain.FetchResult, error)

func (f FetcherFunc) Fetch(ctx context.Context, req domain.FetchRequest, progress domain.ProgressFunc) (domain.FetchResult, error) {
	return f(ctx, req, progress)
}

type UnsupportedServiceError struct {
	Service string
}

func (e *UnsupportedServiceError) Error() string {
	return "unsupported service: " + e.Service
}

// Dispatcher routes each request to the fetcher registered for its service.
type Dispatcher struct {
	fetchers map[string]Fetcher
	fallback string
}

func NewDispatcher(fallback string) *Dispatcher {
	return &Dispatcher{
		fetchers: make(map[string]Fetcher),
		fallback: strings.ToLower(fallback),
	}
}

func (d *Dispatcher) Register(service string, f Fetcher) {
	d.fetchers[strings.ToLower(service)] = f
}

// Services lists registered service names in sorted order.
func (d *Dispatcher) Services() []string {
	out := make([]string, 0, len(d.fetchers))
	for name := range d.fetchers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (d *Dispatcher) Fetch(ctx context.Context, req domain.FetchRequest, progress domain.ProgressFunc) (domain.FetchResult, error) {
	service := strings.ToLower(req.Service)
	if service == "" {
		service = d.fallback
	}
	f, ok := d.fetchers[service]
	if !ok {
		return domain.FetchResult{}, &UnsupportedServiceError{Service: service}
	}
	res, err := f.Fetch(ctx, req, progress)
	if err != nil {
		return res, fmt.Errorf("%s: %w", service, err)
	}
	return res, nil
}
