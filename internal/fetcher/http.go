// Package fetcher holds the built-in fetch collaborators.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/httpclient"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/storage"
	"github.com/Paidguy/SpotiFLAC-web/internal/tagging"
)

const (
	partSuffix    = ".part"
	maxLyricsSize = 1 << 20
	maxCoverSize  = 20 << 20
)

// HTTPFetcher retrieves assets from a direct source URL and writes them under
// the download directory. Tracks are tagged after the transfer.
type HTTPFetcher struct {
	client        *httpclient.Client
	logger        *logger.Logger
	now           func() time.Time
	DownloadDir   string
	Template      string
	DefaultFormat string
}

func NewHTTPFetcher(client *httpclient.Client, downloadDir, template string, log *logger.Logger) *HTTPFetcher {
	if log == nil {
		log = logger.Default()
	}
	if template == "" {
		template = constants.DefaultFilenameTemplate
	}
	return &HTTPFetcher{
		client:        client,
		logger:        log.WithService("http"),
		now:           time.Now,
		DownloadDir:   downloadDir,
		Template:      template,
		DefaultFormat: constants.DefaultFormat,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req domain.FetchRequest, progress domain.ProgressFunc) (domain.FetchResult, error) {
	if req.SourceURL == "" {
		return domain.Failure("no source url for " + req.TrackName), nil
	}

	dest, err := storage.AssetPath(f.DownloadDir, f.Template, req, f.DefaultFormat)
	if err != nil {
		return domain.FetchResult{}, err
	}
	if storage.FileExists(dest) {
		return domain.AlreadyExists(dest), nil
	}
	if err := storage.EnsureDir(filepath.Dir(dest)); err != nil {
		return domain.FetchResult{}, fmt.Errorf("failed to create directory: %w", err)
	}

	if req.Kind == domain.KindLyrics {
		return f.fetchLyrics(ctx, req, dest, progress)
	}

	size, err := f.download(ctx, req.SourceURL, dest, progress)
	if err != nil {
		return domain.FetchResult{}, err
	}

	if req.Kind == "" || req.Kind == domain.KindTrack {
		f.tag(ctx, req, dest)
	}
	return domain.Success(dest, size), nil
}

// download streams url into dest through a .part file so an interrupted
// transfer never looks like an existing asset.
func (f *HTTPFetcher) download(ctx context.Context, url, dest string, progress domain.ProgressFunc) (int64, error) {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	part := dest + partSuffix
	out, err := storage.CreateFile(part)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	pw := &progressWriter{
		w:     out,
		total: resp.ContentLength,
		start: f.now(),
		now:   f.now,
		cb:    progress,
	}
	_, copyErr := io.Copy(pw, resp.Body)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = storage.RemoveFile(part)
		return 0, fmt.Errorf("transfer interrupted: %w", err)
	}

	if err := storage.MoveFile(part, dest); err != nil {
		_ = storage.RemoveFile(part)
		return 0, err
	}
	pw.finish()
	return pw.written, nil
}

func (f *HTTPFetcher) fetchLyrics(ctx context.Context, req domain.FetchRequest, dest string, progress domain.ProgressFunc) (domain.FetchResult, error) {
	raw, err := f.client.GetBytes(ctx, req.SourceURL, maxLyricsSize)
	if err != nil {
		return domain.FetchResult{}, err
	}
	lrc := tagging.NormalizeLRC(string(raw))
	if lrc == "" {
		return domain.Failure("no lyrics found"), nil
	}
	if err := storage.WriteFile(dest, []byte(lrc)); err != nil {
		return domain.FetchResult{}, fmt.Errorf("failed to write lyrics: %w", err)
	}

	size := int64(len(lrc))
	if progress != nil {
		progress(domain.Progress{Percent: 100, Downloaded: size, TotalSize: size})
	}
	return domain.Success(dest, size), nil
}

// tag is best effort. A file that cannot be tagged is still a completed download.
func (f *HTTPFetcher) tag(ctx context.Context, req domain.FetchRequest, path string) {
	log := f.logger.WithItem(req.ItemID, req.TrackName)

	var cover []byte
	if req.CoverURL != "" {
		coverCtx, cancel := context.WithTimeout(ctx, constants.ImageHTTPTimeout)
		data, err := f.client.GetBytes(coverCtx, req.CoverURL, maxCoverSize)
		cancel()
		if err != nil {
			log.Warn("Failed to fetch cover art", "url", req.CoverURL, "error", err)
		} else {
			cover = data
		}
	}

	err := tagging.TagFile(path, tagging.MetadataFromRequest(req), cover)
	switch {
	case err == nil:
		log.Debug("Tagged file", "path", path)
	case errors.Is(err, tagging.ErrUnsupportedFormat):
		log.Debug("Skipping tags", "path", path, "error", err)
	default:
		log.Warn("Failed to tag file", "path", path, "error", err)
	}
}

// progressWriter counts bytes and reports percent and MB/s after each write.
type progressWriter struct {
	w       io.Writer
	start   time.Time
	now     func() time.Time
	cb      domain.ProgressFunc
	total   int64
	written int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	p.report()
	return n, err
}

func (p *progressWriter) report() {
	if p.cb == nil {
		return
	}
	total := p.total
	if total < 0 {
		total = 0
	}

	var percent float64
	if total > 0 {
		percent = float64(p.written) * 100 / float64(total)
		// 100 is reserved for finish so the last event is always the final one.
		if percent >= 100 {
			percent = 99.9
		}
	}

	var speed float64
	if elapsed := p.now().Sub(p.start).Seconds(); elapsed > 0 {
		speed = float64(p.written) / (1024 * 1024) / elapsed
	}

	p.cb(domain.Progress{
		Percent:    percent,
		Speed:      speed,
		Downloaded: p.written,
		TotalSize:  total,
	})
}

func (p *progressWriter) finish() {
	if p.cb == nil {
		return
	}
	p.cb(domain.Progress{Percent: 100, Downloaded: p.written, TotalSize: p.written})
}
