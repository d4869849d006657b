package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

// SnapshotFunc returns the current queue state.
type SnapshotFunc func() domain.QueueSnapshot

// QueueCollector exports queue gauges computed from a fresh snapshot on every
// scrape, so nothing has to keep gauges in sync with the queue.
type QueueCollector struct {
	snapshot SnapshotFunc

	items      *prometheus.Desc
	speed      *prometheus.Desc
	downloaded *prometheus.Desc
}

func NewQueueCollector(fn SnapshotFunc) *QueueCollector {
	return &QueueCollector{
		snapshot: fn,
		items: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "items"),
			"Live queue items by status.",
			[]string{"status"}, nil,
		),
		speed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "current_speed_mbps"),
			"Sum of speeds of downloading items in MB/s.",
			nil, nil,
		),
		downloaded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "total_downloaded_bytes"),
			"Bytes completed in the current session.",
			nil, nil,
		),
	}
}

func (c *QueueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.speed
	ch <- c.downloaded
}

func (c *QueueCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	counts := map[domain.ItemStatus]int{
		domain.StatusQueued:      s.QueuedCount,
		domain.StatusDownloading: s.DownloadingCount,
		domain.StatusCompleted:   s.CompletedCount,
		domain.StatusFailed:      s.FailedCount,
		domain.StatusSkipped:     s.SkippedCount,
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(n), string(status))
	}
	ch <- prometheus.MustNewConstMetric(c.speed, prometheus.GaugeValue, s.CurrentSpeed)
	ch <- prometheus.MustNewConstMetric(c.downloaded, prometheus.GaugeValue, float64(s.TotalDownloaded))
}
