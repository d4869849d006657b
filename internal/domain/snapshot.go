package domain

// QueueSnapshot is a consistent point-in-time read of the live queue.
type QueueSnapshot struct {
	Queue            []DownloadItem `json:"queue"`
	IsDownloading    bool           `json:"is_downloading"`
	CurrentSpeed     float64        `json:"current_speed"`
	TotalDownloaded  int64          `json:"total_downloaded"`
	SessionStartTime int64          `json:"session_start_time"`
	QueuedCount      int            `json:"queued_count"`
	DownloadingCount int            `json:"downloading_count"`
	CompletedCount   int            `json:"completed_count"`
	FailedCount      int            `json:"failed_count"`
	SkippedCount     int            `json:"skipped_count"`
}

// ProgressInfo is the compact progress summary used by simple dashboards.
type ProgressInfo struct {
	IsDownloading bool    `json:"is_downloading"`
	MBDownloaded  float64 `json:"mb_downloaded"`
	SpeedMBps     float64 `json:"speed_mbps"`
}

// Progress summarizes the snapshot for the progress endpoint.
func (s QueueSnapshot) Progress() ProgressInfo {
	var downloaded int64
	for _, it := range s.Queue {
		if it.Status == StatusDownloading {
			downloaded += it.Downloaded
		}
	}
	return ProgressInfo{
		IsDownloading: s.IsDownloading,
		MBDownloaded:  float64(downloaded) / (1024 * 1024),
		SpeedMBps:     s.CurrentSpeed,
	}
}
