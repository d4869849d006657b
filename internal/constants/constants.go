// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort             = "8080"
	DefaultDataDir          = "data"
	DefaultDBName           = "spotiflac.db"
	DefaultDownloadPath     = "downloads"
	DefaultConcurrency      = 2
	MaxConcurrency          = 16
	DefaultProgressInterval = 250 * time.Millisecond
	DefaultSubscriberBuffer = 64
	DefaultService          = "http"
	DefaultFormat           = "flac"
	DefaultFilenameTemplate = "{{.Artist}}/{{.Album}}/{{.Track}} {{.Title}}"
	DefaultHistoryBackend   = "sqlite"
	DefaultMongoDB          = "spotiflac"
	DefaultHTTPTimeout      = 5 * time.Minute
	ImageHTTPTimeout        = 30 * time.Second
	DefaultRetryCount       = 3
	DefaultRetryBase        = 1 * time.Second
	DefaultRequestsPerSec   = 4
	ShutdownTimeout         = 10 * time.Second
)

// BuiltinServices are the fetch services registered at startup.
var BuiltinServices = []string{DefaultService}

// History backends
const (
	HistoryBackendSQLite = "sqlite"
	HistoryBackendMongo  = "mongo"
)

// Audio formats
const (
	FormatFLAC = "flac"
	FormatMP3  = "mp3"
	FormatM4A  = "m4a"
)

// Mongo collections
const (
	DownloadHistoryCollection = "download_history"
	FetchHistoryCollection    = "fetch_history"
)

// File Extensions
const (
	ExtFLAC = ".flac"
	ExtMP3  = ".mp3"
	ExtM4A  = ".m4a"
	ExtLRC  = ".lrc"
	ExtJPG  = ".jpg"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Progress messages published on the event stream
const (
	MessageStarting      = "Starting download..."
	MessageCompleted     = "Download completed"
	MessageAlreadyExists = "File already exists"
	MessageCancelled     = "Cancelled"
	MessageQueued        = "Queued"
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"/\\|?*"
