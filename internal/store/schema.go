package store

const Schema = `
CREATE TABLE IF NOT EXISTS download_history (
	id TEXT PRIMARY KEY,
	track_name TEXT NOT NULL,
	artist_name TEXT NOT NULL,
	album_name TEXT,
	source_id TEXT,
	service TEXT,
	kind TEXT NOT NULL DEFAULT 'track',
	format TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	file_path TEXT,
	total_size INTEGER DEFAULT 0,
	start_time INTEGER DEFAULT 0,
	end_time INTEGER DEFAULT 0,
	recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_download_history_recorded_at ON download_history(recorded_at);
CREATE INDEX IF NOT EXISTS idx_download_history_status ON download_history(status);

CREATE TABLE IF NOT EXISTS fetch_history (
	id TEXT PRIMARY KEY,
	url TEXT,
	item_type TEXT NOT NULL,
	name TEXT,
	info TEXT,
	image TEXT,
	data TEXT,
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetch_history_type ON fetch_history(item_type);
CREATE INDEX IF NOT EXISTS idx_fetch_history_timestamp ON fetch_history(timestamp);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
