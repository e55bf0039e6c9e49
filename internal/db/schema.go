package db

const schemaSQL = `
CREATE TABLE IF NOT EXISTS soundbars (
	soundbar_id TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	host        TEXT NOT NULL,
	port        INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	UNIQUE (host, port)
);

CREATE TABLE IF NOT EXISTS device_events (
	event_id    TEXT PRIMARY KEY,
	soundbar_id TEXT NOT NULL,
	kind        TEXT NOT NULL,
	payload     TEXT NOT NULL,
	received_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_device_events_soundbar
	ON device_events (soundbar_id, received_at DESC);

CREATE INDEX IF NOT EXISTS idx_device_events_received_at
	ON device_events (received_at);
`
