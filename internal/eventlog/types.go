package eventlog

import (
	"database/sql"
	"time"
)

// DeviceEvent is one inbound message recorded from a soundbar, stored with
// its raw payload so protocol quirks stay inspectable after the fact.
type DeviceEvent struct {
	EventID    string         `json:"event_id"`
	SoundbarID string         `json:"soundbar_id"`
	Kind       string         `json:"kind"`
	Payload    map[string]any `json:"payload"`
	ReceivedAt time.Time      `json:"received_at"`
}

// DBPair interface for dependency injection (matches db.DBPair).
type DBPair interface {
	Reader() *sql.DB
	Writer() *sql.DB
}
