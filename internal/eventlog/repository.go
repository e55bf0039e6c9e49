package eventlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository handles database operations for device events. Uses separate
// reader/writer connections for optimal SQLite concurrency.
type Repository struct {
	reader *sql.DB
	writer *sql.DB
}

// NewRepository creates a new event Repository.
func NewRepository(dbPair DBPair) *Repository {
	return &Repository{reader: dbPair.Reader(), writer: dbPair.Writer()}
}

// Insert records one inbound device message.
func (r *Repository) Insert(soundbarID, kind string, payload []byte) (*DeviceEvent, error) {
	eventID := uuid.NewString()
	receivedAt := time.Now().UTC()

	if len(payload) == 0 {
		payload = []byte("{}")
	}

	_, err := r.writer.Exec(
		`INSERT INTO device_events (event_id, soundbar_id, kind, payload, received_at)
		 VALUES (?, ?, ?, ?, ?)`,
		eventID, soundbarID, kind, string(payload), receivedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert device event: %w", err)
	}

	return &DeviceEvent{
		EventID:    eventID,
		SoundbarID: soundbarID,
		Kind:       kind,
		Payload:    decodePayload(payload),
		ReceivedAt: receivedAt,
	}, nil
}

// ListBySoundbar returns the most recent events for a soundbar, newest first.
func (r *Repository) ListBySoundbar(soundbarID string, limit int) ([]DeviceEvent, error) {
	rows, err := r.reader.Query(
		`SELECT event_id, soundbar_id, kind, payload, received_at
		 FROM device_events
		 WHERE soundbar_id = ?
		 ORDER BY received_at DESC
		 LIMIT ?`,
		soundbarID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list device events: %w", err)
	}
	defer rows.Close()

	events := make([]DeviceEvent, 0, limit)
	for rows.Next() {
		var event DeviceEvent
		var payload, receivedAt string
		if err := rows.Scan(&event.EventID, &event.SoundbarID, &event.Kind, &payload, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan device event: %w", err)
		}
		event.Payload = decodePayload([]byte(payload))
		if ts, err := time.Parse(time.RFC3339Nano, receivedAt); err == nil {
			event.ReceivedAt = ts
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteOlderThan removes events received before the cutoff and reports how
// many were deleted.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.writer.Exec(
		`DELETE FROM device_events WHERE received_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune device events: %w", err)
	}
	return result.RowsAffected()
}

// DeleteBySoundbar removes all events for a soundbar, used when the device
// is unregistered.
func (r *Repository) DeleteBySoundbar(soundbarID string) error {
	_, err := r.writer.Exec(`DELETE FROM device_events WHERE soundbar_id = ?`, soundbarID)
	if err != nil {
		return fmt.Errorf("delete device events: %w", err)
	}
	return nil
}

func decodePayload(raw []byte) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		// Non-object payloads are preserved under a single key.
		return map[string]any{"raw": string(raw)}
	}
	return payload
}
