package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository handles database operations for registered soundbars.
type Repository struct {
	reader *sql.DB
	writer *sql.DB
}

// ErrDuplicateAddress is returned when a host/port pair is already
// registered.
var ErrDuplicateAddress = errors.New("soundbar address already registered")

// NewRepository creates a new registry Repository.
func NewRepository(dbPair DBPair) *Repository {
	return &Repository{reader: dbPair.Reader(), writer: dbPair.Writer()}
}

// Insert registers a new soundbar.
func (r *Repository) Insert(name, host string, port int) (*Soundbar, error) {
	now := time.Now().UTC()
	bar := &Soundbar{
		SoundbarID: uuid.NewString(),
		Name:       name,
		Host:       host,
		Port:       port,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := r.writer.Exec(
		`INSERT INTO soundbars (soundbar_id, name, host, port, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		bar.SoundbarID, bar.Name, bar.Host, bar.Port,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateAddress
		}
		return nil, fmt.Errorf("insert soundbar: %w", err)
	}
	return bar, nil
}

// Get returns a soundbar by ID, or nil when not found.
func (r *Repository) Get(soundbarID string) (*Soundbar, error) {
	row := r.reader.QueryRow(
		`SELECT soundbar_id, name, host, port, created_at, updated_at
		 FROM soundbars WHERE soundbar_id = ?`,
		soundbarID,
	)
	bar, err := scanSoundbar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return bar, err
}

// GetByAddress returns a soundbar by host and port, or nil when not found.
func (r *Repository) GetByAddress(host string, port int) (*Soundbar, error) {
	row := r.reader.QueryRow(
		`SELECT soundbar_id, name, host, port, created_at, updated_at
		 FROM soundbars WHERE host = ? AND port = ?`,
		host, port,
	)
	bar, err := scanSoundbar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return bar, err
}

// List returns all registered soundbars ordered by name.
func (r *Repository) List() ([]Soundbar, error) {
	rows, err := r.reader.Query(
		`SELECT soundbar_id, name, host, port, created_at, updated_at
		 FROM soundbars ORDER BY name, soundbar_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list soundbars: %w", err)
	}
	defer rows.Close()

	var bars []Soundbar
	for rows.Next() {
		bar, err := scanSoundbar(rows)
		if err != nil {
			return nil, err
		}
		bars = append(bars, *bar)
	}
	return bars, rows.Err()
}

// Delete removes a soundbar and reports whether it existed.
func (r *Repository) Delete(soundbarID string) (bool, error) {
	result, err := r.writer.Exec(`DELETE FROM soundbars WHERE soundbar_id = ?`, soundbarID)
	if err != nil {
		return false, fmt.Errorf("delete soundbar: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSoundbar(row rowScanner) (*Soundbar, error) {
	var bar Soundbar
	var createdAt, updatedAt string
	if err := row.Scan(&bar.SoundbarID, &bar.Name, &bar.Host, &bar.Port, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan soundbar: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		bar.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		bar.UpdatedAt = ts
	}
	return &bar, nil
}
