package registry

import (
	"database/sql"
	"time"
)

// Soundbar is one registered device. Host and port are always known up
// front; there is no network discovery.
type Soundbar struct {
	SoundbarID string    `json:"soundbar_id"`
	Name       string    `json:"name"`
	Host       string    `json:"host"`
	Port       int       `json:"port"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConnectionStatus describes the session behind a registered soundbar.
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "CONNECTING"
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
)

// DBPair interface for dependency injection (matches db.DBPair).
type DBPair interface {
	Reader() *sql.DB
	Writer() *sql.DB
}
