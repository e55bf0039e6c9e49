package system

import (
	"database/sql"
	"runtime"
	"time"

	"github.com/strefethen/soundbar-hub-go/internal/config"
	"github.com/strefethen/soundbar-hub-go/internal/registry"
)

// Version is the hub version, set at build time or defaulted.
var Version = "1.0.0"

// DBPair interface for dependency injection (matches db.DBPair).
type DBPair interface {
	Reader() *sql.DB
	Writer() *sql.DB
}

// SoundbarLister reports registered soundbars with their session status.
type SoundbarLister interface {
	List() ([]registry.SoundbarView, error)
}

// SubscriberCounter reports connected push stream subscribers.
type SubscriberCounter interface {
	SubscriberCount() int
}

// Service provides system information.
// Uses reader connection only as this service only performs SELECT queries.
type Service struct {
	cfg         config.Config
	reader      *sql.DB
	soundbars   SoundbarLister
	subscribers SubscriberCounter
	startTime   time.Time
}

// NewService creates a new system service.
func NewService(cfg config.Config, dbPair DBPair, soundbars SoundbarLister, subscribers SubscriberCounter) *Service {
	return &Service{
		cfg:         cfg,
		reader:      dbPair.Reader(),
		soundbars:   soundbars,
		subscribers: subscribers,
		startTime:   time.Now(),
	}
}

// SystemInfo holds system information.
type SystemInfo struct {
	HubVersion         string  `json:"hub_version"`
	Uptime             int64   `json:"uptime_seconds"`
	MemoryUsageMB      float64 `json:"memory_mb"`
	SQLiteConnected    bool    `json:"sqlite_connected"`
	SoundbarsConnected int     `json:"soundbars_connected"`
	SoundbarsTotal     int     `json:"soundbars_total"`
	PushSubscribers    int     `json:"push_subscribers"`
	MQTTEnabled        bool    `json:"mqtt_enabled"`
}

// GetSystemInfo returns current system information.
func (s *Service) GetSystemInfo() (*SystemInfo, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sqliteConnected := true
	if err := s.reader.Ping(); err != nil {
		sqliteConnected = false
	}

	connected := 0
	total := 0
	if s.soundbars != nil {
		views, err := s.soundbars.List()
		if err != nil {
			return nil, err
		}
		total = len(views)
		for _, view := range views {
			if view.Status == registry.StatusConnected {
				connected++
			}
		}
	}

	pushSubscribers := 0
	if s.subscribers != nil {
		pushSubscribers = s.subscribers.SubscriberCount()
	}

	return &SystemInfo{
		HubVersion:         Version,
		Uptime:             int64(time.Since(s.startTime).Seconds()),
		MemoryUsageMB:      float64(memStats.Alloc) / 1024 / 1024,
		SQLiteConnected:    sqliteConnected,
		SoundbarsConnected: connected,
		SoundbarsTotal:     total,
		PushSubscribers:    pushSubscribers,
		MQTTEnabled:        s.cfg.MQTTBrokerURL != "",
	}, nil
}
