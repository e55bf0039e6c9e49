package eventlog

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/strefethen/soundbar-hub-go/internal/config"
)

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// Service records inbound device messages and prunes old ones on a schedule.
type Service struct {
	repo          *Repository
	retentionDays int
	schedule      string
	cron          *cron.Cron
}

// NewService creates a new event log service.
func NewService(cfg config.Config, dbPair DBPair) *Service {
	return &Service{
		repo:          NewRepository(dbPair),
		retentionDays: cfg.EventRetentionDays,
		schedule:      cfg.EventPruneSchedule,
	}
}

// RecordDeviceEvent persists one inbound message. Failures are logged, not
// returned: the event stream must keep flowing even if the log is broken.
func (s *Service) RecordDeviceEvent(soundbarID, kind string, payload []byte) {
	if _, err := s.repo.Insert(soundbarID, kind, payload); err != nil {
		log.Printf("EVENTS: failed to record %s event for %s: %v", kind, soundbarID, err)
	}
}

// ListEvents returns recent events for a soundbar, newest first.
func (s *Service) ListEvents(soundbarID string, limit int) ([]DeviceEvent, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	return s.repo.ListBySoundbar(soundbarID, limit)
}

// DropSoundbar removes all logged events for an unregistered soundbar.
func (s *Service) DropSoundbar(soundbarID string) error {
	return s.repo.DeleteBySoundbar(soundbarID)
}

// StartPruneJob schedules retention pruning. No-op if already started.
func (s *Service) StartPruneJob() error {
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.prune); err != nil {
		return err
	}
	c.Start()
	s.cron = c

	log.Printf("EVENTS: prune job scheduled (%s, retention %dd)", s.schedule, s.retentionDays)
	return nil
}

// StopPruneJob stops the prune schedule and waits for a running prune.
func (s *Service) StopPruneJob() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

func (s *Service) prune() {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.repo.DeleteOlderThan(cutoff)
	if err != nil {
		log.Printf("EVENTS: prune failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("EVENTS: pruned %d events older than %s", deleted, cutoff.Format(time.RFC3339))
	}
}
