package registry

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/strefethen/soundbar-hub-go/internal/config"
	"github.com/strefethen/soundbar-hub-go/internal/soundbar"
	"github.com/strefethen/soundbar-hub-go/internal/soundbar/protocol"
)

// Notifier receives the state-changed push for every inbound device
// message. Implementations re-read the snapshot passed to them; the
// notification itself carries no delta.
type Notifier interface {
	SoundbarStateChanged(soundbarID string, state StateView)
}

// EventRecorder persists raw inbound messages for the event log.
type EventRecorder interface {
	RecordDeviceEvent(soundbarID, kind string, payload []byte)
	DropSoundbar(soundbarID string) error
}

// SoundbarView is a registered soundbar plus its session status.
type SoundbarView struct {
	Soundbar
	Object string           `json:"object"`
	Status ConnectionStatus `json:"status"`
}

// StateView is the snapshot of one soundbar rendered for API consumers.
type StateView struct {
	Object        string              `json:"object"`
	SoundbarID    string              `json:"soundbar_id"`
	Name          string              `json:"name"`
	Status        ConnectionStatus    `json:"status"`
	Power         soundbar.PowerState `json:"power"`
	VolumeLevel   float64             `json:"volume_level"`
	Muted         bool                `json:"muted"`
	Source        string              `json:"source,omitempty"`
	SourceList    []string            `json:"source_list"`
	SoundMode     string              `json:"sound_mode,omitempty"`
	SoundModeList []string            `json:"sound_mode_list"`
	DisplayName   string              `json:"display_name,omitempty"`
	Snapshot      soundbar.Snapshot   `json:"snapshot"`
}

type managedSession struct {
	bar     Soundbar
	session *soundbar.Session
	status  ConnectionStatus
}

// Service owns the registry and one device session per registered soundbar.
type Service struct {
	cfg      config.Config
	repo     *Repository
	recorder EventRecorder
	dial     soundbar.Dialer

	mu        sync.RWMutex
	sessions  map[string]*managedSession
	notifiers []Notifier
}

// NewService creates the registry service. recorder may be nil; dial
// defaults to the TCP protocol client and is overridden in tests.
func NewService(cfg config.Config, dbPair DBPair, recorder EventRecorder, dial soundbar.Dialer) *Service {
	if dial == nil {
		dial = func(ctx context.Context, host string, port int, onEvent func(protocol.Message)) (soundbar.DeviceClient, error) {
			return protocol.Dial(ctx, host, port, onEvent)
		}
	}
	return &Service{
		cfg:      cfg,
		repo:     NewRepository(dbPair),
		recorder: recorder,
		dial:     dial,
		sessions: make(map[string]*managedSession),
	}
}

// AddNotifier registers a state-changed sink. Must be called before Start.
func (s *Service) AddNotifier(notifier Notifier) {
	s.notifiers = append(s.notifiers, notifier)
}

// Start seeds the registry from the configured YAML file and opens sessions
// for every registered soundbar. Connections happen in the background; Start
// never blocks on the network.
func (s *Service) Start(seeds []config.SeedSoundbar) error {
	for _, seed := range seeds {
		port := seed.Port
		if port == 0 {
			port = s.cfg.DefaultSoundbarPort
		}
		existing, err := s.repo.GetByAddress(seed.Host, port)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		name := seed.Name
		if name == "" {
			name = seed.Host
		}
		if _, err := s.repo.Insert(name, seed.Host, port); err != nil {
			return err
		}
		log.Printf("SESSION: seeded soundbar %s (%s:%d)", name, seed.Host, port)
	}

	bars, err := s.repo.List()
	if err != nil {
		return err
	}
	for _, bar := range bars {
		s.startSession(bar)
	}
	return nil
}

// Shutdown closes every open session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := make([]*managedSession, 0, len(s.sessions))
	for _, managed := range s.sessions {
		sessions = append(sessions, managed)
	}
	s.sessions = make(map[string]*managedSession)
	s.mu.Unlock()

	for _, managed := range sessions {
		if err := managed.session.Close(); err != nil {
			log.Printf("SESSION: close %s: %v", managed.bar.Name, err)
		}
	}
}

// Register adds a soundbar and opens its session in the background.
func (s *Service) Register(name, host string, port int) (*SoundbarView, error) {
	if port == 0 {
		port = s.cfg.DefaultSoundbarPort
	}
	if name == "" {
		name = host
	}

	bar, err := s.repo.Insert(name, host, port)
	if err != nil {
		return nil, err
	}

	s.startSession(*bar)
	return s.Get(bar.SoundbarID)
}

// Unregister closes the session and removes the soundbar and its event log.
func (s *Service) Unregister(soundbarID string) (bool, error) {
	s.mu.Lock()
	managed, ok := s.sessions[soundbarID]
	delete(s.sessions, soundbarID)
	s.mu.Unlock()

	if ok {
		if err := managed.session.Close(); err != nil {
			log.Printf("SESSION: close %s: %v", managed.bar.Name, err)
		}
	}

	if s.recorder != nil {
		if err := s.recorder.DropSoundbar(soundbarID); err != nil {
			log.Printf("SESSION: drop event log for %s: %v", soundbarID, err)
		}
	}

	return s.repo.Delete(soundbarID)
}

// List returns all registered soundbars with their session status.
func (s *Service) List() ([]SoundbarView, error) {
	bars, err := s.repo.List()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]SoundbarView, 0, len(bars))
	for _, bar := range bars {
		status := StatusDisconnected
		if managed, ok := s.sessions[bar.SoundbarID]; ok {
			status = managed.status
		}
		views = append(views, SoundbarView{Soundbar: bar, Object: "soundbar", Status: status})
	}
	return views, nil
}

// Get returns one soundbar view, or nil when not registered.
func (s *Service) Get(soundbarID string) (*SoundbarView, error) {
	bar, err := s.repo.Get(soundbarID)
	if err != nil || bar == nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	status := StatusDisconnected
	if managed, ok := s.sessions[bar.SoundbarID]; ok {
		status = managed.status
	}
	return &SoundbarView{Soundbar: *bar, Object: "soundbar", Status: status}, nil
}

// State returns the rendered snapshot for one soundbar, or nil when not
// registered.
func (s *Service) State(soundbarID string) (*StateView, error) {
	s.mu.RLock()
	managed, ok := s.sessions[soundbarID]
	s.mu.RUnlock()
	if !ok {
		// Registered but session map lost it, or never registered.
		bar, err := s.repo.Get(soundbarID)
		if err != nil || bar == nil {
			return nil, err
		}
		return &StateView{
			Object:        "soundbar_state",
			SoundbarID:    bar.SoundbarID,
			Name:          bar.Name,
			Status:        StatusDisconnected,
			Power:         soundbar.PowerOn,
			SourceList:    []string{},
			SoundModeList: []string{},
		}, nil
	}

	view := s.renderState(managed)
	return &view, nil
}

// SetVolumeLevel forwards a fractional volume command.
func (s *Service) SetVolumeLevel(soundbarID string, level float64) error {
	managed, err := s.session(soundbarID)
	if err != nil {
		return err
	}
	return managed.session.SetVolumeLevel(level)
}

// SetMute forwards a mute command.
func (s *Service) SetMute(soundbarID string, muted bool) error {
	managed, err := s.session(soundbarID)
	if err != nil {
		return err
	}
	return managed.session.SetMute(muted)
}

// SelectSource forwards an input selection by name.
func (s *Service) SelectSource(soundbarID, source string) error {
	managed, err := s.session(soundbarID)
	if err != nil {
		return err
	}
	return managed.session.SelectSource(source)
}

// SelectSoundMode forwards an equaliser selection by name.
func (s *Service) SelectSoundMode(soundbarID, mode string) error {
	managed, err := s.session(soundbarID)
	if err != nil {
		return err
	}
	return managed.session.SelectSoundMode(mode)
}

// SetPower forwards a power command.
func (s *Service) SetPower(soundbarID string, on bool) error {
	managed, err := s.session(soundbarID)
	if err != nil {
		return err
	}
	if on {
		return managed.session.PowerOn()
	}
	return managed.session.PowerOff()
}

// Refresh re-issues the four poll queries.
func (s *Service) Refresh(soundbarID string) error {
	managed, err := s.session(soundbarID)
	if err != nil {
		return err
	}
	return managed.session.RefreshAll()
}

// ErrNotRegistered marks commands against unknown soundbar IDs.
var ErrNotRegistered = errors.New("soundbar not registered")

func (s *Service) session(soundbarID string) (*managedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	managed, ok := s.sessions[soundbarID]
	if !ok {
		return nil, ErrNotRegistered
	}
	return managed, nil
}

func (s *Service) startSession(bar Soundbar) {
	session := soundbar.NewSession(soundbar.Config{
		Host:     bar.Host,
		Port:     bar.Port,
		Dial:     s.recordingDialer(bar.SoundbarID),
		OnChange: func() { s.stateChanged(bar.SoundbarID) },
	})

	managed := &managedSession{bar: bar, session: session, status: StatusConnecting}
	s.mu.Lock()
	s.sessions[bar.SoundbarID] = managed
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ConnectTimeoutMs)*time.Millisecond)
		defer cancel()

		if err := session.Connect(ctx); err != nil {
			log.Printf("SESSION: connect %s (%s:%d) failed: %v", bar.Name, bar.Host, bar.Port, err)
			s.setStatus(bar.SoundbarID, StatusDisconnected)
			return
		}
		s.setStatus(bar.SoundbarID, StatusConnected)
		log.Printf("SESSION: connected to %s (%s:%d)", bar.Name, bar.Host, bar.Port)
	}()
}

// recordingDialer wraps the base dialer so every inbound message is recorded
// to the event log before the session merges it.
func (s *Service) recordingDialer(soundbarID string) soundbar.Dialer {
	return func(ctx context.Context, host string, port int, onEvent func(protocol.Message)) (soundbar.DeviceClient, error) {
		wrapped := onEvent
		if s.recorder != nil {
			wrapped = func(msg protocol.Message) {
				s.recorder.RecordDeviceEvent(soundbarID, msg.Msg, msg.Data)
				onEvent(msg)
			}
		}
		return s.dial(ctx, host, port, wrapped)
	}
}

func (s *Service) setStatus(soundbarID string, status ConnectionStatus) {
	s.mu.Lock()
	if managed, ok := s.sessions[soundbarID]; ok {
		managed.status = status
	}
	s.mu.Unlock()
}

func (s *Service) stateChanged(soundbarID string) {
	s.mu.RLock()
	managed, ok := s.sessions[soundbarID]
	notifiers := s.notifiers
	s.mu.RUnlock()
	if !ok {
		return
	}

	view := s.renderState(managed)
	for _, notifier := range notifiers {
		notifier.SoundbarStateChanged(soundbarID, view)
	}
}

func (s *Service) renderState(managed *managedSession) StateView {
	session := managed.session

	s.mu.RLock()
	status := managed.status
	s.mu.RUnlock()

	snapshot := session.Snapshot()
	return StateView{
		Object:        "soundbar_state",
		SoundbarID:    managed.bar.SoundbarID,
		Name:          managed.bar.Name,
		Status:        status,
		Power:         snapshot.Power,
		VolumeLevel:   session.VolumeLevel(),
		Muted:         session.IsMuted(),
		Source:        session.Source(),
		SourceList:    session.SourceList(),
		SoundMode:     session.SoundMode(),
		SoundModeList: session.SoundModeList(),
		DisplayName:   session.DisplayName(),
		Snapshot:      snapshot,
	}
}
