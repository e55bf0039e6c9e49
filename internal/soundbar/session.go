package soundbar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/strefethen/soundbar-hub-go/internal/soundbar/protocol"
)

var (
	// ErrUnknownSource is returned when a source name is not in the
	// function table. Nothing is sent to the device in that case.
	ErrUnknownSource = errors.New("unknown source")

	// ErrUnknownSoundMode is the equaliser-table equivalent of
	// ErrUnknownSource.
	ErrUnknownSoundMode = errors.New("unknown sound mode")

	// ErrNotConnected is returned by commands issued before Connect.
	ErrNotConnected = errors.New("session not connected")
)

// DeviceClient is the transport contract the session drives. All calls are
// fire-and-forget: responses, if any, arrive through the event callback
// registered at dial time.
type DeviceClient interface {
	GetProductInfo() error
	GetMACInfo() error
	GetEQ() error
	GetInfo() error
	GetFunc() error
	GetSettings() error
	SetVolume(level int) error
	SetMute(muted bool) error
	SetFunc(index int) error
	SetEQ(index int) error
	SetPower(on bool) error
	Close() error
}

// Dialer opens a transport to a soundbar and registers the event callback.
// The transport must deliver messages one at a time and stop invoking the
// callback once the returned client is closed.
type Dialer func(ctx context.Context, host string, port int, onEvent func(protocol.Message)) (DeviceClient, error)

// Config describes one soundbar session.
type Config struct {
	Host string
	Port int

	// Functions and Equalisers are the firmware name tables the device
	// indexes into. Left nil, the protocol package's current tables are
	// used; tests substitute small fixtures.
	Functions  []string
	Equalisers []string

	// Dial opens the transport. Defaults to the TCP protocol client.
	Dial Dialer

	// OnChange is invoked after every inbound message, recognized or not.
	// It carries no payload: listeners re-read the session accessors.
	OnChange func()
}

// Session owns the connection to one soundbar and the state snapshot merged
// from its event stream. Commands are translated to protocol requests and
// never mutate the snapshot locally; state changes only land when the device
// reports them back.
type Session struct {
	cfg Config

	mu       sync.RWMutex
	snapshot Snapshot
	client   DeviceClient
}

// NewSession builds a session for the given device. Connect must be called
// before commands are issued.
func NewSession(cfg Config) *Session {
	if cfg.Port == 0 {
		cfg.Port = protocol.DefaultPort
	}
	if cfg.Functions == nil {
		cfg.Functions = protocol.Functions
	}
	if cfg.Equalisers == nil {
		cfg.Equalisers = protocol.Equalisers
	}
	if cfg.Dial == nil {
		cfg.Dial = func(ctx context.Context, host string, port int, onEvent func(protocol.Message)) (DeviceClient, error) {
			return protocol.Dial(ctx, host, port, onEvent)
		}
	}
	return &Session{
		cfg:      cfg,
		snapshot: newSnapshot(),
	}
}

// Connect dials the device, registers the event callback and issues the
// priming queries. It is called once per session; a failed session is
// discarded, not redialed.
func (s *Session) Connect(ctx context.Context) error {
	client, err := s.cfg.Dial(ctx, s.cfg.Host, s.cfg.Port, s.handleEvent)
	if err != nil {
		return fmt.Errorf("connect %s: %w", s.cfg.Host, err)
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	_ = client.GetProductInfo()
	_ = client.GetMACInfo()
	return s.RefreshAll()
}

// Close tears down the transport. The event callback no longer fires
// afterward; that contract is owed by the transport.
func (s *Session) Close() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// RefreshAll re-issues the four poll queries. Responses arrive unordered on
// the event stream; each merges only its own field subset, so partial or
// out-of-order arrival is safe.
func (s *Session) RefreshAll() error {
	client, err := s.connectedClient()
	if err != nil {
		return err
	}
	_ = client.GetEQ()
	_ = client.GetInfo()
	_ = client.GetFunc()
	return client.GetSettings()
}

// SetVolumeLevel sets the volume as a fraction of the device range. With an
// unknown range (volume max 0) the command degenerates to volume 0; the
// protocol has no acknowledgment to report that with.
func (s *Session) SetVolumeLevel(level float64) error {
	client, err := s.connectedClient()
	if err != nil {
		return err
	}

	s.mu.RLock()
	volumeMax := s.snapshot.VolumeMax
	s.mu.RUnlock()

	return client.SetVolume(int(math.Round(level * float64(volumeMax))))
}

// SetMute mutes or unmutes the device.
func (s *Session) SetMute(muted bool) error {
	client, err := s.connectedClient()
	if err != nil {
		return err
	}
	return client.SetMute(muted)
}

// SelectSource switches the input to the named function. Unknown names fail
// with ErrUnknownSource before anything is sent.
func (s *Session) SelectSource(name string) error {
	index := indexOf(s.cfg.Functions, name)
	if index == UnsetIndex {
		return fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	client, err := s.connectedClient()
	if err != nil {
		return err
	}
	return client.SetFunc(index)
}

// SelectSoundMode switches the equaliser to the named mode. Unknown names
// fail with ErrUnknownSoundMode before anything is sent.
func (s *Session) SelectSoundMode(name string) error {
	index := indexOf(s.cfg.Equalisers, name)
	if index == UnsetIndex {
		return fmt.Errorf("%w: %q", ErrUnknownSoundMode, name)
	}
	client, err := s.connectedClient()
	if err != nil {
		return err
	}
	return client.SetEQ(index)
}

// PowerOn requests power on. The snapshot is not touched; the new power
// state lands only when the device echoes it back.
func (s *Session) PowerOn() error {
	return s.setPower(true)
}

// PowerOff requests power off.
func (s *Session) PowerOff() error {
	return s.setPower(false)
}

func (s *Session) setPower(on bool) error {
	client, err := s.connectedClient()
	if err != nil {
		return err
	}
	return client.SetPower(on)
}

// VolumeLevel returns the volume as a fraction in [0, 1], or 0 while the
// device range is unknown.
func (s *Session) VolumeLevel() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot.VolumeMax == 0 {
		return 0
	}
	return float64(s.snapshot.Volume) / float64(s.snapshot.VolumeMax)
}

// IsMuted reports the last mute state pushed by the device.
func (s *Session) IsMuted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Muted
}

// SoundMode returns the current equaliser name, or "" while no valid mode
// has been reported.
func (s *Session) SoundMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nameAt(s.cfg.Equalisers, s.snapshot.CurrentEqualiser)
}

// SoundModeList returns the names of the available equaliser modes, sorted.
// Indices outside the name table are dropped.
func (s *Session) SoundModeList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedNames(s.cfg.Equalisers, s.snapshot.Equalisers)
}

// Source returns the current input name, or "" while no valid function has
// been reported.
func (s *Session) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nameAt(s.cfg.Functions, s.snapshot.CurrentFunction)
}

// SourceList returns the names of the available inputs, sorted.
func (s *Session) SourceList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedNames(s.cfg.Functions, s.snapshot.Functions)
}

// DisplayName returns the user-assigned device name, or "" if none was
// reported yet.
func (s *Session) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.DisplayName
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// handleEvent is the single snapshot writer. The transport invokes it one
// message at a time; the mutex covers platforms that deliver from varying
// goroutines.
func (s *Session) handleEvent(msg protocol.Message) {
	s.mu.Lock()
	switch msg.Msg {
	case protocol.MsgEQViewInfo:
		var p eqInfoPayload
		if err := json.Unmarshal(msg.Data, &p); err == nil {
			s.snapshot.applyEQInfo(p)
		}
	case protocol.MsgSpkListViewInfo:
		var p speakerInfoPayload
		if err := json.Unmarshal(msg.Data, &p); err == nil {
			s.snapshot.applySpeakerInfo(p)
		}
	case protocol.MsgFuncViewInfo:
		var p funcInfoPayload
		if err := json.Unmarshal(msg.Data, &p); err == nil {
			s.snapshot.applyFuncInfo(p)
		}
	case protocol.MsgSettingViewInfo:
		var p settingInfoPayload
		if err := json.Unmarshal(msg.Data, &p); err == nil {
			s.snapshot.applySettingInfo(p)
		}
	default:
		// Unrecognized kinds are not an error; the snapshot is untouched
		// but the change notification still fires.
	}
	s.mu.Unlock()

	if s.cfg.OnChange != nil {
		s.cfg.OnChange()
	}
}

func (s *Session) connectedClient() (DeviceClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}

func indexOf(table []string, name string) int {
	for i, entry := range table {
		if entry == name {
			return i
		}
	}
	return UnsetIndex
}

func nameAt(table []string, index int) string {
	if index == UnsetIndex || index < 0 || index >= len(table) {
		return ""
	}
	return table[index]
}

func sortedNames(table []string, indices []int) []string {
	names := make([]string, 0, len(indices))
	for _, index := range indices {
		if index >= 0 && index < len(table) {
			names = append(names, table[index])
		}
	}
	sort.Strings(names)
	return names
}
