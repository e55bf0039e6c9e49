package soundbar

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/soundbar-hub-go/internal/soundbar/protocol"
)

var (
	testFunctions  = []string{"WIFI", "BT", "Aux", "Optical", "HDMI"}
	testEqualisers = []string{"Standard", "Bass", "Cinema", "Night"}
)

type fakeClient struct {
	mu    sync.Mutex
	calls []string

	lastVolume int
	lastFunc   int
	lastEQ     int
}

func (f *fakeClient) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) GetProductInfo() error      { return f.record("get_product_info") }
func (f *fakeClient) GetMACInfo() error          { return f.record("get_mac_info") }
func (f *fakeClient) GetEQ() error               { return f.record("get_eq") }
func (f *fakeClient) GetInfo() error             { return f.record("get_info") }
func (f *fakeClient) GetFunc() error             { return f.record("get_func") }
func (f *fakeClient) GetSettings() error         { return f.record("get_settings") }
func (f *fakeClient) SetMute(muted bool) error   { return f.record("set_mute") }
func (f *fakeClient) SetPower(on bool) error     { return f.record("set_power") }
func (f *fakeClient) Close() error               { return f.record("close") }

func (f *fakeClient) SetVolume(level int) error {
	f.mu.Lock()
	f.lastVolume = level
	f.mu.Unlock()
	return f.record("set_volume")
}

func (f *fakeClient) SetFunc(index int) error {
	f.mu.Lock()
	f.lastFunc = index
	f.mu.Unlock()
	return f.record("set_func")
}

func (f *fakeClient) SetEQ(index int) error {
	f.mu.Lock()
	f.lastEQ = index
	f.mu.Unlock()
	return f.record("set_eq")
}

// newTestSession returns a connected session backed by a fake transport,
// along with the fake and a function that pushes a device event through the
// registered callback.
func newTestSession(t *testing.T, onChange func()) (*Session, *fakeClient, func(kind, data string)) {
	t.Helper()

	client := &fakeClient{}
	var deliver func(protocol.Message)

	session := NewSession(Config{
		Host:       "192.168.1.40",
		Functions:  testFunctions,
		Equalisers: testEqualisers,
		OnChange:   onChange,
		Dial: func(ctx context.Context, host string, port int, onEvent func(protocol.Message)) (DeviceClient, error) {
			deliver = onEvent
			return client, nil
		},
	})

	require.NoError(t, session.Connect(context.Background()))
	require.NotNil(t, deliver)

	push := func(kind, data string) {
		deliver(protocol.Message{Msg: kind, Data: json.RawMessage(data)})
	}
	return session, client, push
}

func TestConnectPrimesDevice(t *testing.T) {
	_, client, _ := newTestSession(t, nil)

	assert.Equal(t, []string{
		"get_product_info",
		"get_mac_info",
		"get_eq",
		"get_info",
		"get_func",
		"get_settings",
	}, client.Calls())
}

func TestRefreshAllIssuesFourQueries(t *testing.T) {
	session, client, _ := newTestSession(t, nil)

	before := len(client.Calls())
	require.NoError(t, session.RefreshAll())

	assert.Equal(t, []string{"get_eq", "get_info", "get_func", "get_settings"}, client.Calls()[before:])
}

func TestCommandsBeforeConnect(t *testing.T) {
	session := NewSession(Config{Host: "192.168.1.40"})

	assert.ErrorIs(t, session.RefreshAll(), ErrNotConnected)
	assert.ErrorIs(t, session.SetMute(true), ErrNotConnected)
	assert.ErrorIs(t, session.PowerOn(), ErrNotConnected)
}

func TestVolumeLevel(t *testing.T) {
	session, _, push := newTestSession(t, nil)

	assert.Equal(t, 0.0, session.VolumeLevel(), "zero while range unknown")

	push(protocol.MsgSpkListViewInfo, `{"i_vol": 20, "i_vol_min": 0, "i_vol_max": 40}`)
	assert.InDelta(t, 0.5, session.VolumeLevel(), 1e-9)

	push(protocol.MsgSpkListViewInfo, `{"i_vol": 40}`)
	assert.InDelta(t, 1.0, session.VolumeLevel(), 1e-9)
}

func TestSetVolumeLevelScalesToDeviceRange(t *testing.T) {
	session, client, push := newTestSession(t, nil)

	// Range still unknown: the command degenerates to volume 0.
	require.NoError(t, session.SetVolumeLevel(0.5))
	assert.Equal(t, 0, client.lastVolume)

	push(protocol.MsgSpkListViewInfo, `{"i_vol_max": 40}`)
	require.NoError(t, session.SetVolumeLevel(0.5))
	assert.Equal(t, 20, client.lastVolume)

	require.NoError(t, session.SetVolumeLevel(0.33))
	assert.Equal(t, 13, client.lastVolume, "rounded, not truncated")
}

func TestSelectSource(t *testing.T) {
	session, client, _ := newTestSession(t, nil)
	before := len(client.Calls())

	require.NoError(t, session.SelectSource("Optical"))
	assert.Equal(t, 3, client.lastFunc)

	err := session.SelectSource("NoSuchInput")
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Len(t, client.Calls(), before+1, "rejected name sends nothing")
}

func TestSelectSoundMode(t *testing.T) {
	session, client, _ := newTestSession(t, nil)
	before := len(client.Calls())

	require.NoError(t, session.SelectSoundMode("Cinema"))
	assert.Equal(t, 2, client.lastEQ)

	err := session.SelectSoundMode("NoSuchMode")
	assert.ErrorIs(t, err, ErrUnknownSoundMode)
	assert.Len(t, client.Calls(), before+1)
}

func TestPowerCommandsDoNotMutateSnapshot(t *testing.T) {
	session, _, _ := newTestSession(t, nil)

	require.NoError(t, session.PowerOff())
	assert.Equal(t, PowerOn, session.Snapshot().Power, "power state changes only via device echo")

	require.NoError(t, session.PowerOn())
	assert.Equal(t, PowerOn, session.Snapshot().Power)
}

func TestSoundModeAndSourceAccessors(t *testing.T) {
	session, _, push := newTestSession(t, nil)

	assert.Empty(t, session.SoundMode())
	assert.Empty(t, session.Source())

	push(protocol.MsgEQViewInfo, `{"i_curr_eq": 2, "ai_eq_list": [3, 0, 2]}`)
	push(protocol.MsgFuncViewInfo, `{"i_curr_func": 1, "ai_func_list": [4, 1, 0]}`)

	assert.Equal(t, "Cinema", session.SoundMode())
	assert.Equal(t, "BT", session.Source())
	assert.Equal(t, []string{"Cinema", "Night", "Standard"}, session.SoundModeList(), "lexicographically sorted")
	assert.Equal(t, []string{"BT", "HDMI", "WIFI"}, session.SourceList())
}

func TestListsDropOutOfRangeIndices(t *testing.T) {
	session, _, push := newTestSession(t, nil)

	push(protocol.MsgEQViewInfo, `{"ai_eq_list": [0, 99]}`)
	push(protocol.MsgFuncViewInfo, `{"ai_func_list": [98, 2]}`)

	assert.Equal(t, []string{"Standard"}, session.SoundModeList())
	assert.Equal(t, []string{"Aux"}, session.SourceList())
}

func TestOutOfRangeCurrentIndexReadsAsUnset(t *testing.T) {
	session, _, push := newTestSession(t, nil)

	push(protocol.MsgEQViewInfo, `{"i_curr_eq": 99}`)
	push(protocol.MsgFuncViewInfo, `{"i_curr_func": 99}`)

	assert.Empty(t, session.SoundMode())
	assert.Empty(t, session.Source())
}

func TestEveryMessageFiresChangeNotification(t *testing.T) {
	notified := 0
	session, _, push := newTestSession(t, func() { notified++ })

	push(protocol.MsgSpkListViewInfo, `{"i_vol": 10}`)
	push(protocol.MsgEQViewInfo, `{}`)
	push("WEIRD", `{}`)
	push(protocol.MsgSettingViewInfo, `not-json`)

	assert.Equal(t, 4, notified, "recognized, unrecognized and malformed messages all notify")
	assert.Equal(t, 10, session.Snapshot().Volume)
}

// End-to-end merge scenario across unordered event kinds.
func TestEventStreamScenario(t *testing.T) {
	notified := 0
	session, _, push := newTestSession(t, func() { notified++ })

	push(protocol.MsgSpkListViewInfo, `{"i_vol": 20, "i_vol_min": 0, "i_vol_max": 40}`)
	assert.InDelta(t, 0.5, session.VolumeLevel(), 1e-9)

	trebleBefore := session.Snapshot().Treble
	push(protocol.MsgEQViewInfo, `{"i_bass": 5}`)
	assert.Equal(t, 5, session.Snapshot().Bass)
	assert.Equal(t, trebleBefore, session.Snapshot().Treble)

	before := session.Snapshot()
	push("WEIRD", `{}`)
	assert.Equal(t, before, session.Snapshot(), "unrecognized kind leaves snapshot untouched")
	assert.Equal(t, 3, notified)
}

func TestDisplayNameFromSettings(t *testing.T) {
	session, _, push := newTestSession(t, nil)

	push(protocol.MsgSettingViewInfo, `{"s_user_name": "Bedroom Bar"}`)
	assert.Equal(t, "Bedroom Bar", session.DisplayName())
}

func TestCloseShutsDownTransport(t *testing.T) {
	session, client, _ := newTestSession(t, nil)

	require.NoError(t, session.Close())
	assert.Contains(t, client.Calls(), "close")
	assert.ErrorIs(t, session.RefreshAll(), ErrNotConnected)
}
