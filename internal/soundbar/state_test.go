package soundbar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestNewSnapshotDefaults(t *testing.T) {
	s := newSnapshot()

	assert.Equal(t, PowerOn, s.Power)
	assert.Equal(t, UnsetIndex, s.CurrentFunction)
	assert.Equal(t, UnsetIndex, s.CurrentEqualiser)
	assert.Equal(t, 0, s.Volume)
	assert.Equal(t, 0, s.VolumeMax)
	assert.False(t, s.Muted)
	assert.Empty(t, s.DisplayName)
}

func TestApplyEQInfoOverwritesPresentFields(t *testing.T) {
	s := newSnapshot()
	s.Bass = 2
	s.Treble = 3

	s.applyEQInfo(eqInfoPayload{
		Bass:             intPtr(7),
		EqualiserList:    []int{0, 2},
		CurrentEqualiser: intPtr(2),
	})

	assert.Equal(t, 7, s.Bass)
	assert.Equal(t, 3, s.Treble, "absent key retains prior value")
	assert.Equal(t, []int{0, 2}, s.Equalisers)
	assert.Equal(t, 2, s.CurrentEqualiser)
}

func TestApplySpeakerInfoRetainsAbsentFields(t *testing.T) {
	s := newSnapshot()
	s.Volume = 12
	s.VolumeMin = 0
	s.VolumeMax = 40
	s.CurrentFunction = 4

	s.applySpeakerInfo(speakerInfoPayload{Volume: intPtr(20)})

	assert.Equal(t, 20, s.Volume)
	assert.Equal(t, 0, s.VolumeMin)
	assert.Equal(t, 40, s.VolumeMax)
	assert.Equal(t, 4, s.CurrentFunction)
	assert.Equal(t, PowerOn, s.Power)
}

func TestApplySpeakerInfoMute(t *testing.T) {
	s := newSnapshot()

	s.applySpeakerInfo(speakerInfoPayload{Mute: boolPtr(true)})
	assert.True(t, s.Muted)

	s.applySpeakerInfo(speakerInfoPayload{Volume: intPtr(5)})
	assert.True(t, s.Muted, "mute retained when key absent")

	s.applySpeakerInfo(speakerInfoPayload{Mute: boolPtr(false)})
	assert.False(t, s.Muted)
}

// The firmware gates power updates on "b_powerstatus" but reports the value
// under "b_power_status". These tests pin that exact behavior.
func TestSpeakerInfoPowerKeyMismatch(t *testing.T) {
	t.Run("value key alone leaves power unchanged", func(t *testing.T) {
		s := newSnapshot()
		s.applySpeakerInfo(speakerInfoPayload{PowerStatus: boolPtr(false)})
		assert.Equal(t, PowerOn, s.Power)
	})

	t.Run("gate key present reads value key", func(t *testing.T) {
		s := newSnapshot()
		s.applySpeakerInfo(speakerInfoPayload{
			PowerStatusPresent: boolPtr(true),
			PowerStatus:        boolPtr(false),
		})
		assert.Equal(t, PowerOff, s.Power)

		s.applySpeakerInfo(speakerInfoPayload{
			PowerStatusPresent: boolPtr(true),
			PowerStatus:        boolPtr(true),
		})
		assert.Equal(t, PowerOn, s.Power)
	})

	t.Run("gate key without value key reads as off", func(t *testing.T) {
		s := newSnapshot()
		s.applySpeakerInfo(speakerInfoPayload{PowerStatusPresent: boolPtr(true)})
		assert.Equal(t, PowerOff, s.Power)
	})
}

func TestApplyFuncInfo(t *testing.T) {
	s := newSnapshot()

	s.applyFuncInfo(funcInfoPayload{FunctionList: []int{1, 0, 6}})
	assert.Equal(t, []int{1, 0, 6}, s.Functions)
	assert.Equal(t, UnsetIndex, s.CurrentFunction, "absent key retains sentinel")

	s.applyFuncInfo(funcInfoPayload{CurrentFunction: intPtr(6)})
	assert.Equal(t, 6, s.CurrentFunction)
	assert.Equal(t, []int{1, 0, 6}, s.Functions)
}

func TestApplySettingInfo(t *testing.T) {
	s := newSnapshot()

	s.applySettingInfo(settingInfoPayload{
		RearMin:          intPtr(-6),
		RearMax:          intPtr(6),
		RearLevel:        intPtr(2),
		WooferMin:        intPtr(0),
		WooferMax:        intPtr(20),
		WooferLevel:      intPtr(10),
		CurrentEqualiser: intPtr(3),
		UserName:         strPtr("Living Room"),
	})

	assert.Equal(t, -6, s.RearVolumeMin)
	assert.Equal(t, 6, s.RearVolumeMax)
	assert.Equal(t, 2, s.RearVolume)
	assert.Equal(t, 0, s.WooferVolumeMin)
	assert.Equal(t, 20, s.WooferVolumeMax)
	assert.Equal(t, 10, s.WooferVolume)
	assert.Equal(t, 3, s.CurrentEqualiser)
	assert.Equal(t, "Living Room", s.DisplayName)

	s.applySettingInfo(settingInfoPayload{WooferLevel: intPtr(12)})
	assert.Equal(t, 12, s.WooferVolume)
	assert.Equal(t, "Living Room", s.DisplayName, "absent key retains name")
}

func TestApplyIsIdempotent(t *testing.T) {
	payload := speakerInfoPayload{
		Volume:    intPtr(20),
		VolumeMin: intPtr(0),
		VolumeMax: intPtr(40),
	}

	once := newSnapshot()
	once.applySpeakerInfo(payload)

	twice := newSnapshot()
	twice.applySpeakerInfo(payload)
	twice.applySpeakerInfo(payload)

	assert.Equal(t, once, twice)
}
