package soundbar

// PowerState is the last power status reported by the device.
type PowerState string

const (
	PowerOn  PowerState = "ON"
	PowerOff PowerState = "OFF"
)

// UnsetIndex marks a table index the device has not reported yet.
const UnsetIndex = -1

// Snapshot is the last-known state of a single soundbar. It is owned by the
// session's event handler, which is the only writer; everything else reads
// copies through the session accessors.
type Snapshot struct {
	Power PowerState `json:"power"`

	Volume    int `json:"volume"`
	VolumeMin int `json:"volume_min"`
	VolumeMax int `json:"volume_max"`

	Muted bool `json:"muted"`

	CurrentFunction int   `json:"current_function"`
	Functions       []int `json:"functions"`

	CurrentEqualiser int   `json:"current_equaliser"`
	Equalisers       []int `json:"equalisers"`

	Bass   int `json:"bass"`
	Treble int `json:"treble"`

	RearVolume    int `json:"rear_volume"`
	RearVolumeMin int `json:"rear_volume_min"`
	RearVolumeMax int `json:"rear_volume_max"`

	WooferVolume    int `json:"woofer_volume"`
	WooferVolumeMin int `json:"woofer_volume_min"`
	WooferVolumeMax int `json:"woofer_volume_max"`

	DisplayName string `json:"display_name,omitempty"`
}

func newSnapshot() Snapshot {
	return Snapshot{
		Power:            PowerOn,
		CurrentFunction:  UnsetIndex,
		CurrentEqualiser: UnsetIndex,
	}
}

// The apply functions merge one event payload into the snapshot. Every field
// is optional per message: a present key overwrites, an absent key retains
// the previous value. No kind ever clears a field it does not mention, which
// is what lets the four unordered poll responses converge on one snapshot.

func (s *Snapshot) applyEQInfo(p eqInfoPayload) {
	if p.Bass != nil {
		s.Bass = *p.Bass
	}
	if p.Treble != nil {
		s.Treble = *p.Treble
	}
	if p.EqualiserList != nil {
		s.Equalisers = p.EqualiserList
	}
	if p.CurrentEqualiser != nil {
		s.CurrentEqualiser = *p.CurrentEqualiser
	}
}

func (s *Snapshot) applySpeakerInfo(p speakerInfoPayload) {
	if p.Volume != nil {
		s.Volume = *p.Volume
	}
	if p.VolumeMin != nil {
		s.VolumeMin = *p.VolumeMin
	}
	if p.VolumeMax != nil {
		s.VolumeMax = *p.VolumeMax
	}
	if p.CurrentFunction != nil {
		s.CurrentFunction = *p.CurrentFunction
	}
	if p.Mute != nil {
		s.Muted = *p.Mute
	}
	// The firmware gates the power update on "b_powerstatus" but carries the
	// value under "b_power_status". Reproduced as-is; a missing value key
	// reads as off. See TestSpeakerInfoPowerKeyMismatch.
	if p.PowerStatusPresent != nil {
		if p.PowerStatus != nil && *p.PowerStatus {
			s.Power = PowerOn
		} else {
			s.Power = PowerOff
		}
	}
}

func (s *Snapshot) applyFuncInfo(p funcInfoPayload) {
	if p.CurrentFunction != nil {
		s.CurrentFunction = *p.CurrentFunction
	}
	if p.FunctionList != nil {
		s.Functions = p.FunctionList
	}
}

func (s *Snapshot) applySettingInfo(p settingInfoPayload) {
	if p.RearMin != nil {
		s.RearVolumeMin = *p.RearMin
	}
	if p.RearMax != nil {
		s.RearVolumeMax = *p.RearMax
	}
	if p.RearLevel != nil {
		s.RearVolume = *p.RearLevel
	}
	if p.WooferMin != nil {
		s.WooferVolumeMin = *p.WooferMin
	}
	if p.WooferMax != nil {
		s.WooferVolumeMax = *p.WooferMax
	}
	if p.WooferLevel != nil {
		s.WooferVolume = *p.WooferLevel
	}
	if p.CurrentEqualiser != nil {
		s.CurrentEqualiser = *p.CurrentEqualiser
	}
	if p.UserName != nil {
		s.DisplayName = *p.UserName
	}
}
