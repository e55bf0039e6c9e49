package soundbar

// Per-kind event payloads. Pointer fields (and nil-able slices) distinguish
// "key absent" from a zero value; the wire keys are owned by the device
// firmware.

type eqInfoPayload struct {
	Bass             *int  `json:"i_bass"`
	Treble           *int  `json:"i_treble"`
	EqualiserList    []int `json:"ai_eq_list"`
	CurrentEqualiser *int  `json:"i_curr_eq"`
}

type speakerInfoPayload struct {
	Volume          *int  `json:"i_vol"`
	VolumeMin       *int  `json:"i_vol_min"`
	VolumeMax       *int  `json:"i_vol_max"`
	CurrentFunction *int  `json:"i_curr_func"`
	Mute            *bool `json:"b_mute"`

	// Two distinct keys, see Snapshot.applySpeakerInfo.
	PowerStatusPresent *bool `json:"b_powerstatus"`
	PowerStatus        *bool `json:"b_power_status"`
}

type funcInfoPayload struct {
	CurrentFunction *int  `json:"i_curr_func"`
	FunctionList    []int `json:"ai_func_list"`
}

type settingInfoPayload struct {
	RearMin          *int    `json:"i_rear_min"`
	RearMax          *int    `json:"i_rear_max"`
	RearLevel        *int    `json:"i_rear_level"`
	WooferMin        *int    `json:"i_woofer_min"`
	WooferMax        *int    `json:"i_woofer_max"`
	WooferLevel      *int    `json:"i_woofer_level"`
	CurrentEqualiser *int    `json:"i_curr_eq"`
	UserName         *string `json:"s_user_name"`
}
