package protocol

// Functions maps a function index reported by the device to its input name.
// The order is fixed by the device firmware; indices in FUNC_VIEW_INFO
// payloads point into this table.
var Functions = []string{
	"WIFI",
	"BT",
	"Portable",
	"Aux",
	"Optical",
	"CP",
	"HDMI",
	"ARC",
	"Spotify",
	"Optical2",
	"HDMI2",
	"DLNA",
	"GoogleCast",
	"USB2",
	"USB",
	"E-ARC",
}

// Equalisers maps an equaliser index reported by the device to its sound
// mode name. Same firmware-fixed ordering contract as Functions.
var Equalisers = []string{
	"Standard",
	"Bass",
	"Flat",
	"Boost",
	"Treble and Bass",
	"User",
	"Music",
	"Cinema",
	"Night",
	"News",
	"Voice",
	"ia_sound",
	"Adaptive Sound Control",
	"Movie",
	"Bass Blast",
	"Dolby Atmos",
	"DTS Virtual X",
	"Bass Boost Plus",
	"DTS X",
}
