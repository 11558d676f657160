package tizen

import "sort"

// KeyCommand is the press mode of a remote key
type KeyCommand string

const (
	KeyClick   KeyCommand = "Click"
	KeyPress   KeyCommand = "Press"
	KeyRelease KeyCommand = "Release"
)

// Common remote keys. Any other KEY_* code known to the TV can be passed to SendKey as is.
const (
	KeyPower       = "KEY_POWER"
	KeyHome        = "KEY_HOME"
	KeyMenu        = "KEY_MENU"
	KeySource      = "KEY_SOURCE"
	KeyEnter       = "KEY_ENTER"
	KeyReturn      = "KEY_RETURN"
	KeyExit        = "KEY_EXIT"
	KeyUp          = "KEY_UP"
	KeyDown        = "KEY_DOWN"
	KeyLeft        = "KEY_LEFT"
	KeyRight       = "KEY_RIGHT"
	KeyVolumeUp    = "KEY_VOLUP"
	KeyVolumeDown  = "KEY_VOLDOWN"
	KeyMute        = "KEY_MUTE"
	KeyChannelUp   = "KEY_CHUP"
	KeyChannelDown = "KEY_CHDOWN"
	KeyPlay        = "KEY_PLAY"
	KeyPause       = "KEY_PAUSE"
	KeyStop        = "KEY_STOP"
	KeyRewind      = "KEY_REWIND"
	KeyFastForward = "KEY_FF"
)

var sourceKeys = map[string]string{
	"TV":         "KEY_TV",
	"HDMI":       "KEY_HDMI",
	"HDMI1":      "KEY_HDMI1",
	"HDMI2":      "KEY_HDMI2",
	"HDMI3":      "KEY_HDMI3",
	"HDMI4":      "KEY_HDMI4",
	"AV1":        "KEY_AV1",
	"AV2":        "KEY_AV2",
	"AV3":        "KEY_AV3",
	"COMPONENT1": "KEY_COMPONENT1",
	"COMPONENT2": "KEY_COMPONENT2",
	"DTV":        "KEY_DTV",
	"ANTENNA":    "KEY_ANTENA",
}

// SourceKey returns the remote key that selects the named input source
func SourceKey(source string) (string, bool) {
	key, ok := sourceKeys[source]
	return key, ok
}

// Sources returns the names accepted by SelectSource
func Sources() []string {
	out := make([]string, 0, len(sourceKeys))
	for name := range sourceKeys {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func digitKey(r rune) string {
	return "KEY_" + string(r)
}
