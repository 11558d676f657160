package tizen

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
)

const (
	eventConnect       = "ms.channel.connect"
	eventUnauthorized  = "ms.channel.unauthorized"
	eventInstalledApps = "ed.installedApp.get"
	eventError         = "ms.error"
)

// MessageKind classifies an inbound frame
type MessageKind int

const (
	// MessageUnknown frames carry neither a recognized event nor a result
	MessageUnknown MessageKind = iota
	// MessageConnect is the handshake acknowledgment, optionally carrying a fresh token
	MessageConnect
	// MessageUnauthorized means the TV rejected the channel
	MessageUnauthorized
	// MessageInstalledApps carries the list of installed apps
	MessageInstalledApps
	// MessageAppStatus is the answer to a running-state query or app start
	MessageAppStatus
	// MessageDeviceError is an error reported by the TV for a request
	MessageDeviceError
	// MessageEvent is any other event, kept for logging only
	MessageEvent
)

func (k MessageKind) String() string {
	switch k {
	case MessageConnect:
		return "connect"
	case MessageUnauthorized:
		return "unauthorized"
	case MessageInstalledApps:
		return "installed-apps"
	case MessageAppStatus:
		return "app-status"
	case MessageDeviceError:
		return "device-error"
	case MessageEvent:
		return "event"
	default:
		return "unknown"
	}
}

// AppStatus is the running state reported for one app
type AppStatus struct {
	ID      string
	Running bool
	Visible bool
	// Detailed is set when the TV answered with a {running, visible, id} object instead of a bare bool
	Detailed bool
}

// Foreground returns true if the status means the app is the one on screen
func (s AppStatus) Foreground() bool {
	return s.Running && (!s.Detailed || s.Visible)
}

// Message is an inbound frame decoded into one of the known kinds
type Message struct {
	Kind  MessageKind
	Event string
	// ID is the request id echoed by the TV, if any
	ID string
	// Token is set on MessageConnect when the TV issued one
	Token string
	// Apps is set on MessageInstalledApps
	Apps []App
	// Status is set on MessageAppStatus
	Status AppStatus
	// Error is set on MessageDeviceError
	Error string
}

// flexString accepts JSON strings and numbers. Tokens and ids are numeric on some firmware.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Newf("expected string or number, got %s", string(b))
	}
	*f = flexString(n.String())
	return nil
}

// UnmarshalJSON accepts the app type as a number or a numeric string
func (t *AppType) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*t = 0
		return nil
	}
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return errors.Newf("invalid app_type %q", string(s))
	}
	*t = AppType(n)
	return nil
}

type rawFrame struct {
	Event  string          `json:"event"`
	ID     flexString      `json:"id"`
	Data   json.RawMessage `json:"data"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type connectData struct {
	Token flexString `json:"token"`
}

type installedAppsData struct {
	Data []App `json:"data"`
}

type statusResult struct {
	ID      flexString `json:"id"`
	Running bool       `json:"running"`
	Visible bool       `json:"visible"`
}

type errorData struct {
	Message string `json:"message"`
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// DecodeMessage classifies a text frame received from the TV. Frames that are
// not JSON objects, or whose payload does not match their kind, return an error.
func DecodeMessage(data []byte) (Message, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, errors.Wrap(err, "decoding frame")
	}
	msg := Message{Event: raw.Event, ID: string(raw.ID)}
	switch raw.Event {
	case eventConnect:
		msg.Kind = MessageConnect
		if present(raw.Data) {
			var cd connectData
			if err := json.Unmarshal(raw.Data, &cd); err != nil {
				return Message{}, errors.Wrap(err, "decoding connect data")
			}
			msg.Token = string(cd.Token)
		}
		return msg, nil
	case eventUnauthorized:
		msg.Kind = MessageUnauthorized
		return msg, nil
	case eventInstalledApps:
		if !present(raw.Data) {
			return Message{}, errors.New("installed apps frame without data")
		}
		var ad installedAppsData
		if err := json.Unmarshal(raw.Data, &ad); err != nil {
			return Message{}, errors.Wrap(err, "decoding installed apps")
		}
		if ad.Data == nil {
			return Message{}, errors.New("installed apps frame without app list")
		}
		msg.Kind = MessageInstalledApps
		msg.Apps = ad.Data
		return msg, nil
	case eventError:
		msg.Kind = MessageDeviceError
		msg.Error = describeError(raw.Data)
		return msg, nil
	case "":
	default:
		msg.Kind = MessageEvent
		return msg, nil
	}

	switch {
	case present(raw.Result):
		status, ok := decodeStatus(raw.Result, msg.ID)
		if !ok {
			return msg, nil
		}
		msg.Kind = MessageAppStatus
		msg.Status = status
	case present(raw.Error):
		msg.Kind = MessageDeviceError
		msg.Error = describeError(raw.Error)
	}
	return msg, nil
}

func decodeStatus(result json.RawMessage, id string) (AppStatus, bool) {
	var running bool
	if err := json.Unmarshal(result, &running); err == nil {
		return AppStatus{ID: id, Running: running}, true
	}
	var sr statusResult
	if err := json.Unmarshal(result, &sr); err != nil {
		return AppStatus{}, false
	}
	status := AppStatus{ID: string(sr.ID), Running: sr.Running, Visible: sr.Visible, Detailed: true}
	if status.ID == "" {
		status.ID = id
	}
	return status, true
}

func describeError(raw json.RawMessage) string {
	if !present(raw) {
		return "unknown error"
	}
	var ed errorData
	if err := json.Unmarshal(raw, &ed); err == nil && ed.Message != "" {
		return ed.Message
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return string(raw)
}
