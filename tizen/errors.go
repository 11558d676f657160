package tizen

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/tvremote/go-tizenws/resilience"
)

var (
	// ErrAuthorization is returned when the TV rejects a channel. Retrying cannot succeed until the user allows the client on the TV.
	ErrAuthorization = errors.New("TV refused authorization (ms.channel.unauthorized)")
	// ErrSendFailure is returned when a command is issued while the required channel is not open
	ErrSendFailure = errors.New("send failed")
	// ErrCancelled is returned when the client is closed while an operation is waiting
	ErrCancelled = errors.New("operation cancelled")
	// ErrTooManyFailures is surfaced when a channel gives up after its configured failure cap
	ErrTooManyFailures = resilience.ErrTooManyFailures
	// ErrInvalidHost is returned when the websocket URL cannot be built from the host
	ErrInvalidHost = errors.New("invalid host")
	// ErrUnknownSource is returned by SelectSource for source names without a remote key
	ErrUnknownSource = errors.New("unknown input source")
	// ErrInvalidChannel is returned by SetChannel for channel numbers that cannot be typed on the remote
	ErrInvalidChannel = errors.New("invalid channel number")
)

// TransportError wraps a socket level failure of a channel: refused connections,
// failed handshakes, abrupt closes. The supervisor recovers from it by retrying.
type TransportError struct {
	Channel ChannelName
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s channel: %s", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func sendFailure(ch ChannelName, cause error) error {
	return errors.Mark(errors.Wrapf(cause, "send on %s channel", ch), ErrSendFailure)
}
