package tizen

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tvremote/go-tizenws/resilience"
)

type keyOptions struct {
	cmd   KeyCommand
	delay *time.Duration
}

// KeyOption customizes a single SendKey call
type KeyOption func(*keyOptions)

// WithKeyPressDelay overrides the pause after the key press. Zero or a negative value means no pause.
func WithKeyPressDelay(d time.Duration) KeyOption {
	return func(o *keyOptions) {
		o.delay = &d
	}
}

// WithoutDelay returns right after the key press was sent
func WithoutDelay() KeyOption {
	return WithKeyPressDelay(0)
}

// WithKeyCommand sends the key as a press or release instead of a click
func WithKeyCommand(cmd KeyCommand) KeyOption {
	return func(o *keyOptions) {
		o.cmd = cmd
	}
}

// SendKey sends a remote key press on the remote channel and then pauses for
// the key press delay, so consecutive keys are not dropped by the TV. It fails
// with ErrSendFailure when the remote channel is not open and does not retry.
func (c *Client) SendKey(ctx context.Context, key string, opts ...KeyOption) error {
	o := keyOptions{cmd: KeyClick}
	for _, opt := range opts {
		opt(&o)
	}
	delay := c.keyPressDelay
	if o.delay != nil {
		delay = *o.delay
	}
	s := c.currentSession()
	if s == nil {
		return sendFailure(ChannelRemote, errors.New("client is not open"))
	}
	if err := c.remote.send(ctx, keyRequest(o.cmd, key)); err != nil {
		return err
	}
	c.logger.Debug("sent key %s", key)
	if delay <= 0 {
		return nil
	}
	// Close interrupts the pause as well
	sleepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()
	if err := resilience.Sleep(sleepCtx, delay); err != nil {
		if s.ctx.Err() != nil {
			return errors.Wrap(ErrCancelled, "client closed")
		}
		return errors.Mark(err, ErrCancelled)
	}
	return nil
}

// SendKeys sends the keys in order, stopping at the first failure
func (c *Client) SendKeys(ctx context.Context, keys []string, opts ...KeyOption) error {
	for _, key := range keys {
		if err := c.SendKey(ctx, key, opts...); err != nil {
			return err
		}
	}
	return nil
}

// RunApp starts an app. An empty actionType is derived from the installed app
// type: deep link apps are started on the control channel, everything else,
// including unknown ids, with a NATIVE_LAUNCH event on the remote channel.
func (c *Client) RunApp(ctx context.Context, appID, actionType, metaTag string) error {
	if actionType == "" {
		actionType = ActionNativeLaunch
		if app, ok := c.App(appID); ok {
			actionType = app.Type.launchAction()
		}
	}
	if c.currentSession() == nil {
		return sendFailure(channelFor(actionType), errors.New("client is not open"))
	}
	var err error
	if actionType == ActionDeepLink {
		err = c.control.send(ctx, startRequest(appID))
	} else {
		err = c.remote.send(ctx, launchRequest(appID, actionType, metaTag))
	}
	if err != nil {
		return err
	}
	c.logger.Debug("launched %s (%s)", appID, actionType)
	return nil
}

func channelFor(actionType string) ChannelName {
	if actionType == ActionDeepLink {
		return ChannelControl
	}
	return ChannelRemote
}

// RequestInstalledApps asks the TV for a fresh installed app list. The answer
// arrives asynchronously and is reported to Handler.OnInstalledApps.
func (c *Client) RequestInstalledApps(ctx context.Context) error {
	if c.currentSession() == nil {
		return sendFailure(ChannelRemote, errors.New("client is not open"))
	}
	return c.requestInstalledApps(ctx)
}

// SelectSource switches the TV input by sending the matching source key
func (c *Client) SelectSource(ctx context.Context, source string) error {
	key, ok := SourceKey(strings.ToUpper(strings.TrimSpace(source)))
	if !ok {
		return errors.Wrapf(ErrUnknownSource, "%q", source)
	}
	return c.SendKey(ctx, key)
}

// SetChannel types the channel number on the remote and confirms it with KEY_ENTER
func (c *Client) SetChannel(ctx context.Context, number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return errors.Wrap(ErrInvalidChannel, "empty channel number")
	}
	keys := make([]string, 0, len(number)+1)
	for _, r := range number {
		switch {
		case r >= '0' && r <= '9':
			keys = append(keys, digitKey(r))
		case r == '-' || r == '.':
			keys = append(keys, "KEY_PLUS100")
		default:
			return errors.Wrapf(ErrInvalidChannel, "%q", number)
		}
	}
	keys = append(keys, KeyEnter)
	return c.SendKeys(ctx, keys)
}

// ChannelUp sends KEY_CHUP
func (c *Client) ChannelUp(ctx context.Context) error {
	return c.SendKey(ctx, KeyChannelUp)
}

// ChannelDown sends KEY_CHDOWN
func (c *Client) ChannelDown(ctx context.Context) error {
	return c.SendKey(ctx, KeyChannelDown)
}
