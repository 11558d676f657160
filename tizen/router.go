package tizen

import (
	"context"

	"github.com/cockroachdb/errors"
)

// route handles one decoded frame read from a channel. A returned error ends
// the connection: ErrAuthorization stops the channel, anything else is retried.
func (c *Client) route(s *session, conn *connection, msg Message) error {
	ch := conn.channel
	switch msg.Kind {
	case MessageUnauthorized:
		return errors.Wrapf(ErrAuthorization, "%s channel", ch.name)

	case MessageConnect:
		if conn.handshook {
			ch.logger.Trace("ignoring repeated handshake")
			return nil
		}
		conn.handshook = true
		ch.backoff.Reset()
		ch.logger.Info("connected")
		if ch.name == ChannelRemote {
			c.remoteReady(s, conn, msg.Token)
		} else {
			c.connected.Store(true)
			s.wg.Add(1)
			go c.monitor(s, conn)
		}
		c.notify(s, func() { c.handler.OnConnect(c, ch.name) })

	case MessageInstalledApps:
		c.replaceApps(s, msg.Apps)

	case MessageAppStatus:
		switch {
		case ch.name != ChannelControl:
			ch.logger.Trace("ignoring app status for %q", msg.Status.ID)
		case msg.Status.ID == "":
			ch.logger.Debug("dropping app status without app id")
		case msg.Status.Foreground():
			c.setCurrentApp(s, msg.Status.ID)
		}

	case MessageDeviceError:
		ch.logger.Debug("device error for %q: %s", msg.ID, msg.Error)

	case MessageEvent:
		ch.logger.Trace("ignoring event %s", msg.Event)

	default:
		ch.logger.Trace("ignoring unrecognized frame")
	}
	return nil
}

// remoteReady runs once per remote handshake: it keeps the issued token, asks
// for the installed apps and brings up the control channel.
func (c *Client) remoteReady(s *session, conn *connection, token string) {
	if token != "" {
		if err := c.store.Set(s.ctx, TokenKey, token); err != nil {
			conn.channel.logger.Warn("failed to persist token: %s", err)
		} else {
			conn.channel.logger.Debug("token persisted")
		}
	}
	s.readyOnce.Do(func() { close(s.ready) })
	if err := c.remote.send(conn.ctx, installedAppsRequest()); err != nil {
		conn.channel.logger.Warn("failed to request installed apps: %s", err)
	}
	c.control.open(s)
}

// notify runs fn under the notification lock unless the session ended
func (c *Client) notify(s *session, fn func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if s.ctx.Err() == nil {
		fn()
	}
}

// replaceApps swaps in a new registry. Readers see either the old or the new one in full.
func (c *Client) replaceApps(s *session, apps []App) {
	r := newRegistry(apps, c.ignoreApps)
	c.notify(s, func() {
		c.apps.Store(r)
		c.logger.Debug("installed apps updated: %d apps", len(r.order))
		c.handler.OnInstalledApps(c, r.sorted())
		if current := c.CurrentApp(); current != nil {
			if _, ok := r.get(current.ID); !ok {
				c.switchApp(nil)
			}
		}
	})
}

// setCurrentApp makes the app with the given id current, or clears the
// current app when id is empty. The handler is told only about actual changes.
func (c *Client) setCurrentApp(s *session, id string) {
	var next *App
	if id != "" {
		app, ok := c.apps.Load().get(id)
		if !ok {
			c.logger.Trace("status for unknown app %q", id)
			return
		}
		c.found.Store(true)
		next = &app
	}
	c.notify(s, func() { c.switchApp(next) })
}

// switchApp replaces the current app and notifies the handler if it changed.
// Callers hold notifyMu.
func (c *Client) switchApp(next *App) {
	c.appMu.Lock()
	if sameApp(c.current, next) {
		c.appMu.Unlock()
		return
	}
	c.current = next
	c.appMu.Unlock()
	var app *App
	if next == nil {
		c.logger.Info("no app in the foreground")
	} else {
		c.logger.Info("current app: %s", next)
		cp := *next
		app = &cp
	}
	c.handler.OnAppChange(c, app)
}

func sameApp(a, b *App) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// requestInstalledApps sends the installed apps request on the remote channel
func (c *Client) requestInstalledApps(ctx context.Context) error {
	return c.remote.send(ctx, installedAppsRequest())
}
