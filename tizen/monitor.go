package tizen

import (
	"github.com/tvremote/go-tizenws/resilience"
)

// monitor polls the running state of every installed app over the control
// channel and resolves the app in the foreground. It runs for the lifetime of
// one control connection.
func (c *Client) monitor(s *session, conn *connection) {
	defer s.wg.Done()
	log := c.logger.WithPrefix("[monitor]")
	log.Debug("started")
	defer log.Debug("stopped")

	for c.monitoring(conn) {
		apps := c.apps.Load().apps()
		if len(apps) == 0 {
			if resilience.Sleep(conn.ctx, c.queryInterval) != nil {
				return
			}
			continue
		}
		c.found.Store(false)
		for _, app := range apps {
			if !c.monitoring(conn) {
				return
			}
			if err := c.control.send(conn.ctx, statusRequest(app)); err != nil {
				log.Debug("status query for %s failed: %s", app.ID, err)
			}
			if resilience.Sleep(conn.ctx, c.queryInterval) != nil {
				return
			}
		}
		if !c.found.Load() && c.CurrentApp() != nil {
			c.setCurrentApp(s, "")
		}
	}
}

func (c *Client) monitoring(conn *connection) bool {
	return conn.ctx.Err() == nil && c.control.State() == StateOpen
}
