package tizen

// Handler receives the asynchronous notifications of a Client. Callbacks run on
// the client's background goroutines: they must not block for long and must not
// call Close, which waits for those goroutines to exit.
type Handler interface {
	// OnConnect is called when a channel handshake is confirmed by the TV
	OnConnect(client *Client, channel ChannelName)

	// OnDisconnect is called when an open channel socket is closed
	OnDisconnect(client *Client, channel ChannelName)

	// OnAppChange is called once per change of the foreground app. app is nil when the TV returned to its home screen.
	OnAppChange(client *Client, app *App)

	// OnInstalledApps is called after the installed app list was replaced
	OnInstalledApps(client *Client, apps []App)

	// OnError is called when a channel stops for good, with ErrAuthorization or ErrTooManyFailures
	OnError(client *Client, channel ChannelName, err error)
}

// HandlerCallback is a struct that implements the Handler interface
type HandlerCallback struct {
	OnConnectFunc       func(client *Client, channel ChannelName)
	OnDisconnectFunc    func(client *Client, channel ChannelName)
	OnAppChangeFunc     func(client *Client, app *App)
	OnInstalledAppsFunc func(client *Client, apps []App)
	OnErrorFunc         func(client *Client, channel ChannelName, err error)
}

var _ Handler = (*HandlerCallback)(nil)

func (h *HandlerCallback) OnConnect(client *Client, channel ChannelName) {
	if h.OnConnectFunc != nil {
		h.OnConnectFunc(client, channel)
	}
}

func (h *HandlerCallback) OnDisconnect(client *Client, channel ChannelName) {
	if h.OnDisconnectFunc != nil {
		h.OnDisconnectFunc(client, channel)
	}
}

func (h *HandlerCallback) OnAppChange(client *Client, app *App) {
	if h.OnAppChangeFunc != nil {
		h.OnAppChangeFunc(client, app)
	}
}

func (h *HandlerCallback) OnInstalledApps(client *Client, apps []App) {
	if h.OnInstalledAppsFunc != nil {
		h.OnInstalledAppsFunc(client, apps)
	}
}

func (h *HandlerCallback) OnError(client *Client, channel ChannelName, err error) {
	if h.OnErrorFunc != nil {
		h.OnErrorFunc(client, channel, err)
	}
}
