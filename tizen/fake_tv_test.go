package tizen

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/tvremote/go-tizenws/logger"
	"github.com/tvremote/go-tizenws/resilience"
)

// frame is an outbound client frame as received by the fake TV
type frame struct {
	Method string         `json:"method"`
	ID     string         `json:"id"`
	Params map[string]any `json:"params"`
}

func (f frame) param(key string) string {
	s, _ := f.Params[key].(string)
	return s
}

func (f frame) data(key string) string {
	d, _ := f.Params["data"].(map[string]any)
	s, _ := d[key].(string)
	return s
}

// fakeTV speaks the server side of both channels
type fakeTV struct {
	t        *testing.T
	server   *httptest.Server
	upgrader websocket.Upgrader

	token        atomic.Value // string issued on remote connect
	unauthorized atomic.Bool
	foreground   atomic.Value // id of the app on screen

	// writeMu serializes writes, gorilla allows one concurrent writer
	writeMu sync.Mutex

	mu       sync.Mutex
	apps     []map[string]any
	conns    map[*websocket.Conn]ChannelName
	frames   map[ChannelName][]frame
	queries  map[ChannelName][]url.Values
	attempts map[ChannelName]int
}

func newFakeTV(t *testing.T) *fakeTV {
	tv := &fakeTV{
		t:        t,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		conns:    map[*websocket.Conn]ChannelName{},
		frames:   map[ChannelName][]frame{},
		queries:  map[ChannelName][]url.Values{},
		attempts: map[ChannelName]int{},
		apps: []map[string]any{
			{"appId": "111299001912", "app_type": 2, "name": "YouTube"},
			{"appId": "3201907018807", "app_type": 4, "name": "Netflix"},
			{"appId": "3201710015016", "app_type": 4, "name": "waipu.tv"},
		},
	}
	tv.token.Store("")
	tv.foreground.Store("")
	mux := http.NewServeMux()
	mux.HandleFunc(PathRemoteControl, func(w http.ResponseWriter, r *http.Request) {
		tv.serve(ChannelRemote, w, r)
	})
	mux.HandleFunc(PathAppControl, func(w http.ResponseWriter, r *http.Request) {
		tv.serve(ChannelControl, w, r)
	})
	tv.server = httptest.NewTLSServer(mux)
	t.Cleanup(func() {
		tv.dropAll()
		tv.server.Close()
	})
	return tv
}

func (tv *fakeTV) hostPort() (string, int) {
	u, err := url.Parse(tv.server.URL)
	require.NoError(tv.t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(tv.t, err)
	return u.Hostname(), port
}

func (tv *fakeTV) serve(name ChannelName, w http.ResponseWriter, r *http.Request) {
	tv.mu.Lock()
	tv.attempts[name]++
	tv.queries[name] = append(tv.queries[name], r.URL.Query())
	tv.mu.Unlock()

	conn, err := tv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	tv.mu.Lock()
	tv.conns[conn] = name
	tv.mu.Unlock()
	defer func() {
		tv.mu.Lock()
		delete(tv.conns, conn)
		tv.mu.Unlock()
		conn.Close()
	}()

	if name == ChannelRemote && tv.unauthorized.Load() {
		_ = tv.writeJSON(conn, map[string]any{"event": "ms.channel.unauthorized"})
	} else {
		data := map[string]any{"id": "client-1"}
		if token := tv.token.Load().(string); token != "" && name == ChannelRemote {
			data["token"] = token
		}
		_ = tv.writeJSON(conn, map[string]any{"event": "ms.channel.connect", "data": data})
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		tv.mu.Lock()
		tv.frames[name] = append(tv.frames[name], f)
		apps := tv.apps
		tv.mu.Unlock()

		switch {
		case f.Method == "ms.channel.emit" && f.param("event") == "ed.installedApp.get":
			_ = tv.writeJSON(conn, map[string]any{
				"event": "ed.installedApp.get",
				"from":  "host",
				"data":  map[string]any{"data": apps},
			})
		case f.Method == "ms.application.get" || f.Method == "ms.webapplication.get":
			running := tv.foreground.Load().(string) == f.ID
			_ = tv.writeJSON(conn, map[string]any{
				"id":     f.ID,
				"result": map[string]any{"id": f.ID, "running": running, "visible": running},
			})
		}
	}
}

func (tv *fakeTV) writeJSON(conn *websocket.Conn, v any) error {
	tv.writeMu.Lock()
	defer tv.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// sendRaw writes a text frame as is on every open socket of the channel
func (tv *fakeTV) sendRaw(name ChannelName, data string) {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	tv.writeMu.Lock()
	defer tv.writeMu.Unlock()
	for conn, ch := range tv.conns {
		if ch == name {
			require.NoError(tv.t, conn.WriteMessage(websocket.TextMessage, []byte(data)))
		}
	}
}

func (tv *fakeTV) dropAll() {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	for conn := range tv.conns {
		conn.Close()
	}
}

func (tv *fakeTV) framesOn(name ChannelName) []frame {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	return append([]frame(nil), tv.frames[name]...)
}

func (tv *fakeTV) queriesOn(name ChannelName) []url.Values {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	return append([]url.Values(nil), tv.queries[name]...)
}

func (tv *fakeTV) attemptsOn(name ChannelName) int {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	return tv.attempts[name]
}

func (tv *fakeTV) lastFrame(name ChannelName, method string) (frame, bool) {
	frames := tv.framesOn(name)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Method == method {
			return frames[i], true
		}
	}
	return frame{}, false
}

// recorder collects handler notifications
type recorder struct {
	mu          sync.Mutex
	connects    []ChannelName
	disconnects []ChannelName
	changes     []*App
	installed   [][]App
	errs        []error
}

func (r *recorder) handler() Handler {
	return &HandlerCallback{
		OnConnectFunc: func(_ *Client, ch ChannelName) {
			r.mu.Lock()
			r.connects = append(r.connects, ch)
			r.mu.Unlock()
		},
		OnDisconnectFunc: func(_ *Client, ch ChannelName) {
			r.mu.Lock()
			r.disconnects = append(r.disconnects, ch)
			r.mu.Unlock()
		},
		OnAppChangeFunc: func(_ *Client, app *App) {
			r.mu.Lock()
			r.changes = append(r.changes, app)
			r.mu.Unlock()
		},
		OnInstalledAppsFunc: func(_ *Client, apps []App) {
			r.mu.Lock()
			r.installed = append(r.installed, apps)
			r.mu.Unlock()
		},
		OnErrorFunc: func(_ *Client, _ ChannelName, err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) connectCount(ch ChannelName) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, c := range r.connects {
		if c == ch {
			n++
		}
	}
	return n
}

func (r *recorder) appChanges() []*App {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*App(nil), r.changes...)
}

func (r *recorder) errorList() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder) installedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.installed)
}

func testOptions(host string, port int, rec *recorder) Options {
	return Options{
		Logger:        logger.NewTestLogger(),
		Host:          host,
		Port:          port,
		Handler:       rec.handler(),
		KeyPressDelay: -1,
		QueryInterval: 5 * time.Millisecond,
		DialTimeout:   2 * time.Second,
		Backoff:       resilience.BackoffConfig{Base: 20 * time.Millisecond, Max: 100 * time.Millisecond},
		IgnoreApps:    []string{"waipu"},
	}
}

func newTestClient(t *testing.T, opts Options) *Client {
	client, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

// closedPort returns a local port nothing listens on
func closedPort(t *testing.T) int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}
