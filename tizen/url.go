package tizen

import (
	"encoding/base64"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultPort is the TLS websocket port of Tizen TVs
	DefaultPort = 8002

	// PathRemoteControl is the endpoint of the remote channel
	PathRemoteControl = "/api/v2/channels/samsung.remote.control"
	// PathAppControl is the endpoint of the control channel
	PathAppControl = "/api/v2"
)

// FormatWebsocketURL builds the wss:// URL of a channel endpoint. The client name
// is sent base64 encoded and the token is only added when it is not empty.
func FormatWebsocketURL(host string, port int, path, name, token string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.Wrap(ErrInvalidHost, "host is empty")
	}
	if strings.ContainsAny(host, "/?#@ \t") {
		return "", errors.Wrapf(ErrInvalidHost, "%q", host)
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return "", errors.Wrapf(ErrInvalidHost, "%q must not include a port", host)
	}
	if port <= 0 || port > 65535 {
		return "", errors.Wrapf(ErrInvalidHost, "port %d out of range", port)
	}
	query := url.Values{}
	query.Set("name", base64.StdEncoding.EncodeToString([]byte(name)))
	if token != "" {
		query.Set("token", token)
	}
	u := url.URL{
		Scheme:   "wss",
		Host:     net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(port)),
		Path:     path,
		RawQuery: query.Encode(),
	}
	s := u.String()
	if _, err := url.Parse(s); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "invalid host %q", host), ErrInvalidHost)
	}
	return s, nil
}

// redactToken masks the token query parameter so it can be logged
func redactToken(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := u.Query()
	token := query.Get("token")
	if token == "" {
		return raw
	}
	if len(token) > 4 {
		token = token[:2] + strings.Repeat("*", len(token)-4) + token[len(token)-2:]
	} else {
		token = strings.Repeat("*", len(token))
	}
	query.Set("token", token)
	u.RawQuery = query.Encode()
	return u.String()
}
