package transport

import (
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// DefaultEventsPath is where the scheduler serves its event stream.
const DefaultEventsPath = "/eventstream"

// EventsURL derives the websocket address of the event stream from the address the page or
// operator knows the scheduler by. http maps to ws and https to wss; the scheme's default port
// is dropped.
func EventsURL(base *url.URL, path string) (*url.URL, error) {
	if base == nil {
		return nil, errors.New("no base url")
	}
	out := *base
	switch strings.ToLower(base.Scheme) {
	case "http", "ws":
		out.Scheme = "ws"
	case "https", "wss":
		out.Scheme = "wss"
	default:
		return nil, errors.Errorf("unsupported scheme %q", base.Scheme)
	}
	if out.Host == "" {
		return nil, errors.Errorf("url %q has no host", base.String())
	}

	host, port, err := net.SplitHostPort(out.Host)
	if err == nil {
		if (out.Scheme == "ws" && port == "80") || (out.Scheme == "wss" && port == "443") {
			out.Host = host
			if strings.Contains(host, ":") {
				out.Host = "[" + host + "]"
			}
		}
	}

	if path == "" {
		path = DefaultEventsPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	out.Path = path
	out.RawPath = ""
	out.RawQuery = ""
	out.Fragment = ""
	return &out, nil
}

// ParseEventsURL is EventsURL on a raw string.
func ParseEventsURL(raw, path string) (*url.URL, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing source url %q", raw)
	}
	return EventsURL(base, path)
}
