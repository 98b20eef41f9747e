// Package transport connects to the scheduler's event stream and hands decoded events to a
// callback. Delivery is at most once: nothing is retried or replayed after a reconnect.
package transport

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Readm/cluster_map/visual"
)

const (
	defaultReconnectMin = 500 * time.Millisecond
	defaultReconnectMax = 30 * time.Second
	closeGracePeriod    = time.Second
)

// Options configure a Client. URL and OnEvent are required.
type Options struct {
	URL          *url.URL
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	Dialer       *websocket.Dialer

	// OnEvent receives every well-formed event, on the client's read goroutine.
	OnEvent func(visual.Event)
	// OnMalformed is told about payloads that could not be decoded.
	OnMalformed func(raw []byte, err error)
	// OnConnect runs after each successful handshake.
	OnConnect func()
}

// Client is a reconnecting websocket consumer of lifecycle events.
type Client struct {
	opts Options
	log  *log.Entry

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient validates options and fills in defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.URL == nil {
		return nil, errors.New("transport needs a url")
	}
	if opts.OnEvent == nil {
		return nil, errors.New("transport needs an event callback")
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = defaultReconnectMin
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = defaultReconnectMax
		if opts.ReconnectMax < opts.ReconnectMin {
			opts.ReconnectMax = opts.ReconnectMin
		}
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
		}
	}
	return &Client{
		opts: opts,
		log:  log.WithFields(log.Fields{"component": "transport", "url": opts.URL.String()}),
	}, nil
}

func (c *Client) newBackOff() backoff.BackOff {
	bf := backoff.NewExponentialBackOff()
	bf.InitialInterval = c.opts.ReconnectMin
	bf.MaxInterval = c.opts.ReconnectMax
	bf.MaxElapsedTime = 0
	return bf
}

// Run connects and reads until ctx is done, reconnecting with exponential backoff whenever the
// connection drops. It returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	bf := c.newBackOff()
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			bf.Reset()
		}
		wait := bf.NextBackOff()
		c.log.WithError(err).Warnf("event stream lost, reconnecting in %s", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one connection. connected reports whether the handshake succeeded.
func (c *Client) session(ctx context.Context) (connected bool, err error) {
	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL.String(), nil)
	if err != nil {
		return false, errors.Wrap(err, "error connecting to event stream")
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	c.setConn(conn)
	defer c.setConn(nil)
	c.log.Info("connected to event stream")

	if err := conn.WriteJSON(visual.Event{Name: visual.EventPing}); err != nil {
		return true, multierror.Append(errors.Wrap(err, "sending ping"), conn.Close()).ErrorOrNil()
	}
	if c.opts.OnConnect != nil {
		c.opts.OnConnect()
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			if err := c.Close(); err != nil {
				c.log.WithError(err).Debug("closing event stream")
			}
		case <-stop:
		}
	}()

	err = c.readLoop(conn)
	if cerr := conn.Close(); cerr != nil && ctx.Err() == nil {
		c.log.WithError(cerr).Debug("closing event stream")
	}
	return true, err
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "reading event stream")
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		ev, err := Decode(raw)
		if err != nil {
			c.log.WithError(err).Warn("dropping malformed event")
			if c.opts.OnMalformed != nil {
				c.opts.OnMalformed(raw, err)
			}
			continue
		}
		c.opts.OnEvent(ev)
	}
}

// Decode parses one event payload. A payload without a name cannot be routed and is rejected.
func Decode(raw []byte) (visual.Event, error) {
	var ev visual.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return visual.Event{}, errors.Wrap(err, "decoding event")
	}
	if ev.Name == "" {
		return visual.Event{}, errors.New("event has no name")
	}
	return ev, nil
}

// Close tears down the live connection, if any. Run reconnects unless its context is done.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return closeConn(conn)
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// closeConn says goodbye and closes the socket, reporting every failure.
func closeConn(conn *websocket.Conn) error {
	var result *multierror.Error
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod)); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		result = multierror.Append(result, errors.Wrap(err, "sending close frame"))
	}
	if err := conn.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "closing socket"))
	}
	return result.ErrorOrNil()
}
