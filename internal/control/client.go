package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ledbetter-fw/endpoint/internal/jsonrpc"
	"github.com/ledbetter-fw/endpoint/internal/ledberr"
	"github.com/ledbetter-fw/endpoint/internal/logging"
)

var clientLog = logging.L("control")

const reconnectDelay = 5 * time.Second

// Dispatcher turns a decoded request into a response. Controller
// satisfies this.
type Dispatcher interface {
	Dispatch(req *jsonrpc.Request) *jsonrpc.Response
}

// Client is the persistent control-plane transport. It is a pure
// responder: it never initiates a request and never sends an unsolicited
// text frame. On any transport, codec, or protocol error the session is
// torn down and reconnection is attempted after a fixed delay.
type Client struct {
	url        string
	dispatcher Dispatcher
}

// NewClient builds a Client that dials host:port and dispatches through d.
func NewClient(host string, port uint16, d Dispatcher) *Client {
	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", host, port)}
	return &Client{url: u.String(), dispatcher: d}
}

// Run connects and serves sessions until ctx is canceled. Each session
// failure is logged and followed by a fixed reconnectDelay before the
// next dial attempt.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sessionID := uuid.New()
		if err := c.runSession(ctx, sessionID); err != nil {
			clientLog.Error("control session ended", "session", sessionID, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Client) runSession(ctx context.Context, sessionID uuid.UUID) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return ledberr.New(ledberr.Transport, "runSession", err)
	}
	defer conn.Close()

	clientLog.Info("control session established", "session", sessionID, "url", c.url)

	// gorilla's default PingHandler already replies to inbound Ping
	// frames with Pong before ReadMessage returns, and its default
	// PongHandler silently absorbs Pong frames. The controller never
	// sends an unsolicited Pong in a well-behaved session, so a custom
	// PongHandler that errors is how that protocol violation surfaces
	// through ReadMessage's return value.
	conn.SetPongHandler(func(string) error {
		return fmt.Errorf("unexpected unsolicited pong frame")
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return ledberr.New(ledberr.Transport, "runSession", err)
		}

		if msgType != websocket.TextMessage {
			return ledberr.New(ledberr.Transport, "runSession", fmt.Errorf("unexpected frame kind %d", msgType))
		}
		if err := c.handleText(conn, data); err != nil {
			return err
		}
	}
}

func (c *Client) handleText(conn *websocket.Conn, data []byte) error {
	req, err := jsonrpc.DecodeRequest(data)
	if err != nil {
		return err
	}

	resp := c.dispatcher.Dispatch(req)
	if err := resp.Validate(); err != nil {
		return err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return ledberr.New(ledberr.Codec, "handleText", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
		return ledberr.New(ledberr.Transport, "handleText", err)
	}
	return nil
}
