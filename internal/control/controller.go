// Package control implements the control-plane protocol: a JSON-RPC 2.0
// dispatcher (Controller) bound to a Driver, and a persistent transport
// client (Client) that carries RPC traffic over a WebSocket connection.
package control

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ledbetter-fw/endpoint/internal/driver"
	"github.com/ledbetter-fw/endpoint/internal/jsonrpc"
	"github.com/ledbetter-fw/endpoint/internal/ledberr"
	"github.com/ledbetter-fw/endpoint/internal/logging"
)

var ctlLog = logging.L("control")

type handlerFunc func(d *driver.Driver, params json.RawMessage) (interface{}, error)

// Controller binds RPC method names to Driver operations. It owns the
// driver exclusively: nothing else calls Driver methods directly.
type Controller struct {
	name     string
	drv      *driver.Driver
	handlers map[string]handlerFunc
}

// NewController builds a Controller for name (the value returned by
// reverse_auth) wrapping d.
func NewController(name string, d *driver.Driver) *Controller {
	c := &Controller{name: name, drv: d}
	c.handlers = map[string]handlerFunc{
		"reverse_auth": c.handleReverseAuth,
		"get_status":   c.handleGetStatus,
		"run":          c.handleRun,
		"play":         c.handlePlay,
		"pause":        c.handlePause,
		"stop":         c.handleStop,
	}
	return c
}

// Dispatch decodes req.Params for the named method, runs the bound
// handler, and builds a Response (Client validates it before sending).
// Dispatch errors (unknown
// method, bad params, run failures) are folded into an error Response
// rather than returned, matching the session-preserving semantics of
// dispatch-layer failures.
func (c *Controller) Dispatch(req *jsonrpc.Request) *jsonrpc.Response {
	h, ok := c.handlers[req.Method]
	if !ok {
		return jsonrpc.NewError(req.Id, fmt.Sprintf("unknown rpc method %q", req.Method))
	}

	result, err := h(c.drv, req.Params)
	if err != nil {
		ctlLog.Warn("dispatch error", "method", req.Method, "error", err)
		return jsonrpc.NewError(req.Id, err.Error())
	}

	resp, err := jsonrpc.NewResult(req.Id, result)
	if err != nil {
		return jsonrpc.NewError(req.Id, err.Error())
	}
	return resp
}

type reverseAuthParams struct {
	Challenge string `json:"challenge"`
}

type reverseAuthResult struct {
	Name string `json:"name"`
}

func (c *Controller) handleReverseAuth(d *driver.Driver, params json.RawMessage) (interface{}, error) {
	var p reverseAuthParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ledberr.New(ledberr.Dispatch, "reverse_auth", err)
	}
	ctlLog.Debug("received reverse_auth challenge", "challenge", p.Challenge)
	return reverseAuthResult{Name: c.name}, nil
}

// requireEmptyParams enforces the parameter shape the original dispatcher
// used for its zero-argument methods: params must be absent or `[]`, never
// an object or a non-empty array.
func requireEmptyParams(method string, params json.RawMessage) error {
	if len(params) == 0 {
		return nil
	}
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil {
		return ledberr.New(ledberr.Dispatch, method, fmt.Errorf("params must be an empty array, got %s", params))
	}
	if len(args) != 0 {
		return ledberr.New(ledberr.Dispatch, method, fmt.Errorf("params must be an empty array, got %d elements", len(args)))
	}
	return nil
}

func (c *Controller) handleGetStatus(d *driver.Driver, params json.RawMessage) (interface{}, error) {
	if err := requireEmptyParams("get_status", params); err != nil {
		return nil, err
	}
	return d.Status(), nil
}

type runParams struct {
	Wasm string `json:"wasm"`
}

func (c *Controller) handleRun(d *driver.Driver, params json.RawMessage) (interface{}, error) {
	var p runParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ledberr.New(ledberr.Dispatch, "run", err)
	}
	wasmBin, err := base64.StdEncoding.DecodeString(p.Wasm)
	if err != nil {
		return nil, ledberr.New(ledberr.Dispatch, "run", fmt.Errorf("invalid base64 wasm payload: %w", err))
	}
	status, err := d.Start(wasmBin)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (c *Controller) handlePlay(d *driver.Driver, params json.RawMessage) (interface{}, error) {
	if err := requireEmptyParams("play", params); err != nil {
		return nil, err
	}
	return d.Play(), nil
}

func (c *Controller) handlePause(d *driver.Driver, params json.RawMessage) (interface{}, error) {
	if err := requireEmptyParams("pause", params); err != nil {
		return nil, err
	}
	return d.Pause(), nil
}

func (c *Controller) handleStop(d *driver.Driver, params json.RawMessage) (interface{}, error) {
	if err := requireEmptyParams("stop", params); err != nil {
		return nil, err
	}
	return d.Stop(), nil
}
