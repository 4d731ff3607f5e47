// Package jsonrpc implements the narrow slice of JSON-RPC 2.0 the control
// plane speaks: single requests and responses, never batches, always over
// a single transport connection.
package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/ledbetter-fw/endpoint/internal/ledberr"
)

const Version = "2.0"

// Request is a JSON-RPC request. Id and Params are kept as raw JSON so
// decoding never has to guess their shape ahead of dispatch.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Validate checks the fields that aren't already enforced by unmarshaling.
func (r *Request) Validate() error {
	if r.Jsonrpc != Version {
		return ledberr.New(ledberr.Codec, "Request.Validate", fmt.Errorf("jsonrpc version field is not %q: %q", Version, r.Jsonrpc))
	}
	return nil
}

// Response is a JSON-RPC response. Exactly one of Result or Error is set
// once Validate succeeds. Both are omitted from serialized output when
// nil, never emitted as a JSON null.
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// Validate enforces the jsonrpc version and the result/error exclusivity
// invariant.
func (r *Response) Validate() error {
	if r.Jsonrpc != Version {
		return ledberr.New(ledberr.Codec, "Response.Validate", fmt.Errorf("jsonrpc version field is not %q: %q", Version, r.Jsonrpc))
	}
	if len(r.Result) > 0 && len(r.Error) > 0 {
		return ledberr.New(ledberr.Codec, "Response.Validate", fmt.Errorf("response has both result and error"))
	}
	if len(r.Result) == 0 && len(r.Error) == 0 {
		return ledberr.New(ledberr.Codec, "Response.Validate", fmt.Errorf("response has neither result nor error"))
	}
	return nil
}

// NewResult builds a successful Response by marshaling result.
func NewResult(id json.RawMessage, result interface{}) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, ledberr.New(ledberr.Codec, "NewResult", err)
	}
	return &Response{Jsonrpc: Version, Id: id, Result: raw}, nil
}

// NewError builds a failed Response carrying msg as the JSON-encoded
// error value, matching the original's convention of a bare string
// rather than a {code,message,data} object.
func NewError(id json.RawMessage, msg string) *Response {
	raw, _ := json.Marshal(msg)
	return &Response{Jsonrpc: Version, Id: id, Error: raw}
}

// DecodeRequest parses and validates a single request.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ledberr.New(ledberr.Codec, "DecodeRequest", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
