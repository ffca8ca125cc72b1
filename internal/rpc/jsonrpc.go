package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Version is the only protocol version accepted.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request represents a JSON-RPC 2.0 request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`

	// ReplyTo is an extension used by the MQTT transport: the topic the
	// response should be published to.
	ReplyTo string `json:"reply-to,omitempty"`
}

// IsNotification reports whether the request carries no id and so expects no
// response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response represents a JSON-RPC 2.0 response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error represents a JSON-RPC 2.0 error object
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

var nullID = json.RawMessage("null")

// DecodeRequest parses and validates a single request. Input that is not JSON
// is a parse error; valid JSON that is not a request object, including a
// batch, is an invalid request.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		if json.Valid(data) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !validID(req.ID) {
		return nil, fmt.Errorf("%w: id must be a string, number or null", ErrInvalidRequest)
	}
	if req.JSONRPC != Version {
		return &req, fmt.Errorf("%w: jsonrpc must be %q", ErrInvalidRequest, Version)
	}
	if req.Method == "" {
		return &req, fmt.Errorf("%w: method is required", ErrInvalidRequest)
	}
	return &req, nil
}

func validID(id json.RawMessage) bool {
	if len(id) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(id, &v); err != nil {
		return false
	}
	switch v.(type) {
	case nil, string, float64:
		return true
	}
	return false
}

// NewRequest builds a request with a numeric id.
func NewRequest(method string, params any, id int) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		Method:  method,
		ID:      json.RawMessage(fmt.Sprintf("%d", id)),
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = raw
	}
	return req, nil
}

// Serve dispatches a decoded request and returns the response, or nil for a
// notification.
func (d *Dispatcher) Serve(ctx context.Context, req *Request) *Response {
	result, err := d.Dispatch(ctx, req.Method, req.Params)
	if req.IsNotification() {
		if err != nil {
			log.Printf("notification %s failed: %v", req.Method, err)
		}
		return nil
	}
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return &Response{
		JSONRPC: Version,
		Result:  result,
		ID:      req.ID,
	}
}

// Call handles one encoded request and returns the encoded response. It
// returns nil for notifications.
func (d *Dispatcher) Call(ctx context.Context, data []byte) []byte {
	var resp *Response

	req, err := DecodeRequest(bytes.TrimSpace(data))
	switch {
	case err != nil:
		id := nullID
		if req != nil && len(req.ID) > 0 {
			id = req.ID
		}
		resp = errorResponse(id, err)
	default:
		resp = d.Serve(ctx, req)
	}

	if resp == nil {
		return nil
	}

	out, err := json.Marshal(resp)
	if err != nil {
		log.Printf("failed to encode response %s: %v", resp.ID, err)
		out, _ = json.Marshal(errorResponse(resp.ID, err))
	}
	return out
}

// errorResponse maps err to a JSON-RPC error code.
func errorResponse(id json.RawMessage, err error) *Response {
	rpcErr := &Error{Code: CodeInternalError, Message: err.Error()}

	var asRPC *Error
	switch {
	case errors.As(err, &asRPC):
		rpcErr = asRPC
	case errors.Is(err, ErrParse):
		rpcErr.Code = CodeParseError
	case errors.Is(err, ErrInvalidRequest):
		rpcErr.Code = CodeInvalidRequest
	case errors.Is(err, ErrMethodNotFound):
		rpcErr.Code = CodeMethodNotFound
	}

	if len(id) == 0 {
		id = nullID
	}
	return &Response{
		JSONRPC: Version,
		Error:   rpcErr,
		ID:      id,
	}
}
