package lspserver

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const jsonrpcVersion = "2.0"

// envelope is the shape every inbound message is first decoded into, before
// we know whether it is a request (has an id) or a notification.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// requestID is the core's internal representation of a JSON-RPC id: always
// an integer value, remembering whether the client spelled it as a JSON
// string or a JSON number so the response can echo the same spelling back
// (a string id is re-emitted as a string holding the decimal of the
// parsed integer value).
type requestID struct {
	present  bool
	isString bool
	value    int64
}

func (id requestID) String() string {
	if !id.present {
		return ""
	}
	return strconv.FormatInt(id.value, 10)
}

// parseRequestID decodes a JSON-RPC id field. A missing/empty field means
// "this message is a notification". Anything else must be a JSON number or
// a JSON string containing one; anything else is a malformed request.
func parseRequestID(raw json.RawMessage) (requestID, error) {
	if len(raw) == 0 {
		return requestID{}, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return requestID{present: true, value: n}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return requestID{}, fmt.Errorf("request id %q is not a decimal integer: %w", s, err)
		}
		return requestID{present: true, isString: true, value: n}, nil
	}
	return requestID{}, fmt.Errorf("request id must be a number or string")
}

func (id requestID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(strconv.FormatInt(id.value, 10))
	}
	return json.Marshal(id.value)
}

// responseError is the JSON-RPC `error` member of a response.
type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type outboundResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      requestID       `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *responseError  `json:"error,omitempty"`
}

type outboundNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Every value passed through this path is a handler-constructed
		// result struct with no cyclic or unmarshalable fields.
		panic(fmt.Sprintf("lspserver: marshal result: %v", err))
	}
	return b
}
