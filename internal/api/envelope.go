package api

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Envelope is the {"message": ..., "<key>": {...}} wrapper some
// create and update endpoints return
type Envelope map[string]json.RawMessage

// Message returns the server's status text, if any
func (e Envelope) Message() string {
	raw, ok := e["message"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ID returns a top-level id, as sent by delete responses
func (e Envelope) ID() string {
	raw, ok := e["id"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Decode unmarshals the payload under key into out
func (e Envelope) Decode(key string, out any) error {
	raw, ok := e[key]
	if !ok || string(raw) == "null" {
		return &Error{Kind: KindUnknown, Message: "Unexpected response from server",
			Err: fmt.Errorf("response has no %q field", key)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindUnknown, Message: "Unexpected response from server", Err: err}
	}
	return nil
}
