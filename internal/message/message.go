// Package message defines the reclip IPC protocol spoken between the
// daemon and the CLI tools (status/history/clear).
//
// All messages are newline-delimited JSON; each message is exactly one
// line: <json>\n. Payloads never carry raw clipboard bytes — history
// entries are summarised (formats, sizes, text preview) before they cross
// the socket.
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of message.
type Type string

const (
	TypeStatus          Type = "STATUS"
	TypeStatusResponse  Type = "STATUS_RESPONSE"
	TypeHistory         Type = "HISTORY"
	TypeHistoryResponse Type = "HISTORY_RESPONSE"
	TypeClear           Type = "CLEAR"
	TypeOK              Type = "OK"
	TypeError           Type = "ERROR"
)

// Entry summarises one history entry for display.
type Entry struct {
	Formats []string `json:"formats"`
	Bytes   int      `json:"bytes"`
	Preview string   `json:"preview,omitempty"`
}

// Message is the top-level wire envelope.
type Message struct {
	Type Type `json:"type"`

	// STATUS_RESPONSE
	Backend   string    `json:"backend,omitempty"`
	Depth     int       `json:"depth,omitempty"`
	Capacity  int       `json:"capacity,omitempty"`
	Threshold int       `json:"threshold,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`

	// HISTORY_RESPONSE
	Entries []Entry `json:"entries,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}
