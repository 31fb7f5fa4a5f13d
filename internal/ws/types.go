package ws

import "encoding/json"

type Op string

const (
	OpToast    Op = "toast"
	OpNavigate Op = "navigate"
)

// Frame is the envelope for every server-to-client message.
type Frame struct {
	Op      Op              `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

type ToastPayload struct {
	Level      string `json:"level"`
	Text       string `json:"text"`
	DurationMs int    `json:"durationMs,omitempty"`
}

type NavigatePayload struct {
	Route string `json:"route"`
}
