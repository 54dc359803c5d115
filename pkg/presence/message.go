package presence

import (
	"encoding/json"

	"github.com/collabboard/collabboard/pkg/models"
)

// Message types carried on the presence relay.
const (
	MessageCursorMove  = "cursor_move"
	MessageCursorLeave = "cursor_leave"
)

// Message is the JSON envelope exchanged with the relay: a type tag and
// a type-dependent payload.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// LeavePayload is the cursor_leave payload.
type LeavePayload struct {
	UserID string `json:"userId"`
}

// EncodeCursorMove builds a cursor_move envelope.
func EncodeCursorMove(cur models.CursorPosition) ([]byte, error) {
	data, err := json.Marshal(cur)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: MessageCursorMove, Data: data})
}

// EncodeCursorLeave builds a cursor_leave envelope.
func EncodeCursorLeave(userID string) ([]byte, error) {
	data, err := json.Marshal(LeavePayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: MessageCursorLeave, Data: data})
}
