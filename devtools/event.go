// Package devtools carries store lifecycle events to developer tools.
//
// A store emits an "init" event when it is defined and an "update" event each
// time its externally visible snapshot changes. Events go to a Sink; a nil
// sink is valid and simply drops them. Hub is a Sink that streams events to
// WebSocket clients and keeps a replay history for late joiners, so a panel
// opened after the application started still sees how it got there.
package devtools

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionInit   Action = "init"
	ActionUpdate Action = "update"
)

// Event describes one store transition.
type Event struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	StoreName string         `json:"storeName"`
	NewData   map[string]any `json:"newData"`
	OldData   map[string]any `json:"oldData,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewEvent(action Action, storeName string, newData, oldData map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Action:    action,
		StoreName: storeName,
		NewData:   newData,
		OldData:   oldData,
		Timestamp: time.Now().UTC(),
	}
}

// frame types understood by the devtools panel
const (
	FrameInit   = "VORTEX_DEVTOOLS_INIT"
	FrameUpdate = "VORTEX_DEVTOOLS"
)

// Frame is the message written on the wire. Payload holds the JSON encoded
// event, the panel decodes it separately.
type Frame struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// EncodeFrame wraps e into a wire frame.
func EncodeFrame(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	typ := FrameUpdate
	if e.Action == ActionInit {
		typ = FrameInit
	}

	return json.Marshal(Frame{Type: typ, Payload: string(payload)})
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(data []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Event{}, err
	}

	var e Event
	err := json.Unmarshal([]byte(f.Payload), &e)
	return e, err
}
