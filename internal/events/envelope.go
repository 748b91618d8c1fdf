package events

import (
	"encoding/json"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/utils"
)

// EventSystem is the server-to-client notice channel; it carries both
// plain notices and handler error reports.
const EventSystem = "system"

// Envelope is the wire framing: a named event with an opaque JSON body.
type Envelope struct {
	Event string           `json:"event"`
	Data  *json.RawMessage `json:"data,omitempty"`
}

// SystemNotice is the payload of a system event.
// Level is empty for plain notices and "error" for rejections.
type SystemNotice struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

func newEnvelope(event string, data any) (*Envelope, error) {
	env := &Envelope{Event: event}
	if data == nil {
		return env, nil
	}

	if raw, ok := data.(*json.RawMessage); ok {
		// pass raw payloads through untouched
		env.Data = raw
		return env, nil
	}

	bs, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(ErrCodeMarshal, err, "failed to marshal event data")
	}
	env.Data = utils.Ptr(json.RawMessage(bs))
	return env, nil
}
