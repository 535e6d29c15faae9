package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Telecall/internal/core"
	"github.com/dkeye/Telecall/internal/domain"
)

var errUnknownType = errors.New("unknown signal")

type envelope struct {
	Type string `json:"type"`
}

type registerPayload struct {
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
}

type initiatePayload struct {
	RecipientID domain.UserID   `json:"recipientId"`
	Kind        domain.CallKind `json:"kind"`
	CallID      domain.CallID   `json:"sessionId"`
}

type sessionPayload struct {
	CallID domain.CallID `json:"sessionId"`
}

type signalPayload struct {
	CallID domain.CallID `json:"sessionId"`
	Signal core.Signal   `json:"signal"`
}

// decodeCommand turns one inbound frame into a command. Field presence is
// checked by the coordinator, which reports it to the client.
func decodeCommand(typ string, data []byte) (core.Command, error) {
	switch typ {
	case "register":
		var p registerPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("register payload: %w", err)
		}
		return core.Register{UserID: p.UserID, DisplayName: p.DisplayName}, nil
	case "initiate":
		var p initiatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("initiate payload: %w", err)
		}
		return core.Initiate{RecipientID: p.RecipientID, Kind: p.Kind, CallID: p.CallID}, nil
	case "accept", "reject", "hangup":
		var p sessionPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", typ, err)
		}
		switch typ {
		case "accept":
			return core.Accept{CallID: p.CallID}, nil
		case "reject":
			return core.Reject{CallID: p.CallID}, nil
		default:
			return core.Hangup{CallID: p.CallID}, nil
		}
	case "signal":
		var p signalPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("signal payload: %w", err)
		}
		return core.Relay{CallID: p.CallID, Signal: p.Signal}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownType, typ)
	}
}

// MarshalEvent encodes ev as a flat JSON object with its "type" field set.
func MarshalEvent(ev core.Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("event %s is not an object: %w", ev.EventType(), err)
	}
	typ, err := json.Marshal(ev.EventType())
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}
