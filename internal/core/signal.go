package core

import (
	"errors"
	"fmt"

	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
)

var (
	ErrUnknownSignal  = errors.New("unknown signal type")
	ErrEmptySDP       = errors.New("empty sdp")
	ErrNoMedia        = errors.New("sdp has no media sections")
	ErrEmptyCandidate = errors.New("missing candidate")
)

// Signal is an opaque WebRTC negotiation message relayed between the two
// parties of a call. The server never applies it to a peer connection.
type Signal struct {
	Type      SignalKind               `json:"type"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}

// Validate checks the message is well formed before it is relayed.
func (s Signal) Validate() error {
	switch s.Type {
	case SignalOffer, SignalAnswer:
		if s.SDP == "" {
			return ErrEmptySDP
		}
		var desc sdp.SessionDescription
		if err := desc.Unmarshal([]byte(s.SDP)); err != nil {
			return fmt.Errorf("parse sdp: %w", err)
		}
		if len(desc.MediaDescriptions) == 0 {
			return ErrNoMedia
		}
		return nil
	case SignalCandidate:
		// An empty candidate string is the end-of-candidates marker.
		if s.Candidate == nil {
			return ErrEmptyCandidate
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSignal, s.Type)
	}
}
