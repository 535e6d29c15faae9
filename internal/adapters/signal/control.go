package signal

import (
	"github.com/dkeye/Telecall/internal/domain"
	"github.com/pion/webrtc/v4"
)

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

// sendWelcome gives a fresh connection its id, the ICE servers to use for
// the peer connection and, when known, the identity to register with.
func (ctl *SignalWSController) sendWelcome(conn *WsSignalConn, hint *domain.User) {
	resp := struct {
		Type       string             `json:"type"`
		ConnID     domain.ConnID      `json:"connId"`
		ICEServers []webrtc.ICEServer `json:"iceServers"`
		Hint       *domain.User       `json:"hint,omitempty"`
	}{
		Type:       "welcome",
		ConnID:     conn.id,
		ICEServers: ctl.Cfg.WebRTCICEServers(),
		Hint:       hint,
	}
	ctl.sendJSON(conn, resp)
}
