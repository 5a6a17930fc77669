package relay

import (
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"
)

// handleOffer runs the answer side of the negotiation for one client. A
// repeated offer replaces the previous peer wholesale. Every callback
// registered here captures the client id only and resolves the record
// through the registry; by the time a late callback fires the client may
// already be gone.
//
// Any failure discards the peer and leaves the client on the immediate
// lane.
func (s *Server) handleOffer(clientID int, offer webrtc.SessionDescription) {
	c := s.registry.Get(clientID)
	if c == nil {
		return
	}

	pc, err := s.api.NewPeerConnection(webrtc.Configuration{
		// LAN-only deployment, no STUN/TURN.
		ICEServers: []webrtc.ICEServer{},
	})
	if err != nil {
		s.log.Error("peer create failed", zap.Int("client", clientID), zap.Error(err))
		return
	}
	c.setPeer(pc)

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		cl := s.registry.Get(clientID)
		if cl == nil {
			return
		}
		if err := cl.send(iceCandidateOut{
			Type:      "webrtc-ice-candidate",
			Candidate: cand.ToJSON(),
		}); err != nil {
			s.log.Debug("ice candidate send failed", zap.Int("client", clientID), zap.Error(err))
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.log.Info("peer state", zap.Int("client", clientID), zap.Stringer("state", state))
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		cl := s.registry.Get(clientID)
		if cl == nil {
			return
		}
		cl.setDataChannel(dc)
		dc.OnOpen(func() {
			s.log.Info("data channel open",
				zap.Int("client", clientID), zap.String("label", dc.Label()))
		})
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			s.handlePerf(clientID, msg.Data)
		})
	})

	if err := s.answer(c, pc, offer); err != nil {
		s.log.Error("negotiation failed", zap.Int("client", clientID), zap.Error(err))
		c.setPeer(nil)
	}
}

func (s *Server) answer(c *Client, pc *webrtc.PeerConnection, offer webrtc.SessionDescription) error {
	if err := pc.SetRemoteDescription(offer); err != nil {
		return err
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return err
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return err
	}
	return c.send(webrtcAnswer{Type: "webrtc-answer", Answer: answer})
}
