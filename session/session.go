package session

import (
	"sync"

	"github.com/opd-ai/hevcrtp/dispatch"
	"github.com/opd-ai/hevcrtp/generic"
	"github.com/opd-ai/hevcrtp/hevc"
	"github.com/opd-ai/hevcrtp/rtpio"
	"github.com/sirupsen/logrus"
)

// Session owns one connection's send and receive sides. It is safe
// for concurrent use: sends are serialized by an internal mutex.
type Session struct {
	mu   sync.Mutex
	conn rtpio.Connection
	loop *dispatch.Loop
}

// New creates a Session wrapping conn for sending and loop for
// receiving. loop may be nil for a send-only session.
//
// Parameters:
//   - conn: the connection packets are sent on.
//   - loop: the receive dispatch loop, or nil for send-only.
//
// Returns:
//   - *Session: a new session.
func New(conn rtpio.Connection, loop *dispatch.Loop) *Session {
	logrus.WithFields(logrus.Fields{
		"function": "New",
		"has_loop": loop != nil,
	}).Info("creating RTP session")
	return &Session{conn: conn, loop: loop}
}

// SendHEVC sends one Annex-B encoded HEVC access unit.
//
// Parameters:
//   - accessUnit: the Annex-B encoded access unit to send.
//
// Returns:
//   - error: non-nil if the send failed.
func (s *Session) SendHEVC(accessUnit []byte) error {
	logrus.WithFields(logrus.Fields{
		"function":    "Session.SendHEVC",
		"buffer_size": len(accessUnit),
	}).Debug("sending HEVC access unit")

	s.mu.Lock()
	defer s.mu.Unlock()
	return hevc.Push(s.conn, accessUnit)
}

// SendGeneric sends payload as a single non-HEVC RTP packet.
//
// Parameters:
//   - payload: the packet payload to send.
//
// Returns:
//   - error: non-nil if the send failed.
func (s *Session) SendGeneric(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generic.Push(s.conn, payload, true)
}

// Loop returns the session's receive dispatch loop, or nil for a
// send-only session.
//
// Returns:
//   - *dispatch.Loop: the receive loop, or nil for a send-only session.
func (s *Session) Loop() *dispatch.Loop {
	return s.loop
}
