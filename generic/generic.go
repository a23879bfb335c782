package generic

import (
	"github.com/opd-ai/hevcrtp"
	"github.com/opd-ai/hevcrtp/rtpio"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// Push enqueues payload as a single packet on conn's frame queue and
// flushes immediately. This is the short-buffer fast path for
// Annex-B data containing at most one NAL unit, and the send path for
// any payload type that isn't HEVC.
//
// Parameters:
//   - conn: the destination connection.
//   - payload: the packet payload to send.
//   - marker: the RTP marker bit to stamp on this packet, when conn
//     supports setting it.
//
// Returns:
//   - error: non-nil if payload is empty or the send failed.
func Push(conn rtpio.Connection, payload []byte, marker bool) error {
	if len(payload) == 0 {
		return hevcrtp.ErrInvalidValue
	}

	if setter, ok := conn.(interface{ SetMarker(bool) }); ok {
		setter.SetMarker(marker)
	}

	q := conn.FrameQueue()
	if err := q.Enqueue(payload); err != nil {
		q.Empty()
		logrus.WithFields(logrus.Fields{
			"function": "Push",
			"error":    err.Error(),
		}).Error("failed to enqueue generic RTP payload")
		return hevcrtp.ErrGenericError
	}
	return q.Flush()
}

// Unmarshal parses a raw datagram's payload as a generic RTP packet
// using pion/rtp. The dispatch loop does not call it: it delivers
// non-HEVC frames as validated by rtpframe.Validate.
//
// Parameters:
//   - datagram: one received datagram.
//
// Returns:
//   - *rtp.Packet: the parsed packet.
//   - error: hevcrtp.ErrInvalidValue if datagram isn't a valid RTP packet.
func Unmarshal(datagram []byte) (*rtp.Packet, error) {
	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(datagram); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Unmarshal",
			"error":    err.Error(),
		}).Debug("rejected malformed generic RTP packet")
		return nil, hevcrtp.ErrInvalidValue
	}
	return pkt, nil
}
