package hevc

import (
	"github.com/opd-ai/hevcrtp"
	"github.com/opd-ai/hevcrtp/annexb"
	"github.com/opd-ai/hevcrtp/generic"
	"github.com/opd-ai/hevcrtp/rtpio"
	"github.com/sirupsen/logrus"
)

// Push sends an Annex-B encoded HEVC buffer over conn: it slices data
// into NAL units, fragments any unit exceeding hevcrtp.MaxPayload per
// RFC 7798, and flushes the result. A buffer shorter than
// hevcrtp.MaxPayload containing at most one NAL unit takes the
// generic passthrough fast path instead: generic.Push enqueues that
// one unit on conn's frame queue and flushes it at once.
//
// Parameters:
//   - conn: the destination connection; its frame queue receives the
//     packetized units.
//   - data: one Annex-B encoded access unit, possibly containing
//     several NAL units.
//
// Returns:
//   - error: non-nil if data is empty or a send along the way failed.
func Push(conn rtpio.Connection, data []byte) error {
	if len(data) == 0 {
		return hevcrtp.ErrInvalidValue
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Push",
		"buffer_size": len(data),
	}).Debug("pushing HEVC access unit")

	units := annexb.Units(data)

	if len(data) < hevcrtp.MaxPayload && len(units) <= 1 {
		u := units[0]
		return generic.Push(conn, data[u.Begin:u.End], true)
	}

	q := conn.FrameQueue()
	pendingSmall := false

	for _, u := range units {
		unit := data[u.Begin:u.End]

		if len(unit) <= hevcrtp.MaxPayload {
			if err := q.Enqueue(unit); err != nil {
				q.Empty()
				logrus.WithFields(logrus.Fields{
					"function": "Push",
					"error":    err.Error(),
				}).Error("failed to enqueue NAL unit")
				return hevcrtp.ErrGenericError
			}
			pendingSmall = true
			continue
		}

		if _, err := Fragment(q, unit, false); err != nil {
			q.Empty()
			return err
		}
		pendingSmall = false
	}

	if pendingSmall {
		if err := q.Flush(); err != nil {
			q.Empty()
			logrus.WithFields(logrus.Fields{
				"function": "Push",
				"error":    err.Error(),
			}).Error("failed to flush trailing small NAL units")
			return err
		}
	}

	return nil
}
