package hevc

import (
	"github.com/opd-ai/hevcrtp"
	"github.com/opd-ai/hevcrtp/rtpio"
	"github.com/sirupsen/logrus"
)

// fuIndicatorType is the RFC 7798 NAL unit type carried in an FU
// indicator's header.
const fuIndicatorType = 49

// Fragment enqueues a single HEVC NAL unit onto q, splitting it into
// RFC 7798 fragmentation units when it exceeds hevcrtp.MaxPayload.
// moreFollows signals that the caller is walking a multi-NAL buffer
// and intends to keep batching before the next flush; it only affects
// the unfragmented path; an unfragmented unit is only enqueued, and
// the caller flushes q. A fragmented unit always flushes before
// Fragment returns; its FU headers are allocated per call and the
// queue drops its references to them on Flush or Empty.
//
// Parameters:
//   - q: the destination frame queue for this connection.
//   - unit: one Annex-B-delimited NAL unit, header included.
//   - moreFollows: true when the caller will enqueue more units
//     before its next flush.
//
// Returns: a hevcrtp.Kind classifying the outcome (KindOK once an
// unfragmented unit is enqueued without moreFollows or a fragmented
// unit is flushed, KindNotReady while still batching) and a non-nil
// error whenever the Kind isn't KindOK.
func Fragment(q *rtpio.Queue, unit []byte, moreFollows bool) (hevcrtp.Kind, error) {
	if len(unit) < 2 {
		return hevcrtp.KindInvalidValue, hevcrtp.ErrInvalidValue
	}

	if len(unit) <= hevcrtp.MaxPayload {
		if err := q.Enqueue(unit); err != nil {
			return hevcrtp.KindGenericError, hevcrtp.ErrGenericError
		}
		if moreFollows {
			return hevcrtp.KindNotReady, hevcrtp.ErrNotReady
		}
		return hevcrtp.KindOK, nil
	}

	return fragmentLarge(q, unit)
}

// fragmentLarge splits unit into RFC 7798 fragmentation units and
// flushes q before returning; if an enqueue or the flush fails, q is
// emptied instead.
//
// Parameters:
//   - q: the destination frame queue for this connection.
//   - unit: one NAL unit longer than hevcrtp.MaxPayload, header
//     included.
//
// Returns: hevcrtp.KindOK and a nil error on success; otherwise a
// Kind classifying the failure and its error.
func fragmentLarge(q *rtpio.Queue, unit []byte) (hevcrtp.Kind, error) {
	logrus.WithFields(logrus.Fields{
		"function":   "fragmentLarge",
		"unit_bytes": len(unit),
	}).Debug("splitting oversized NAL unit into fragmentation units")

	nalType := (unit[0] >> 1) & 0x3f

	fuIndicator := (fuIndicatorType << 1) | (unit[0] & 0x01)
	fuTID := (unit[1] &^ 0x07) | 0x01

	const first = uint8(1) << 7
	const last = uint8(1) << 6

	payload := unit[2:]
	pos := 0
	maxChunk := hevcrtp.MaxPayload

	for len(payload)-pos > maxChunk {
		flag := uint8(0)
		if pos == 0 {
			flag = first
		}
		fuHeader := []byte{uint8(fuIndicator), fuTID, flag | nalType}
		chunk := payload[pos : pos+maxChunk]

		if err := q.EnqueueScatter([][]byte{fuHeader, chunk}); err != nil {
			q.Empty()
			err = queueErr(err)
			return hevcrtp.ClassifyError(err), err
		}
		pos += maxChunk
	}

	fuHeader := []byte{uint8(fuIndicator), fuTID, last | nalType}
	if err := q.EnqueueScatter([][]byte{fuHeader, payload[pos:]}); err != nil {
		q.Empty()
		err = queueErr(err)
		return hevcrtp.ClassifyError(err), err
	}

	if err := q.Flush(); err != nil {
		q.Empty()
		err = queueErr(err)
		logrus.WithFields(logrus.Fields{
			"function": "Fragment",
			"kind":     hevcrtp.ClassifyError(err).String(),
			"error":    err.Error(),
		}).Error("failed to flush HEVC fragments")
		return hevcrtp.ClassifyError(err), err
	}

	return hevcrtp.KindOK, nil
}

// queueErr maps a rtpio.Queue error onto the sentinel errors Fragment
// documents returning; an empty-queue flush mid-fragmentation is this
// package's fault, not the caller's invalid input.
func queueErr(err error) error {
	if err == hevcrtp.ErrQueueEmpty {
		return hevcrtp.ErrGenericError
	}
	return err
}
