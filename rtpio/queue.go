package rtpio

import (
	"sync"

	"github.com/opd-ai/hevcrtp"
	"github.com/sirupsen/logrus"
)

const rtpHeaderSize = 12

// HeaderFiller is the subset of Connection a Queue needs to stamp
// each packet's RTP header at enqueue time: the fixed fields from
// FillRTPHeader, then the reserved sequence number from
// UpdateRTPSequence.
type HeaderFiller interface {
	FillRTPHeader(buf []byte)
	UpdateRTPSequence(buf []byte)
}

// Socket is the datagram transport a Queue flushes to. bufs is the
// scatter list making up one packet (header plus one or more payload
// buffers); implementations may write them with a single
// scatter-gather syscall or fall back to a serialize-then-send loop.
type Socket interface {
	Send(bufs [][]byte) error
	SetRecvBuffer(bytes int) error
}

// Queue batches packets for one connection between enqueue calls and
// a later Flush. It is not safe for concurrent producers: callers
// serialize access per connection themselves.
type Queue struct {
	mu      sync.Mutex
	sock    Socket
	filler  HeaderFiller
	pending [][][]byte
}

// NewQueue creates an empty Queue flushing to sock, stamping headers
// via filler.
//
// Parameters:
//   - sock: the transport packets are flushed to.
//   - filler: the header-stamping collaborator for each enqueued packet.
//
// Returns:
//   - *Queue: a new, empty queue.
func NewQueue(sock Socket, filler HeaderFiller) *Queue {
	logrus.WithFields(logrus.Fields{
		"function": "NewQueue",
	}).Debug("creating RTP frame queue")
	return &Queue{sock: sock, filler: filler}
}

// Enqueue reserves the next sequence number, prepares the packet's
// RTP header, and batches buf as a single-buffer packet.
//
// Parameters:
//   - buf: the packet payload, header excluded.
//
// Returns:
//   - error: always nil; an empty buf is batched as a header-only
//     packet.
func (q *Queue) Enqueue(buf []byte) error {
	return q.EnqueueScatter([][]byte{buf})
}

// EnqueueScatter is Enqueue for a multi-buffer scatter-gather packet
// (an FU header plus its fragment, for example).
//
// Parameters:
//   - bufs: the packet's payload buffers, header excluded; at least one.
//
// Returns:
//   - error: non-nil if bufs is empty.
func (q *Queue) EnqueueScatter(bufs [][]byte) error {
	if len(bufs) == 0 {
		return hevcrtp.ErrInvalidValue
	}

	header := make([]byte, rtpHeaderSize)
	q.filler.FillRTPHeader(header)
	q.filler.UpdateRTPSequence(header)

	packet := make([][]byte, 0, len(bufs)+1)
	packet = append(packet, header)
	packet = append(packet, bufs...)

	q.mu.Lock()
	q.pending = append(q.pending, packet)
	q.mu.Unlock()
	return nil
}

// Flush writes all pending packets to the socket in FIFO order and
// clears the queue, whether or not it succeeds. RTP is loss tolerant:
// a socket error drops the remaining batch rather than retrying
// individual packets.
//
// Returns:
//   - error: hevcrtp.ErrQueueEmpty if nothing was pending, or
//     hevcrtp.ErrGenericError if a send failed partway through.
func (q *Queue) Flush() error {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(pending) == 0 {
		return hevcrtp.ErrQueueEmpty
	}

	for _, bufs := range pending {
		if err := q.sock.Send(bufs); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":        "Queue.Flush",
				"packets_pending": len(pending),
				"error":           err.Error(),
			}).Warn("dropping remaining batch after socket send failure")
			return hevcrtp.ErrGenericError
		}
	}
	return nil
}

// Empty discards all pending packets without sending them.
func (q *Queue) Empty() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

// Pending reports how many packets are currently batched.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
