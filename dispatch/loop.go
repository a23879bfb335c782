package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/opd-ai/hevcrtp"
	"github.com/opd-ai/hevcrtp/hevc"
	"github.com/opd-ai/hevcrtp/rtpframe"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// pullInterval is the poll period for PullFrame, matching the
// original receiver's 20ms sleep-poll loop.
const pullInterval = 20 * time.Millisecond

// ReaderSocket reads one datagram per call. Socket bind/connect stays
// out of scope; this module only calls into it.
type ReaderSocket interface {
	Recv(buf []byte) (int, error)
}

// Loop is the receive-side dispatch loop: it reads datagrams,
// validates them, reassembles fragmented HEVC access units, and
// delivers complete frames either via an installed callback or a
// pull-queue consumer.
type Loop struct {
	sock        ReaderSocket
	router      Router
	zrtpAllowed bool

	reassembler *hevc.Reassembler

	mu       sync.Mutex
	active   bool
	queue    []*rtpframe.Frame
	callback func(*rtpframe.Frame)

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewLoop creates a Loop reading from sock and routing validated
// frames with router.
//
// Parameters:
//   - sock: the datagram source to read from.
//   - router: classifies each validated frame as HEVC or not.
//
// Returns:
//   - *Loop: a new loop, not yet started.
func NewLoop(sock ReaderSocket, router Router) *Loop {
	logrus.WithFields(logrus.Fields{
		"function": "NewLoop",
	}).Info("creating dispatch loop")

	return &Loop{
		sock:        sock,
		router:      router,
		reassembler: hevc.NewReassembler(),
	}
}

// AllowZRTP lets a version-0 datagram silently pass through as a ZRTP
// handoff instead of being rejected as malformed RTP.
//
// Parameters:
//   - allowed: whether version-0 datagrams should be treated as ZRTP.
func (l *Loop) AllowZRTP(allowed bool) {
	l.zrtpAllowed = allowed
}

// OnFrame installs a delivery callback, replacing pull-based delivery.
// A nil callback or a second registration is rejected and logged;
// the first installed callback stays in effect.
//
// Parameters:
//   - cb: the callback invoked with each delivered frame.
func (l *Loop) OnFrame(cb func(*rtpframe.Frame)) {
	if cb == nil {
		logrus.WithFields(logrus.Fields{"function": "Loop.OnFrame"}).Error("rejected nil receive hook")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.callback != nil {
		logrus.WithFields(logrus.Fields{"function": "Loop.OnFrame"}).Error("receive hook already installed")
		return
	}
	l.callback = cb
}

// Start runs the receive loop on a supervised goroutine until ctx is
// canceled or Stop is called.
//
// Parameters:
//   - ctx: governs the receive goroutine's lifetime.
//
// Returns:
//   - error: always nil; reserved for future setup failures.
func (l *Loop) Start(ctx context.Context) error {
	logrus.WithFields(logrus.Fields{
		"function": "Loop.Start",
	}).Info("starting dispatch loop")

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	l.group = g

	l.mu.Lock()
	l.active = true
	l.mu.Unlock()

	g.Go(func() error {
		return l.run(gctx)
	})

	return nil
}

// Stop signals the receive loop to exit and waits for it to return.
func (l *Loop) Stop() {
	logrus.WithFields(logrus.Fields{
		"function": "Loop.Stop",
	}).Info("stopping dispatch loop")

	l.mu.Lock()
	l.active = false
	l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	if l.group != nil {
		_ = l.group.Wait()
	}
}

func (l *Loop) run(ctx context.Context) error {
	buf := make([]byte, 0xffff)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := l.sock.Recv(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logrus.WithFields(logrus.Fields{
				"function": "Loop.run",
				"error":    err.Error(),
			}).Warn("datagram read failed")
			continue
		}

		frame, err := rtpframe.Validate(buf[:n], l.zrtpAllowed)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Loop.run",
				"error":    err.Error(),
			}).Debug("dropped malformed RTP packet")
			continue
		}
		if frame == nil {
			continue // ZRTP handoff: silently dropped by this core.
		}

		l.route(frame)
	}
}

func (l *Loop) route(frame *rtpframe.Frame) {
	if l.router != nil && l.router.IsHEVC(frame) {
		au, ready, err := l.reassembler.Push(*frame)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Loop.route",
				"error":    err.Error(),
			}).Debug("dropped malformed HEVC fragment")
			return
		}
		if !ready {
			return
		}
		l.deliver(&rtpframe.Frame{
			Version:        frame.Version,
			Marker:         frame.Marker,
			PayloadType:    frame.PayloadType,
			SequenceNumber: frame.SequenceNumber,
			Timestamp:      frame.Timestamp,
			SSRC:           frame.SSRC,
			Payload:        au,
		})
		return
	}

	l.deliver(frame)
}

func (l *Loop) deliver(frame *rtpframe.Frame) {
	l.mu.Lock()
	cb := l.callback
	l.mu.Unlock()

	if cb != nil {
		cb(frame)
		return
	}

	l.mu.Lock()
	l.queue = append(l.queue, frame)
	l.mu.Unlock()
}

// PullFrame blocks, polling every 20ms, until a frame is available,
// the loop is stopped, or ctx is canceled.
//
// Parameters:
//   - ctx: bounds how long PullFrame waits for a frame.
//
// Returns:
//   - *rtpframe.Frame: the next delivered frame.
//   - error: hevcrtp.ErrNotReady once the loop has stopped, or ctx's
//     error if it was canceled first.
func (l *Loop) PullFrame(ctx context.Context) (*rtpframe.Frame, error) {
	ticker := time.NewTicker(pullInterval)
	defer ticker.Stop()

	for {
		l.mu.Lock()
		if len(l.queue) > 0 {
			frame := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()
			return frame, nil
		}
		active := l.active
		l.mu.Unlock()

		if !active {
			return nil, hevcrtp.ErrNotReady
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
