package hevcrtp

import "errors"

// Kind classifies the outcome of a core operation, following the error
// taxonomy of spec section 7: OK, NotReady, InvalidValue, GenericError.
type Kind int

const (
	// KindOK indicates success.
	KindOK Kind = iota
	// KindNotReady indicates a send call enqueued its packet but held
	// the queue open for further batching.
	KindNotReady
	// KindInvalidValue indicates malformed input: short RTP, bad
	// version, bad padding, CSRC overflow, and similar.
	KindInvalidValue
	// KindGenericError indicates a socket or allocation failure.
	KindGenericError
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindNotReady:
		return "NotReady"
	case KindInvalidValue:
		return "InvalidValue"
	case KindGenericError:
		return "GenericError"
	default:
		return "Unknown"
	}
}

// Sentinel errors for hevcrtp operations. These enable reliable error
// classification using errors.Is().
var (
	// ErrNotReady indicates a packet was enqueued but the caller should
	// keep batching before flushing.
	ErrNotReady = errors.New("rtp: enqueued, not ready to flush")

	// ErrInvalidValue indicates malformed input was rejected.
	ErrInvalidValue = errors.New("rtp: invalid value")

	// ErrGenericError indicates a socket or allocation failure.
	ErrGenericError = errors.New("rtp: generic error")

	// ErrQueueEmpty indicates a flush was attempted on an empty queue.
	ErrQueueEmpty = errors.New("rtp: cannot flush an empty queue")
)

// ClassifyError maps one of this package's sentinel errors to its
// Kind, for callers that log or branch on error category rather than
// identity. A nil err classifies as KindOK; an err this package didn't
// originate classifies as KindGenericError.
func ClassifyError(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrNotReady):
		return KindNotReady
	case errors.Is(err, ErrInvalidValue):
		return KindInvalidValue
	default:
		return KindGenericError
	}
}
