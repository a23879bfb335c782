package hevc

import (
	"sort"
	"time"

	"github.com/bluenviron/mediacommon/pkg/codecs/h265"
	"github.com/opd-ai/hevcrtp"
	"github.com/opd-ai/hevcrtp/rtpframe"
	"github.com/sirupsen/logrus"
)

const (
	nalTypeAP = 48
	nalTypeFU = 49

	maxPendingAccessUnits = 10
)

// TimeProvider abstracts wall-clock access so reassembly timeouts can
// be driven deterministically in tests.
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider calls time.Now.
type DefaultTimeProvider struct{}

// Now returns the current wall-clock time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// fragmentSet accumulates the fragmentation units of one access unit,
// keyed by an unwrapped (non-wrapping) sequence number.
type fragmentSet struct {
	fragments map[uint32][]byte
	haveBase  bool
	base      uint16

	haveStart bool
	startSeq  uint32
	reconNAL  [2]byte

	haveEnd bool
	endSeq  uint32

	intra        bool
	lastActivity time.Time
}

func newFragmentSet(now time.Time) *fragmentSet {
	return &fragmentSet{
		fragments:    make(map[uint32][]byte),
		lastActivity: now,
	}
}

// unwrap corrects for 16-bit RTP sequence wraparound relative to the
// first fragment seen for this set.
func (fs *fragmentSet) unwrap(seq uint16) uint32 {
	if !fs.haveBase {
		fs.haveBase = true
		fs.base = seq
		return uint32(seq)
	}
	s := uint32(seq)
	b := uint32(fs.base)
	if s < b && b-s > 0x8000 {
		s += 0x10000
	}
	return s
}

func (fs *fragmentSet) ready() bool {
	if !fs.haveStart || !fs.haveEnd || fs.endSeq < fs.startSeq {
		return false
	}
	for i := fs.startSeq; i <= fs.endSeq; i++ {
		if _, ok := fs.fragments[i]; !ok {
			return false
		}
	}
	return true
}

func (fs *fragmentSet) assemble() []byte {
	au := make([]byte, 0, len(fs.fragments)*256)
	au = append(au, fs.reconNAL[0], fs.reconNAL[1])
	for i := fs.startSeq; i <= fs.endSeq; i++ {
		au = append(au, fs.fragments[i]...)
	}
	return au
}

// Reassembler reconstructs HEVC access units from a stream of
// validated RTP frames: whole NAL units pass through unchanged,
// fragmentation units are buffered per timestamp until their run is
// contiguous from the start to the end fragment, and aggregation
// packets are unpacked into their constituent NAL units. Incomplete
// access units are evicted after a timeout, and an incoming IDR/CRA
// access unit evicts older incomplete non-intra ones first to bound
// memory under loss.
type Reassembler struct {
	sets map[uint32]*fragmentSet
	tp   TimeProvider

	maxAge time.Duration
}

// NewReassembler creates a Reassembler with the default 1-second
// incomplete-access-unit timeout.
//
// Returns:
//   - *Reassembler: a new reassembler with no pending access units.
func NewReassembler() *Reassembler {
	return NewReassemblerWithTimeProvider(DefaultTimeProvider{}, time.Second)
}

// NewReassemblerWithTimeProvider creates a Reassembler using tp for
// timeout evaluation and maxAge as the incomplete-access-unit
// timeout, for deterministic tests.
//
// Parameters:
//   - tp: the clock used to evaluate staleness.
//   - maxAge: how long an incomplete access unit is kept before eviction.
//
// Returns:
//   - *Reassembler: a new reassembler with no pending access units.
func NewReassemblerWithTimeProvider(tp TimeProvider, maxAge time.Duration) *Reassembler {
	logrus.WithFields(logrus.Fields{
		"function": "NewReassemblerWithTimeProvider",
		"max_age":  maxAge,
	}).Info("creating HEVC access unit reassembler")

	return &Reassembler{
		sets:   make(map[uint32]*fragmentSet),
		tp:     tp,
		maxAge: maxAge,
	}
}

// Push feeds one validated RTP frame into the reassembler. complete
// is true exactly when accessUnit holds a fully reassembled access
// unit ready for delivery.
//
// Parameters:
//   - f: one validated RTP frame carrying a whole NAL unit, a
//     fragmentation unit, or an aggregation packet.
//
// Returns:
//   - []byte: the reassembled access unit, or nil if not yet complete.
//   - bool: whether accessUnit holds a complete access unit.
//   - error: non-nil if f's payload was malformed.
func (r *Reassembler) Push(f rtpframe.Frame) (accessUnit []byte, complete bool, err error) {
	if len(f.Payload) < 1 {
		return nil, false, hevcrtp.ErrInvalidValue
	}

	now := r.tp.Now()
	r.evictStale(now)

	nalType := (f.Payload[0] >> 1) & 0x3f

	switch nalType {
	case nalTypeFU:
		return r.pushFragment(f, now)
	case nalTypeAP:
		au, err := unpackAggregation(f.Payload)
		if err != nil {
			return nil, false, err
		}
		return au, true, nil
	default:
		return append([]byte(nil), f.Payload...), true, nil
	}
}

func (r *Reassembler) pushFragment(f rtpframe.Frame, now time.Time) ([]byte, bool, error) {
	if len(f.Payload) < 3 {
		return nil, false, hevcrtp.ErrInvalidValue
	}

	fuHeader := f.Payload[2]
	start := fuHeader&0x80 != 0
	end := fuHeader&0x40 != 0
	fragType := fuHeader & 0x3f

	fs, ok := r.sets[f.Timestamp]
	if !ok {
		fs = newFragmentSet(now)
		r.sets[f.Timestamp] = fs
	}
	fs.lastActivity = now

	seq := fs.unwrap(f.SequenceNumber)
	fs.fragments[seq] = append([]byte(nil), f.Payload[3:]...)

	if start {
		fs.haveStart = true
		fs.startSeq = seq
		fs.reconNAL[0] = (f.Payload[0] & 0x81) | (fragType << 1)
		fs.reconNAL[1] = f.Payload[1]
		if h265.IsRandomAccess([][]byte{{fs.reconNAL[0], fs.reconNAL[1]}}) {
			fs.intra = true
			r.evictIncompleteNonIntra(f.Timestamp)
		}
	}
	if end {
		fs.haveEnd = true
		fs.endSeq = seq
	}

	if !fs.ready() {
		r.enforceCapacity()
		return nil, false, nil
	}

	au := fs.assemble()
	delete(r.sets, f.Timestamp)
	return au, true, nil
}

func (r *Reassembler) evictStale(now time.Time) {
	for ts, fs := range r.sets {
		if now.Sub(fs.lastActivity) > r.maxAge {
			logrus.WithFields(logrus.Fields{
				"function":  "Reassembler.evictStale",
				"timestamp": ts,
			}).Debug("dropped incomplete HEVC access unit on timeout")
			delete(r.sets, ts)
		}
	}
}

// evictIncompleteNonIntra drops every incomplete, non-intra fragment
// set other than the one for keep, so an arriving IDR/CRA isn't
// starved of memory by stalled inter-frame fragments.
func (r *Reassembler) evictIncompleteNonIntra(keep uint32) {
	for ts, fs := range r.sets {
		if ts == keep || fs.intra {
			continue
		}
		delete(r.sets, ts)
	}
}

// enforceCapacity drops the oldest incomplete access unit once the
// number of pending sets exceeds maxPendingAccessUnits.
func (r *Reassembler) enforceCapacity() {
	if len(r.sets) <= maxPendingAccessUnits {
		return
	}

	type entry struct {
		ts uint32
		at time.Time
	}
	entries := make([]entry, 0, len(r.sets))
	for ts, fs := range r.sets {
		entries = append(entries, entry{ts: ts, at: fs.lastActivity})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

	delete(r.sets, entries[0].ts)
}

// unpackAggregation splits an RFC 7798 aggregation packet (NAL type
// 48) into its constituent, 2-byte length-prefixed NAL units,
// returning them concatenated with their original headers intact.
func unpackAggregation(payload []byte) ([]byte, error) {
	if len(payload) < 2 {
		return nil, hevcrtp.ErrInvalidValue
	}
	// The AP payload itself starts with a 2-byte NAL header (type 48),
	// followed by one or more 2-byte-length-prefixed NAL units.
	pos := 2

	au := make([]byte, 0, len(payload))
	for pos+2 <= len(payload) {
		size := int(payload[pos])<<8 | int(payload[pos+1])
		pos += 2
		if size <= 0 || pos+size > len(payload) {
			return nil, hevcrtp.ErrInvalidValue
		}
		au = append(au, payload[pos:pos+size]...)
		pos += size
	}

	if len(au) == 0 {
		return nil, hevcrtp.ErrInvalidValue
	}
	return au, nil
}
