package hevc

import (
	"encoding/binary"
	"testing"

	"github.com/opd-ai/hevcrtp"
	"github.com/opd-ai/hevcrtp/rtpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFiller struct{ seq uint16 }

func (f *testFiller) FillRTPHeader(buf []byte) { buf[0] = 0x80; buf[1] = 96 }
func (f *testFiller) UpdateRTPSequence(buf []byte) {
	binary.BigEndian.PutUint16(buf[2:4], f.seq)
	f.seq++
}

type testSocket struct{ sent [][][]byte }

func (s *testSocket) Send(bufs [][]byte) error {
	cp := make([][]byte, len(bufs))
	for i, b := range bufs {
		cp[i] = append([]byte(nil), b...)
	}
	s.sent = append(s.sent, cp)
	return nil
}
func (s *testSocket) SetRecvBuffer(int) error { return nil }

func newTestQueue() (*rtpio.Queue, *testSocket) {
	sock := &testSocket{}
	return rtpio.NewQueue(sock, &testFiller{}), sock
}

func TestFragment_SmallUnitEnqueuesVerbatim(t *testing.T) {
	q, sock := newTestQueue()
	unit := []byte{0x26, 0x01, 0xAA, 0xBB, 0xCC}

	kind, err := Fragment(q, unit, false)
	require.NoError(t, err)
	assert.Equal(t, hevcrtp.KindOK, kind)
	require.NoError(t, q.Flush())

	require.Len(t, sock.sent, 1)
	assert.Equal(t, unit, sock.sent[0][1])
}

func TestFragment_MoreFollowsHoldsBatch(t *testing.T) {
	q, sock := newTestQueue()
	unit := []byte{0x26, 0x01, 0xAA}

	kind, err := Fragment(q, unit, true)
	assert.Equal(t, hevcrtp.KindNotReady, kind)
	assert.ErrorIs(t, err, hevcrtp.ErrNotReady)
	assert.Equal(t, 1, q.Pending())
	assert.Empty(t, sock.sent)
}

func TestFragment_LargeUnitSplitsIntoFUs(t *testing.T) {
	q, sock := newTestQueue()

	nalType := uint8(1) // TRAIL_R
	header := []byte{nalType << 1, 0x01}
	payload := make([]byte, hevcrtp.MaxPayload*2+100)
	for i := range payload {
		payload[i] = byte(i)
	}
	unit := append(header, payload...)

	kind, err := Fragment(q, unit, false)
	require.NoError(t, err)
	assert.Equal(t, hevcrtp.KindOK, kind)
	assert.Equal(t, 0, q.Pending(), "Fragment must flush before returning")

	require.GreaterOrEqual(t, len(sock.sent), 3)

	first := sock.sent[0]
	fuIndicator := first[1][0]
	assert.Equal(t, uint8(49<<1), fuIndicator&^0x01)
	fuHeaderByte := first[1][2]
	assert.NotZero(t, fuHeaderByte&0x80, "first fragment must set the S bit")
	assert.Equal(t, nalType, fuHeaderByte&0x3f)
	assert.Len(t, first[2], hevcrtp.MaxPayload, "each fragment carries a full MaxPayload chunk")

	last := sock.sent[len(sock.sent)-1]
	lastFUHeader := last[1][2]
	assert.NotZero(t, lastFUHeader&0x40, "last fragment must set the E bit")

	for _, pkt := range sock.sent[1 : len(sock.sent)-1] {
		fh := pkt[1][2]
		assert.Zero(t, fh&0xC0, "middle fragments must clear both S and E")
	}

	// Concatenating every fragment's chunk recovers the original.
	var rebuilt []byte
	for _, pkt := range sock.sent {
		rebuilt = append(rebuilt, pkt[2]...)
	}
	assert.Equal(t, payload, rebuilt)
}

func TestFragment_RejectsTooShortUnit(t *testing.T) {
	q, _ := newTestQueue()
	_, err := Fragment(q, []byte{0x01}, false)
	assert.ErrorIs(t, err, hevcrtp.ErrInvalidValue)
}
