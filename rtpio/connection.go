package rtpio

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/opd-ai/hevcrtp"
	"github.com/sirupsen/logrus"
)

// Connection is the collaborator hevc.Push and generic.Push call
// into for this connection's frame queue, and that the queue calls
// into for each packet's RTP header fields. Socket bind/connect and SRTP/ZRTP key
// management stay out of scope; this interface is all the rest of
// the module needs from a transport.
type Connection interface {
	FillRTPHeader(buf []byte)
	UpdateRTPSequence(buf []byte)
	FrameQueue() *Queue
}

// UDPConnection is the default Connection and Socket, backed by a
// net.PacketConn and a crypto/rand-seeded SSRC — the concrete
// collaborator this module ships alongside the abstract interface it
// is written against.
type UDPConnection struct {
	pc   net.PacketConn
	addr net.Addr

	ssrc        uint32
	seq         uint16
	timestamp   uint32
	payloadType uint8
	marker      bool

	queue *Queue
}

// NewUDPConnection creates a UDPConnection sending to remoteAddr over
// pc, with a freshly generated SSRC and payloadType stamped on every
// outgoing packet until changed. pc's receive buffer is sized to
// hevcrtp.UDPRecvBuf; call SetRecvBuffer afterward to override it.
//
// Parameters:
//   - pc: the bound UDP socket to send on and receive from.
//   - remoteAddr: the peer address outgoing datagrams are sent to.
//   - payloadType: the RTP payload type stamped on outgoing packets.
//
// Returns:
//   - *UDPConnection: a new connection with a fresh SSRC.
//   - error: non-nil if SSRC generation failed.
func NewUDPConnection(pc net.PacketConn, remoteAddr net.Addr, payloadType uint8) (*UDPConnection, error) {
	ssrc, err := randomSSRC()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewUDPConnection",
			"error":    err.Error(),
		}).Error("failed to generate SSRC")
		return nil, fmt.Errorf("generate ssrc: %w", err)
	}

	c := &UDPConnection{
		pc:          pc,
		addr:        remoteAddr,
		ssrc:        ssrc,
		payloadType: payloadType & 0x7f,
	}
	c.queue = NewQueue(c, c)
	if err := c.SetRecvBuffer(hevcrtp.UDPRecvBuf); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewUDPConnection",
			"error":    err.Error(),
		}).Debug("socket does not support a custom receive buffer size")
	}

	logrus.WithFields(logrus.Fields{
		"function":     "NewUDPConnection",
		"ssrc":         ssrc,
		"remote_addr":  remoteAddr.String(),
		"payload_type": c.payloadType,
	}).Info("UDP RTP connection created")

	return c, nil
}

func randomSSRC() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// FillRTPHeader writes version 2, no padding/extension/CSRC, the
// current marker bit and payload type, timestamp, and SSRC. The
// sequence number field is left for UpdateRTPSequence.
//
// Parameters:
//   - buf: a zeroed 12-byte RTP header buffer to fill in place.
func (c *UDPConnection) FillRTPHeader(buf []byte) {
	logrus.WithFields(logrus.Fields{
		"function":     "UDPConnection.FillRTPHeader",
		"payload_type": c.payloadType,
		"timestamp":    c.timestamp,
	}).Debug("stamping RTP header")

	buf[0] = 0x80
	b1 := c.payloadType
	if c.marker {
		b1 |= 0x80
	}
	buf[1] = b1
	binary.BigEndian.PutUint32(buf[4:8], c.timestamp)
	binary.BigEndian.PutUint32(buf[8:12], c.ssrc)
}

// UpdateRTPSequence stamps the current sequence number into buf, then
// reserves the next one.
//
// Parameters:
//   - buf: the RTP header buffer whose sequence number field is set.
func (c *UDPConnection) UpdateRTPSequence(buf []byte) {
	binary.BigEndian.PutUint16(buf[2:4], c.seq)
	c.seq++
}

// FrameQueue returns this connection's send queue.
//
// Returns:
//   - *Queue: the queue packets enqueued on this connection flush through.
func (c *UDPConnection) FrameQueue() *Queue { return c.queue }

// SetTimestamp sets the RTP timestamp stamped onto packets enqueued
// from this point on, until changed again.
//
// Parameters:
//   - ts: the RTP timestamp for subsequently enqueued packets.
func (c *UDPConnection) SetTimestamp(ts uint32) {
	logrus.WithFields(logrus.Fields{
		"function":  "UDPConnection.SetTimestamp",
		"timestamp": ts,
	}).Debug("advancing RTP timestamp")
	c.timestamp = ts
}

// SetMarker sets the marker bit stamped onto packets enqueued from
// this point on. Callers set this before the last packet of an
// access unit and clear it afterward.
//
// Parameters:
//   - m: the marker bit value for subsequently enqueued packets.
func (c *UDPConnection) SetMarker(m bool) {
	logrus.WithFields(logrus.Fields{
		"function": "UDPConnection.SetMarker",
		"marker":   m,
	}).Debug("setting RTP marker bit")
	c.marker = m
}

// Send concatenates bufs and writes them as one UDP datagram — the
// serialize-then-send fallback, since net.PacketConn has no portable
// scatter-gather write.
//
// Parameters:
//   - bufs: the packet's scatter list (header plus one or more payload
//     buffers).
//
// Returns:
//   - error: any error from the underlying write.
func (c *UDPConnection) Send(bufs [][]byte) error {
	total := 0
	for _, b := range bufs {
		total += len(b)
	}
	merged := make([]byte, 0, total)
	for _, b := range bufs {
		merged = append(merged, b...)
	}
	_, err := c.pc.WriteTo(merged, c.addr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "UDPConnection.Send",
			"error":    err.Error(),
		}).Warn("failed to write RTP datagram")
	}
	return err
}

// SetRecvBuffer sets the socket's receive buffer size, when the
// underlying net.PacketConn supports it.
//
// Parameters:
//   - bytes: the desired receive buffer size in bytes.
//
// Returns:
//   - error: any error from the underlying socket option call.
func (c *UDPConnection) SetRecvBuffer(bytes int) error {
	type readBufSetter interface{ SetReadBuffer(int) error }
	if s, ok := c.pc.(readBufSetter); ok {
		return s.SetReadBuffer(bytes)
	}
	return nil
}

// Close closes the underlying connection.
//
// Returns:
//   - error: any error from closing the underlying net.PacketConn.
func (c *UDPConnection) Close() error {
	logrus.WithFields(logrus.Fields{
		"function": "UDPConnection.Close",
	}).Info("closing UDP RTP connection")
	return c.pc.Close()
}
