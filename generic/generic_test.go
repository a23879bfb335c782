package generic

import (
	"net"
	"testing"

	"github.com/opd-ai/hevcrtp"
	"github.com/opd-ai/hevcrtp/rtpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush_SendsSinglePacket(t *testing.T) {
	server, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	conn, err := rtpio.NewUDPConnection(client, server.LocalAddr(), 97)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Push(conn, []byte{0x01, 0x02, 0x03}, true))

	buf := make([]byte, 1500)
	n, _, err := server.ReadFrom(buf)
	require.NoError(t, err)
	assert.NotZero(t, buf[1]&0x80, "marker bit must be set")
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, buf[12:n])
}

func TestPush_RejectsEmptyPayload(t *testing.T) {
	err := Push(nil, nil, false)
	assert.ErrorIs(t, err, hevcrtp.ErrInvalidValue)
}

func TestUnmarshal_ParsesGenericRTPPacket(t *testing.T) {
	server, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()
	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	conn, err := rtpio.NewUDPConnection(client, server.LocalAddr(), 111)
	require.NoError(t, err)
	require.NoError(t, Push(conn, []byte{0xAA, 0xBB}, false))

	buf := make([]byte, 1500)
	n, _, err := server.ReadFrom(buf)
	require.NoError(t, err)

	pkt, err := Unmarshal(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, uint8(111), pkt.PayloadType)
	assert.Equal(t, []byte{0xAA, 0xBB}, pkt.Payload)
}

func TestUnmarshal_RejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte{0x01})
	assert.ErrorIs(t, err, hevcrtp.ErrInvalidValue)
}
