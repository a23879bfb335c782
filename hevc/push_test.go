package hevc

import (
	"net"
	"testing"

	"github.com/opd-ai/hevcrtp/rtpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUDPConn(t *testing.T) (*rtpio.UDPConnection, net.PacketConn) {
	t.Helper()
	server, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	conn, err := rtpio.NewUDPConnection(client, server.LocalAddr(), 96)
	require.NoError(t, err)
	return conn, server
}

func TestPush_ShortBufferTakesFastPath(t *testing.T) {
	conn, server := newUDPConn(t)
	data := []byte{0x00, 0x00, 0x01, 0x26, 0x01, 0xAA, 0xBB}

	require.NoError(t, Push(conn, data))

	buf := make([]byte, 1500)
	n, _, err := server.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x26, 0x01, 0xAA, 0xBB}, buf[12:n])
}

func TestPush_MultipleSmallUnitsEachArriveAsOnePacket(t *testing.T) {
	conn, server := newUDPConn(t)
	data := []byte{
		0x00, 0x00, 0x01, 0x26, 0x01, 0xAA,
		0x00, 0x00, 0x01, 0x26, 0x01, 0xBB,
	}
	require.NoError(t, Push(conn, data))

	buf := make([]byte, 1500)
	n1, _, err := server.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x26, 0x01, 0xAA}, buf[12:n1])

	n2, _, err := server.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x26, 0x01, 0xBB}, buf[12:n2])
}
