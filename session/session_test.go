package session

import (
	"net"
	"testing"

	"github.com/opd-ai/hevcrtp/rtpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SendHEVCAndSendGeneric(t *testing.T) {
	server, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	conn, err := rtpio.NewUDPConnection(client, server.LocalAddr(), 96)
	require.NoError(t, err)
	defer conn.Close()

	s := New(conn, nil)
	assert.Nil(t, s.Loop())

	require.NoError(t, s.SendHEVC([]byte{0x00, 0x00, 0x01, 0x26, 0x01, 0xAA}))

	buf := make([]byte, 1500)
	n, _, err := server.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x26, 0x01, 0xAA}, buf[12:n])

	require.NoError(t, s.SendGeneric([]byte{0x99}))
	n, _, err = server.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x99}, buf[12:n])
}
