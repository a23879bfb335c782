package hevcrtp

// Configuration constants from spec section 6.
const (
	// MaxPayload is the UDP payload budget after RTP headers.
	MaxPayload = 1400

	// UDPRecvBuf is the default socket receive buffer size, in bytes,
	// used when a connection doesn't request a different size.
	UDPRecvBuf = 4 * 1024 * 1024
)
