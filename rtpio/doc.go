// Package rtpio provides the send-side frame queue and the
// Connection/Socket collaborator interfaces it batches packets
// through.
//
// Socket bind/connect, SRTP/ZRTP key management, and address
// resolution stay out of this package's scope; it only defines the
// shape those collaborators must have and ships UDPConnection, a
// net.PacketConn-backed default implementation, so the package is
// runnable end-to-end without any external transport library.
package rtpio
