// Package hevcrtp is the media-payload core of an RTP stack specialized
// for delivering HEVC (H.265) video over UDP, alongside a generic RTP
// receive path.
//
// On the send side, an Annex-B byte stream is scanned for NAL unit
// start codes (package annexb), each unit is either enqueued verbatim
// or split into RFC 7798 fragmentation units (package hevc), and the
// resulting packets are batched through a per-connection frame queue
// (package rtpio) before being written to the network. On the receive
// side, incoming datagrams are validated as RTP (package rtpframe),
// routed by a dispatch loop (package dispatch), and reassembled into
// complete HEVC access units (package hevc).
//
// Socket creation, SRTP/ZRTP key management, and random-number
// generation are external collaborators; this module defines the
// interfaces it needs from them (rtpio.Connection, rtpio.Socket) and
// ships a default net.PacketConn-backed implementation.
package hevcrtp
