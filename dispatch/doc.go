// Package dispatch runs the receive-side loop: read a datagram,
// validate it as RTP, route it to HEVC reassembly or pass it through,
// and deliver complete frames to an installed callback or a pull-poll
// consumer.
package dispatch
