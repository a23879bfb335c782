// Package generic is the passthrough collaborator for RTP payloads
// that aren't HEVC: the Annex-B short-buffer fast path and any other
// payload type hand their bytes to Push, and Unmarshal parses a raw
// datagram as a generic RTP packet.
package generic
