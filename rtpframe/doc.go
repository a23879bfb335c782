// Package rtpframe validates raw datagrams as RTP frames: fixed
// header, CSRC list, optional extension header, and padding trailer,
// returning an owned copy of the payload and its parsed fields.
package rtpframe
