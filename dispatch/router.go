package dispatch

import "github.com/opd-ai/hevcrtp/rtpframe"

// Router decides whether a validated frame belongs to HEVC
// reassembly or the generic passthrough path.
type Router interface {
	IsHEVC(f *rtpframe.Frame) bool
}

// PayloadTypeRouter routes by exact RTP payload type match — the
// usual case, since the HEVC payload type is negotiated out-of-band
// (SDP) and fixed for the life of a session.
type PayloadTypeRouter struct {
	HEVCPayloadType uint8
}

// IsHEVC reports whether f's payload type matches the configured
// HEVC payload type.
func (r PayloadTypeRouter) IsHEVC(f *rtpframe.Frame) bool {
	return f.PayloadType == r.HEVCPayloadType
}
