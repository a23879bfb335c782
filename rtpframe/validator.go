package rtpframe

import (
	"encoding/binary"

	"github.com/opd-ai/hevcrtp"
	"github.com/sirupsen/logrus"
)

const fixedHeaderSize = 12

// Validate parses and validates buf as an RTP packet: the fixed
// header, CSRC list, optional extension header, and padding trailer.
// It returns an owned copy of the payload.
//
// When the version field is 0 and zrtpAllowed is true, Validate
// returns (nil, nil): the datagram belongs to a ZRTP handshake and is
// silently handed off outside this core rather than rejected.
//
// Parameters:
//   - buf: one received datagram.
//   - zrtpAllowed: whether a version-0 datagram should be treated as a
//     silent ZRTP handoff instead of a malformed packet.
//
// Returns:
//   - *Frame: the validated frame, or nil on a ZRTP handoff.
//   - error: non-nil if buf failed validation.
func Validate(buf []byte, zrtpAllowed bool) (*Frame, error) {
	if len(buf) < fixedHeaderSize {
		logrus.WithFields(logrus.Fields{
			"function":   "Validate",
			"buf_length": len(buf),
		}).Debug("rejected RTP packet shorter than the fixed header")
		return nil, hevcrtp.ErrInvalidValue
	}

	f := &Frame{
		Version:        (buf[0] >> 6) & 0x03,
		Padding:        (buf[0]>>5)&0x01 != 0,
		Extension:      (buf[0]>>4)&0x01 != 0,
		CC:             buf[0] & 0x0f,
		Marker:         buf[1]&0x80 != 0,
		PayloadType:    buf[1] & 0x7f,
		SequenceNumber: binary.BigEndian.Uint16(buf[2:4]),
		Timestamp:      binary.BigEndian.Uint32(buf[4:8]),
		SSRC:           binary.BigEndian.Uint32(buf[8:12]),
	}

	if f.Version != 2 {
		if f.Version == 0 && zrtpAllowed {
			return nil, nil
		}
		logrus.WithFields(logrus.Fields{
			"function": "Validate",
			"version":  f.Version,
		}).Debug("rejected RTP packet with unsupported version")
		return nil, hevcrtp.ErrInvalidValue
	}

	pos := fixedHeaderSize
	remaining := len(buf) - fixedHeaderSize

	if f.CC > 0 {
		need := int(f.CC) * 4
		if remaining < need {
			logrus.WithFields(logrus.Fields{
				"function": "Validate",
				"cc":       f.CC,
			}).Debug("rejected RTP packet truncated before its CSRC list")
			return nil, hevcrtp.ErrInvalidValue
		}
		f.CSRC = make([]uint32, f.CC)
		for i := range f.CSRC {
			f.CSRC[i] = binary.BigEndian.Uint32(buf[pos : pos+4])
			pos += 4
		}
		remaining -= need
	}

	if f.Extension {
		if remaining < 4 {
			return nil, hevcrtp.ErrInvalidValue
		}
		extType := binary.BigEndian.Uint16(buf[pos : pos+2])
		extWords := binary.BigEndian.Uint16(buf[pos+2 : pos+4])
		advance := 4 + int(extWords)*4
		if remaining < advance {
			return nil, hevcrtp.ErrInvalidValue
		}
		f.Ext = &Extension{
			Type: extType,
			Data: append([]byte(nil), buf[pos+4:pos+advance]...),
		}
		pos += advance
		remaining -= advance
	}

	if f.Padding {
		if remaining <= 0 {
			logrus.WithFields(logrus.Fields{
				"function": "Validate",
			}).Debug("rejected RTP packet with padding flag but no trailer")
			return nil, hevcrtp.ErrInvalidValue
		}
		padLen := buf[len(buf)-1]
		if padLen == 0 || int(padLen) >= remaining {
			logrus.WithFields(logrus.Fields{
				"function": "Validate",
				"pad_len":  padLen,
			}).Debug("rejected RTP packet with invalid padding length")
			return nil, hevcrtp.ErrInvalidValue
		}
		f.PaddingLen = padLen
		remaining -= int(padLen)
	}

	f.Payload = append([]byte(nil), buf[pos:pos+remaining]...)
	return f, nil
}
