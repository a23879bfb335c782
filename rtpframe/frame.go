package rtpframe

// Extension is the optional RTP header extension.
type Extension struct {
	Type uint16
	Data []byte
}

// Frame is a validated RTP frame from the receive path. Payload, CSRC
// and Ext.Data are owned copies, independent of the buffer Validate
// was called with.
type Frame struct {
	Version        uint8
	Padding        bool
	Extension      bool
	CC             uint8
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32
	Ext            *Extension
	Payload        []byte
	PaddingLen     uint8
}
