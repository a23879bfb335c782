package annexb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindStartCode(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		offset    int
		wantFound bool
		wantMatch Match
	}{
		{
			name:      "three byte start code at beginning",
			data:      []byte{0x00, 0x00, 0x01, 0x42, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE},
			offset:    0,
			wantFound: true,
			wantMatch: Match{Offset: 3, StartLen: 3},
		},
		{
			name:      "four byte start code at beginning",
			data:      []byte{0x00, 0x00, 0x00, 0x01, 0x42, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE},
			offset:    0,
			wantFound: true,
			wantMatch: Match{Offset: 4, StartLen: 4},
		},
		{
			name:      "start code after a long non-zero run",
			data:      append(append([]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB, 0xCC}, 0x00, 0x00, 0x01, 0x42), 0xAA),
			offset:    0,
			wantFound: true,
			wantMatch: Match{Offset: 15, StartLen: 3},
		},
		{
			name:      "no start code present",
			data:      []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88},
			offset:    0,
			wantFound: false,
		},
		{
			name:      "short buffer fast path",
			data:      []byte{0x00, 0x00, 0x01},
			offset:    0,
			wantFound: true,
			wantMatch: Match{Offset: 3, StartLen: 3},
		},
		{
			name:      "search resumes from offset, skipping an earlier match",
			data:      []byte{0x00, 0x00, 0x01, 0xAA, 0x00, 0x00, 0x01, 0xBB, 0xCC, 0xDD},
			offset:    3,
			wantFound: true,
			wantMatch: Match{Offset: 7, StartLen: 3},
		},
		{
			name:      "offset out of range returns no match",
			data:      []byte{0x00, 0x00, 0x01},
			offset:    10,
			wantFound: false,
		},
		{
			name:      "empty buffer returns no match",
			data:      []byte{},
			offset:    0,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]byte{}, tt.data...)

			got, found := FindStartCode(tt.data, tt.offset)
			require.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantMatch, got)
			}

			// The sentinel byte must always be restored, regardless
			// of whether a match was found.
			assert.Equal(t, original, tt.data, "sentinel byte not restored")
		})
	}
}

func TestFindStartCode_TrailingZeroIsNotAFalseMatch(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x00, 0x00}
	_, found := FindStartCode(data, 0)
	assert.False(t, found)
}

func TestHasZeroByte64(t *testing.T) {
	assert.False(t, hasZeroByte64(0x1122334455667788))
	assert.True(t, hasZeroByte64(0x1122334455660088))
	assert.True(t, hasZeroByte64(0x0022334455667788))
	assert.True(t, hasZeroByte64(0x1122334455667700))
}
