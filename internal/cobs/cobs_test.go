package cobs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x01, 0x02, 0x03},
		{0x00, 0x00, 0x00},
		{0x11, 0x00, 0x00, 0x00},
		{0x11, 0x22, 0x00, 0x33},
		bytes.Repeat([]byte{0xAB}, 300), // forces a 0xFF-length run split
	}
	for _, c := range cases {
		encoded := Encode(c)
		for _, b := range encoded {
			assert.NotZero(t, b, "encoded frame must never contain a literal 0x00")
		}
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, c, decoded)
	}
}

func TestDecodeRejectsEmbeddedZero(t *testing.T) {
	_, err := Decode([]byte{0x02, 0x01, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrZeroInInput)
}

func TestDecodeRejectsTruncatedRun(t *testing.T) {
	_, err := Decode([]byte{0x05, 0x01, 0x02})
	assert.Error(t, err)
}
