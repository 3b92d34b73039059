package wav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeaderLayout(t *testing.T) {
	out := Encode([]int16{1, -1, 32767}, 16000)

	require.Len(t, out, 44+6)
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "fmt ", string(out[12:16]))
	assert.Equal(t, "data", string(out[36:40]))
}

func TestEncodeEmptySamples(t *testing.T) {
	out := Encode(nil, 16000)
	assert.Len(t, out, 44)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 42}
	out := Encode(samples, 44100)

	got, rate, err := DecodeData(out)

	require.NoError(t, err)
	assert.Equal(t, uint32(44100), rate)
	assert.Equal(t, samples, got)
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	_, _, err := DecodeData([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodeRejectsNonRIFF(t *testing.T) {
	bad := Encode([]int16{1}, 16000)
	bad[0] = 'X'
	_, _, err := DecodeData(bad)
	assert.Error(t, err)
}
