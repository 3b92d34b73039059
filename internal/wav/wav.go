// Package wav encodes mono 16-bit PCM samples into the canonical 44-byte
// header WAV format expected by the transcription backends.
package wav

import (
	"encoding/binary"
	"errors"
)

const (
	channels      = 1
	bitsPerSample = 16
	headerSize    = 44
)

// Encode produces a complete WAV byte stream for samples at sampleRate.
func Encode(samples []int16, sampleRate uint32) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := uint16(channels * bitsPerSample / 8)
	dataSize := uint32(len(samples) * 2)
	fileSize := 36 + dataSize

	out := make([]byte, headerSize+int(dataSize))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], fileSize)
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], channels)
	binary.LittleEndian.PutUint32(out[24:28], sampleRate)
	binary.LittleEndian.PutUint32(out[28:32], byteRate)
	binary.LittleEndian.PutUint16(out[32:34], blockAlign)
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataSize)

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[headerSize+2*i:headerSize+2*i+2], uint16(s))
	}

	return out
}

// DecodeData extracts the sample rate and PCM samples back out of a WAV
// byte stream produced by Encode. It is used only by tests to assert the
// encode/decode round trip; it does not attempt to parse arbitrary WAV
// files (no extra chunks, no non-PCM formats).
func DecodeData(data []byte) (samples []int16, sampleRate uint32, err error) {
	if len(data) < headerSize {
		return nil, 0, errors.New("wav: truncated header")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("wav: not a RIFF/WAVE stream")
	}
	sampleRate = binary.LittleEndian.Uint32(data[24:28])
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if int(dataSize) > len(data)-headerSize {
		return nil, 0, errors.New("wav: data chunk overruns buffer")
	}

	samples = make([]int16, dataSize/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[headerSize+2*i : headerSize+2*i+2]))
	}
	return samples, sampleRate, nil
}
