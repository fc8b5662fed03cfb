// Package wav handles the fixed RIFF framing used on the wire:
// 16 kHz, 16-bit signed little-endian, mono PCM.
package wav

import (
	"encoding/binary"
	"time"
)

const (
	SampleRate    = 16000
	BitsPerSample = 16
	Channels      = 1

	// HeaderSize is the fixed RIFF/fmt/data header length.
	HeaderSize = 44

	// BytesPerSecond of raw PCM at the fixed format above.
	BytesPerSecond = SampleRate * BitsPerSample / 8 * Channels
)

// Header builds the 44-byte RIFF header for a PCM payload of dataLen bytes.
func Header(dataLen int) []byte {
	h := make([]byte, HeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // audio format: PCM
	binary.LittleEndian.PutUint16(h[22:24], Channels)
	binary.LittleEndian.PutUint32(h[24:28], SampleRate)
	binary.LittleEndian.PutUint32(h[28:32], BytesPerSecond)
	binary.LittleEndian.PutUint16(h[32:34], Channels*BitsPerSample/8) // block align
	binary.LittleEndian.PutUint16(h[34:36], BitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}

// Wrap prepends a RIFF header to raw PCM.
func Wrap(pcm []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(pcm))
	out = append(out, Header(len(pcm))...)
	return append(out, pcm...)
}

// PlaybackDuration estimates how long a headered payload takes to play.
// A payload with no PCM past the header counts as zero-length.
func PlaybackDuration(payload []byte) time.Duration {
	pcm := len(payload) - HeaderSize
	if pcm <= 0 {
		return 0
	}
	return time.Duration(pcm) * time.Second / BytesPerSecond
}
