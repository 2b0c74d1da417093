// Package voice runs a live spoken conversation with the production
// advisor: PCM audio in both directions plus running transcripts.
package voice

import (
	"encoding/binary"
	"math"
	"time"
)

// Audio formats. All audio is 16-bit little-endian mono PCM.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000
	FrameSamples     = 4096
	FrameBytes       = FrameSamples * 2

	InputMIMEType = "audio/pcm;rate=16000"
)

// FloatToPCM16 converts samples in [-1, 1] to 16-bit PCM, clamping
// out-of-range values.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round(float64(s) * 32768)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// PCM16ToFloat converts 16-bit PCM to samples in [-1, 1). A trailing odd
// byte is ignored.
func PCM16ToFloat(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return out
}

// Duration is the play time of n bytes of PCM16 mono at rate.
func Duration(n int, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	samples := n / 2
	return time.Duration(samples) * time.Second / time.Duration(rate)
}
