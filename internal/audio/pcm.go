package audio

import (
	"encoding/binary"
	"math"
)

// LoudnessScale converts normalized RMS into loudness units.
const LoudnessScale = 1000

// Loudness returns the RMS of samples, normalized to [-1, 1] and scaled by
// LoudnessScale, truncated to an integer.
func Loudness(samples []int16) int {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return int(rms * LoudnessScale)
}

// decodeS16LE decodes little-endian signed 16-bit samples into dst.
func decodeS16LE(dst []int16, buf []byte) []int16 {
	dst = dst[:0]
	for i := 0; i+1 < len(buf); i += 2 {
		dst = append(dst, int16(binary.LittleEndian.Uint16(buf[i:])))
	}
	return dst
}
