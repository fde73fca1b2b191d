package audio

import "math"

// RMS returns the normalized root-mean-square energy of a PCM buffer in [0,1].
func RMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum/float64(len(pcm))) / 32768.0
}

// Resample24kTo8k downsamples 24 kHz PCM to 8 kHz with an exact 3:1 box
// filter: each output sample is the rounded mean of three consecutive input
// samples. Output length is floor(len(pcm)/3); trailing remainder samples
// are discarded.
func Resample24kTo8k(pcm []int16) []int16 {
	n := len(pcm) / 3
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		sum := int32(pcm[3*i]) + int32(pcm[3*i+1]) + int32(pcm[3*i+2])
		v := int32(math.Round(float64(sum) / 3.0))
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[i] = int16(v)
	}
	return out
}

// PCMToBytes serializes samples as 16-bit little-endian.
func PCMToBytes(pcm []int16) []byte {
	out := make([]byte, 2*len(pcm))
	for i, s := range pcm {
		out[2*i] = byte(s)
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}

// BytesToPCM parses 16-bit little-endian samples. A trailing odd byte is
// dropped.
func BytesToPCM(data []byte) []int16 {
	n := len(data) / 2
	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		pcm[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}
	return pcm
}
