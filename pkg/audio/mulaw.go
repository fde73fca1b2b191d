// Package audio implements the codec math for the telephony media path:
// G.711 mu-law companding, the fixed 24k->8k downsample used for synthesized
// speech, normalized RMS energy, and WAV container packaging.
package audio

const (
	muLawBias = 0x84
	muLawClip = 32635
)

// muLawToPCM is the 256-entry expansion table, built once at startup.
var muLawToPCM [256]int16

func init() {
	for i := 0; i < 256; i++ {
		u := ^byte(i)
		sign := u & 0x80
		exp := (u >> 4) & 0x07
		mant := u & 0x0F
		v := (int32(mant)<<3 + muLawBias) << exp
		v -= muLawBias
		if sign != 0 {
			v = -v
		}
		muLawToPCM[i] = int16(v)
	}
}

// DecodeMuLaw expands one mu-law byte to a linear PCM sample.
func DecodeMuLaw(b byte) int16 {
	return muLawToPCM[b]
}

// EncodeMuLaw compands one linear PCM sample to a mu-law byte.
func EncodeMuLaw(s int16) byte {
	sign := byte(0)
	v := int32(s)
	if v < 0 {
		v = -v
		sign = 0x80
	}
	if v > muLawClip {
		v = muLawClip
	}
	v += muLawBias
	exp := byte(7)
	for mask := int32(0x4000); v&mask == 0 && exp > 0; mask >>= 1 {
		exp--
	}
	mant := byte((v >> (exp + 3)) & 0x0F)
	return ^(sign | exp<<4 | mant)
}

// DecodeMuLawFrame expands a whole companded frame.
func DecodeMuLawFrame(data []byte) []int16 {
	pcm := make([]int16, len(data))
	for i, b := range data {
		pcm[i] = muLawToPCM[b]
	}
	return pcm
}

// EncodeMuLawFrame compands a whole PCM buffer.
func EncodeMuLawFrame(pcm []int16) []byte {
	data := make([]byte, len(pcm))
	for i, s := range pcm {
		data[i] = EncodeMuLaw(s)
	}
	return data
}
