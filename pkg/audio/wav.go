package audio

import "encoding/binary"

// WAVHeader builds the fixed 44-byte mono 16-bit linear PCM container header
// for a payload of the given byte length at the given sample rate.
func WAVHeader(payloadBytes, sampleRate int) []byte {
	hdr := make([]byte, 44)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+payloadBytes))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(hdr[32:34], 2)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(payloadBytes))
	return hdr
}

// PackWAV wraps PCM samples into a complete mono 16-bit WAV container.
func PackWAV(pcm []int16, sampleRate int) []byte {
	payload := PCMToBytes(pcm)
	return append(WAVHeader(len(payload), sampleRate), payload...)
}
