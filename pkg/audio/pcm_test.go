package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestRMSRange(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("empty buffer rms = %f", got)
	}
	silence := make([]int16, 160)
	if got := RMS(silence); got != 0 {
		t.Fatalf("silence rms = %f", got)
	}
	full := make([]int16, 160)
	for i := range full {
		full[i] = math.MaxInt16
	}
	got := RMS(full)
	if got < 0.99 || got > 1.0 {
		t.Fatalf("full-scale rms = %f, expected ~1.0", got)
	}
}

func TestResample24kTo8kLength(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 480, 481, 482} {
		in := make([]int16, n)
		out := Resample24kTo8k(in)
		if len(out) != n/3 {
			t.Fatalf("n=%d: expected %d output samples, got %d", n, n/3, len(out))
		}
	}
}

func TestResample24kTo8kMeans(t *testing.T) {
	in := []int16{3, 3, 3, 1, 2, 3, 100, 200, 301}
	out := Resample24kTo8k(in)
	want := []int16{3, 2, 200}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, out[i], want[i])
		}
	}
}

func TestPCMByteRoundTrip(t *testing.T) {
	pcm := []int16{0, 1, -1, 32767, -32768, 12345}
	back := BytesToPCM(PCMToBytes(pcm))
	if len(back) != len(pcm) {
		t.Fatalf("length mismatch: %d vs %d", len(back), len(pcm))
	}
	for i := range pcm {
		if back[i] != pcm[i] {
			t.Fatalf("sample %d: got %d, want %d", i, back[i], pcm[i])
		}
	}
}

func TestWAVHeaderFields(t *testing.T) {
	const payload = 320
	hdr := WAVHeader(payload, 8000)
	if len(hdr) != 44 {
		t.Fatalf("header length = %d", len(hdr))
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" || string(hdr[36:40]) != "data" {
		t.Fatalf("bad chunk ids")
	}
	if got := binary.LittleEndian.Uint32(hdr[4:8]); got != 36+payload {
		t.Fatalf("riff size = %d", got)
	}
	if got := binary.LittleEndian.Uint32(hdr[24:28]); got != 8000 {
		t.Fatalf("sample rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(hdr[28:32]); got != 16000 {
		t.Fatalf("byte rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(hdr[40:44]); got != payload {
		t.Fatalf("data size = %d", got)
	}
}

func TestPackWAV(t *testing.T) {
	pcm := make([]int16, 160)
	wav := PackWAV(pcm, 8000)
	if len(wav) != 44+320 {
		t.Fatalf("wav length = %d", len(wav))
	}
}
