package vad

import "testing"

func speechFrame(n int) []int16 {
	f := make([]int16, n)
	for i := range f {
		f[i] = 4000 // well above the default threshold
	}
	return f
}

func silenceFrame(n int) []int16 { return make([]int16, n) }

func TestSegmenterEmitsAfterSilenceRun(t *testing.T) {
	s := NewSegmenter(Config{})

	var want []int16
	for i := 0; i < 5; i++ {
		frame := speechFrame(160)
		want = append(want, frame...)
		if _, ok := s.Push(frame); ok {
			t.Fatalf("speech frame %d emitted an utterance", i)
		}
	}
	if !s.Speaking() {
		t.Fatalf("expected speaking state after speech frames")
	}

	var got []int16
	events := 0
	for i := 0; i < 16; i++ {
		utt, ok := s.Push(silenceFrame(160))
		if ok {
			events++
			got = utt
		}
	}
	if events != 1 {
		t.Fatalf("expected exactly one utterance, got %d", events)
	}
	if len(got) != len(want) {
		t.Fatalf("utterance length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d differs", i)
		}
	}
	if s.Speaking() {
		t.Fatalf("expected not-speaking after emission")
	}

	// buffer must be empty: more silence is a no-op
	for i := 0; i < 40; i++ {
		if _, ok := s.Push(silenceFrame(160)); ok {
			t.Fatalf("silence while idle emitted an utterance")
		}
	}
}

func TestSegmenterSilenceBelowRunKeepsBuffer(t *testing.T) {
	s := NewSegmenter(Config{SilenceFrames: 15})
	s.Push(speechFrame(160))
	for i := 0; i < 15; i++ {
		if _, ok := s.Push(silenceFrame(160)); ok {
			t.Fatalf("emitted before silence run exceeded at frame %d", i)
		}
	}
	// speech resumes: silence counter resets, buffer keeps growing
	s.Push(speechFrame(160))
	for i := 0; i < 15; i++ {
		if _, ok := s.Push(silenceFrame(160)); ok {
			t.Fatalf("emitted before silence run exceeded after resume")
		}
	}
	utt, ok := s.Push(silenceFrame(160))
	if !ok {
		t.Fatalf("expected utterance on 16th silence frame")
	}
	if len(utt) != 320 {
		t.Fatalf("expected both speech frames buffered, got %d samples", len(utt))
	}
}

func TestSegmenterLeadingSilenceIgnored(t *testing.T) {
	s := NewSegmenter(Config{})
	for i := 0; i < 100; i++ {
		if _, ok := s.Push(silenceFrame(160)); ok {
			t.Fatalf("leading silence emitted an utterance")
		}
	}
}

func TestSegmenterReset(t *testing.T) {
	s := NewSegmenter(Config{})
	s.Push(speechFrame(160))
	s.Reset()
	for i := 0; i < 16; i++ {
		if _, ok := s.Push(silenceFrame(160)); ok {
			t.Fatalf("emitted after reset")
		}
	}
}
