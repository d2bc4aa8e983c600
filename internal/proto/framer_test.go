package proto

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkReader hands out its input a few bytes at a time to exercise buffering across reads.
type chunkReader struct {
	data  []byte
	chunk int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.chunk
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func readAll(t *testing.T, fr *FrameReader) []string {
	t.Helper()

	var frames []string
	for {
		frame, err := fr.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		if err != nil {
			t.Fatalf("next frame: %v", err)
		}
		frames = append(frames, frame)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payloads := []string{
		"/login alice",
		"",
		"/lrooms public&system&The public room\nother&bob&x",
		"/post public&hello & goodbye",
		"unicode ✓ payload",
	}

	var buf bytes.Buffer
	for _, p := range payloads {
		if err := WriteFrame(&buf, p); err != nil {
			t.Fatalf("write %q: %v", p, err)
		}
	}

	got := readAll(t, NewFrameReader(&buf, 0))
	if len(got) != len(payloads) {
		t.Fatalf("got %d frames, want %d: %q", len(got), len(payloads), got)
	}
	for i := range payloads {
		if got[i] != payloads[i] {
			t.Errorf("frame %d = %q, want %q", i, got[i], payloads[i])
		}
	}
}

func TestFrameReaderBuffersPartialFrames(t *testing.T) {
	r := &chunkReader{data: []byte("/login al$/lru $/join pub$"), chunk: 3}

	got := readAll(t, NewFrameReader(r, 0))
	want := []string{"/login al", "/lru ", "/join pub"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("frames = %q, want %q", got, want)
	}
}

func TestFrameReaderDiscardsTrailingPartial(t *testing.T) {
	got := readAll(t, NewFrameReader(strings.NewReader("/lru $/login half"), 0))
	if len(got) != 1 || got[0] != "/lru " {
		t.Fatalf("frames = %q, want only the complete frame", got)
	}
}

func TestFrameReaderRejectsOversizedFrame(t *testing.T) {
	fr := NewFrameReader(strings.NewReader(strings.Repeat("x", 100)+"$"), 16)

	_, err := fr.Next()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestFrameReaderAcceptsFrameAtLimit(t *testing.T) {
	payload := strings.Repeat("x", 16)
	fr := NewFrameReader(strings.NewReader(payload+"$"), 16)

	frame, err := fr.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if frame != payload {
		t.Fatalf("frame = %q", frame)
	}
}

func TestEncodeRejectsSentinel(t *testing.T) {
	if _, err := Encode("price: 5$"); !errors.Is(err, ErrSentinelInPayload) {
		t.Fatalf("expected ErrSentinelInPayload, got %v", err)
	}

	frame, err := Encode("ok")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(frame) != "ok$" {
		t.Fatalf("frame = %q", frame)
	}
}
