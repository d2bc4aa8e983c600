package proto

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel terminates every frame on the wire; it never appears inside a payload.
const Sentinel byte = '$'

// DefaultMaxFrameBytes bounds a single frame when no limit is configured.
const DefaultMaxFrameBytes = 64 << 10

var (
	// ErrSentinelInPayload is returned when a payload would split into two frames.
	ErrSentinelInPayload = errors.New("payload contains frame sentinel")
	// ErrFrameTooLarge is returned when the peer sends more than the frame limit without a sentinel.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
)

// FrameReader turns a byte stream into a lazy sequence of frames.
// Partial frames are buffered across reads; a partial frame left at EOF is dropped.
type FrameReader struct {
	scanner *bufio.Scanner
}

// NewFrameReader wraps r. maxFrameBytes <= 0 selects DefaultMaxFrameBytes.
func NewFrameReader(r io.Reader, maxFrameBytes int) *FrameReader {
	if maxFrameBytes <= 0 {
		maxFrameBytes = DefaultMaxFrameBytes
	}

	initial := 4096
	if initial > maxFrameBytes+1 {
		initial = maxFrameBytes + 1
	}

	scanner := bufio.NewScanner(r)
	// +1 leaves room for the sentinel itself.
	scanner.Buffer(make([]byte, 0, initial), maxFrameBytes+1)
	scanner.Split(splitFrames)

	return &FrameReader{scanner: scanner}
}

// Next returns the next complete frame without its sentinel.
// It returns io.EOF once the stream ends cleanly.
func (r *FrameReader) Next() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", ErrFrameTooLarge
		}
		return "", err
	}
	return "", io.EOF
}

func splitFrames(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, Sentinel); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		// Unterminated trailing bytes are discarded.
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// Encode appends the sentinel to payload.
func Encode(payload string) ([]byte, error) {
	if strings.IndexByte(payload, Sentinel) >= 0 {
		return nil, ErrSentinelInPayload
	}
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, payload...)
	buf = append(buf, Sentinel)
	return buf, nil
}

// WriteFrame encodes payload and writes it to w in a single call.
func WriteFrame(w io.Writer, payload string) error {
	frame, err := Encode(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
