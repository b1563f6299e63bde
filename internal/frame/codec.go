// Package frame implements the fixed-width message framing used on the wire.
//
// Every message is exactly Width bytes: up to Width-1 bytes of text followed
// by NUL padding. Text that does not fit is truncated without telling the
// sender.
//
// The first NUL ends the text, so text containing a NUL byte does not round
// trip: Decode returns only what came before it.
package frame

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// DefaultWidth is the frame width of the current protocol
	DefaultWidth = 500

	// LegacyWidth is the frame width of the earlier protocol revision
	LegacyWidth = 120

	// MinWidth leaves room for one byte of text plus the terminator
	MinWidth = 2
)

var (
	// ErrIncompleteFrame means fewer than Width bytes are available yet.
	// Callers buffer and retry; it is not a protocol failure.
	ErrIncompleteFrame = errors.New("incomplete frame")

	// ErrInvalidWidth is returned for widths smaller than MinWidth
	ErrInvalidWidth = errors.New("invalid frame width")
)

// Codec encodes and decodes frames of a fixed width
type Codec struct {
	width int
}

// NewCodec creates a Codec for the given frame width
func NewCodec(width int) (Codec, error) {
	if width < MinWidth {
		return Codec{}, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	return Codec{width: width}, nil
}

// MustCodec is like NewCodec but panics on an invalid width
func MustCodec(width int) Codec {
	c, err := NewCodec(width)
	if err != nil {
		panic(err)
	}
	return c
}

// Width returns the frame width in bytes
func (c Codec) Width() int {
	return c.width
}

// MaxText returns the largest number of text bytes a frame can carry
func (c Codec) MaxText() int {
	return c.width - 1
}

// Encode returns a frame holding text. The bool reports whether text was
// truncated to fit. Text ends at its first NUL byte since NUL is the padding.
func (c Codec) Encode(text string) ([]byte, bool) {
	if i := bytes.IndexByte([]byte(text), 0); i >= 0 {
		text = text[:i]
	}

	truncated := false
	if len(text) > c.MaxText() {
		text = text[:c.MaxText()]
		truncated = true
	}

	buf := make([]byte, c.width)
	copy(buf, text)
	return buf, truncated
}

// Decode returns the text carried by a frame with the padding stripped.
// Bytes beyond the first Width are ignored.
func (c Codec) Decode(frame []byte) (string, error) {
	if len(frame) < c.width {
		return "", ErrIncompleteFrame
	}
	frame = frame[:c.width]
	if i := bytes.IndexByte(frame, 0); i >= 0 {
		frame = frame[:i]
	}
	return string(frame), nil
}
