package frame

import (
	"errors"
	"io"
)

// Reader reads whole frames from an underlying stream
type Reader struct {
	r     io.Reader
	codec Codec
	buf   []byte
}

// NewReader creates a Reader decoding frames of the codec's width from r
func NewReader(r io.Reader, codec Codec) *Reader {
	return &Reader{
		r:     r,
		codec: codec,
		buf:   make([]byte, codec.Width()),
	}
}

// ReadMessage blocks until a whole frame has arrived and returns its text.
// A stream that ends part-way through a frame returns io.ErrUnexpectedEOF;
// a stream that ends on a frame boundary returns io.EOF.
func (r *Reader) ReadMessage() (string, error) {
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		return "", err
	}
	return r.codec.Decode(r.buf)
}

// Writer writes text as frames to an underlying stream
type Writer struct {
	w     io.Writer
	codec Codec
}

// NewWriter creates a Writer encoding frames of the codec's width onto w
func NewWriter(w io.Writer, codec Codec) *Writer {
	return &Writer{w: w, codec: codec}
}

// WriteMessage encodes text and writes the whole frame. The bool reports
// truncation and is set even when the write fails.
func (w *Writer) WriteMessage(text string) (bool, error) {
	data, truncated := w.codec.Encode(text)
	for written := 0; written < len(data); {
		n, err := w.w.Write(data[written:])
		if err != nil {
			return truncated, err
		}
		if n == 0 {
			return truncated, io.ErrShortWrite
		}
		written += n
	}
	return truncated, nil
}

// Buffer accumulates arbitrary chunks of a byte stream and yields frames
// once they are complete
type Buffer struct {
	codec   Codec
	pending []byte
}

// NewBuffer creates an empty Buffer
func NewBuffer(codec Codec) *Buffer {
	return &Buffer{codec: codec}
}

// Write appends received bytes. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.pending = append(b.pending, p...)
	return len(p), nil
}

// Next returns the text of the oldest complete frame, or ErrIncompleteFrame
// when not enough bytes have been buffered yet
func (b *Buffer) Next() (string, error) {
	text, err := b.codec.Decode(b.pending)
	if err != nil {
		return "", err
	}
	b.pending = b.pending[b.codec.Width():]
	return text, nil
}

// Buffered returns the number of bytes waiting for a complete frame
func (b *Buffer) Buffered() int {
	return len(b.pending)
}

// IsIncomplete reports whether err only means more bytes are needed
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncompleteFrame)
}
