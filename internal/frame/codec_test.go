package frame

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodecRejectsTinyWidth(t *testing.T) {
	_, err := NewCodec(1)
	require.ErrorIs(t, err, ErrInvalidWidth)

	c, err := NewCodec(MinWidth)
	require.NoError(t, err)
	assert.Equal(t, 1, c.MaxText())
}

func TestEncodeProducesFixedWidth(t *testing.T) {
	c := MustCodec(DefaultWidth)

	for _, text := range []string{"", "hi", strings.Repeat("x", 499), strings.Repeat("x", 2000)} {
		data, _ := c.Encode(text)
		assert.Len(t, data, DefaultWidth)
		assert.Equal(t, byte(0), data[DefaultWidth-1], "last byte is always padding")
	}
}

func TestRoundTrip(t *testing.T) {
	texts := []string{
		"",
		"hello",
		":hang guess é",
		"name_taken: kai\nchange the name with :name <new_name>",
		strings.Repeat("a", 119),
		strings.Repeat("b", 120),
		strings.Repeat("c", 499),
		strings.Repeat("d", 500),
		strings.Repeat("e", 1200),
	}

	for _, width := range []int{MinWidth, 8, LegacyWidth, DefaultWidth} {
		c := MustCodec(width)
		for _, text := range texts {
			want := text
			if len(want) > width-1 {
				want = want[:width-1]
			}

			data, truncated := c.Encode(text)
			got, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, want, got, "width %d", width)
			assert.Equal(t, len(text) > width-1, truncated, "width %d", width)
		}
	}
}

func TestEncodeStopsAtNul(t *testing.T) {
	c := MustCodec(16)
	data, truncated := c.Encode("ab\x00cd")
	assert.False(t, truncated)

	got, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestDecodeIncompleteFrame(t *testing.T) {
	c := MustCodec(10)
	_, err := c.Decode([]byte("short"))
	assert.ErrorIs(t, err, ErrIncompleteFrame)
	assert.True(t, IsIncomplete(err))
}

func TestDecodeIgnoresBytesBeyondWidth(t *testing.T) {
	c := MustCodec(4)
	got, err := c.Decode([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, "abcd", got)
}

func TestReaderWaitsForWholeFrames(t *testing.T) {
	c := MustCodec(12)
	var stream bytes.Buffer
	w := NewWriter(&stream, c)
	_, err := w.WriteMessage("first")
	require.NoError(t, err)
	truncated, err := w.WriteMessage("second message is long")
	require.NoError(t, err)
	assert.True(t, truncated)

	r := NewReader(iotest.OneByteReader(&stream), c)

	msg, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "first", msg)

	msg, err = r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "second mess", msg)

	_, err = r.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderPartialFrameAtEOF(t *testing.T) {
	c := MustCodec(12)
	r := NewReader(strings.NewReader("abc"), c)

	_, err := r.ReadMessage()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBufferYieldsFramesAsTheyComplete(t *testing.T) {
	c := MustCodec(6)
	first, _ := c.Encode("one")
	second, _ := c.Encode("two")
	stream := append(first, second...)

	b := NewBuffer(c)
	_, _ = b.Write(stream[:4])
	_, err := b.Next()
	assert.ErrorIs(t, err, ErrIncompleteFrame)

	_, _ = b.Write(stream[4:9])
	msg, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", msg)
	assert.Equal(t, 3, b.Buffered())

	_, err = b.Next()
	assert.ErrorIs(t, err, ErrIncompleteFrame)

	_, _ = b.Write(stream[9:])
	msg, err = b.Next()
	require.NoError(t, err)
	assert.Equal(t, "two", msg)
	assert.Zero(t, b.Buffered())
}
