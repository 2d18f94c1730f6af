package wav

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeaderMatchesDataLength(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 44, 4800, 48000 + 7} {
		pcm := bytes.Repeat([]byte{0x5a}, n)

		out := Encode(pcm)
		require.Len(t, out, HeaderSize+n)

		h, err := ParseHeader(out)
		require.NoError(t, err)
		assert.Equal(t, uint32(n), h.DataSize, "data size for %d", n)
		assert.Equal(t, uint32(36+n), h.RIFFSize, "riff size for %d", n)
		assert.Equal(t, uint32(SampleRate), h.SampleRate)
		assert.Equal(t, uint16(Channels), h.Channels)
		assert.Equal(t, uint16(BitsPerSample), h.BitsPerSample)
		assert.Equal(t, uint16(1), h.AudioFormat)
		assert.Equal(t, uint32(48000), h.ByteRate)
		assert.Equal(t, uint16(2), h.BlockAlign)
		assert.Equal(t, pcm, out[HeaderSize:])
	}
}

func TestEncodeExactBytes(t *testing.T) {
	out := Encode([]byte{0x01, 0x02})

	want := []byte{
		'R', 'I', 'F', 'F', 38, 0, 0, 0, 'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ', 16, 0, 0, 0, 1, 0, 1, 0,
		0xc0, 0x5d, 0, 0, // 24000
		0x80, 0xbb, 0, 0, // 48000
		2, 0, 16, 0,
		'd', 'a', 't', 'a', 2, 0, 0, 0,
		0x01, 0x02,
	}
	assert.Equal(t, want, out)
}

func TestEncodeBase64(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}

	out, ok := EncodeBase64(base64.StdEncoding.EncodeToString(pcm))
	require.True(t, ok)

	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	h, err := ParseHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(pcm)), h.DataSize)
	assert.Equal(t, pcm, raw[HeaderSize:])
}

func TestEncodeBase64EmptyPayload(t *testing.T) {
	out, ok := EncodeBase64("")
	require.True(t, ok)

	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	require.Len(t, raw, HeaderSize)
}

func TestEncodeBase64ReturnsMalformedPayloadUnchanged(t *testing.T) {
	out, ok := EncodeBase64("not*base64!")
	assert.False(t, ok)
	assert.Equal(t, "not*base64!", out)
}

func TestParseHeaderRejectsGarbage(t *testing.T) {
	_, err := ParseHeader([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, err = ParseHeader(bytes.Repeat([]byte{'x'}, HeaderSize))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestDuration(t *testing.T) {
	h, err := ParseHeader(Encode(make([]byte, 48000*3)))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, Duration(h))
	assert.Zero(t, Duration(Header{}))
}
