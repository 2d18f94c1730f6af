package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/base64x"
)

// Layout of the PCM stream returned by the omni models.
const (
	SampleRate    = 24000
	Channels      = 1
	BitsPerSample = 16

	HeaderSize = 44

	formatPCM     = 1
	fmtChunkSize  = 16
	bytesPerFrame = Channels * BitsPerSample / 8
)

var ErrInvalidHeader = errors.New("invalid wav header")

// Header is the canonical 44-byte RIFF/WAVE header.
type Header struct {
	RIFFSize      uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// Encode prepends a WAV header to raw mono PCM16 samples. Size fields are
// computed from len(pcm).
func Encode(pcm []byte) []byte {
	out := make([]byte, HeaderSize+len(pcm))
	putHeader(out[:HeaderSize], uint32(len(pcm)))
	copy(out[HeaderSize:], pcm)
	return out
}

func putHeader(b []byte, dataSize uint32) {
	le := binary.LittleEndian

	copy(b[0:4], "RIFF")
	le.PutUint32(b[4:8], 36+dataSize)
	copy(b[8:12], "WAVE")

	copy(b[12:16], "fmt ")
	le.PutUint32(b[16:20], fmtChunkSize)
	le.PutUint16(b[20:22], formatPCM)
	le.PutUint16(b[22:24], Channels)
	le.PutUint32(b[24:28], SampleRate)
	le.PutUint32(b[28:32], SampleRate*bytesPerFrame)
	le.PutUint16(b[32:34], bytesPerFrame)
	le.PutUint16(b[34:36], BitsPerSample)

	copy(b[36:40], "data")
	le.PutUint32(b[40:44], dataSize)
}

// EncodeBase64 decodes a Base64 PCM payload, wraps it and re-encodes the
// container. If the payload is not valid Base64 it is returned unchanged and
// ok is false; such output may not be playable.
func EncodeBase64(payload string) (out string, ok bool) {
	pcm, err := base64x.StdEncoding.DecodeString(payload)
	if err != nil {
		return payload, false
	}
	return base64x.StdEncoding.EncodeToString(Encode(pcm)), true
}

// ParseHeader reads back a canonical header produced by Encode.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Header{}, fmt.Errorf("%w: missing RIFF/WAVE tag", ErrInvalidHeader)
	}
	if string(b[12:16]) != "fmt " || string(b[36:40]) != "data" {
		return Header{}, fmt.Errorf("%w: unexpected chunk layout", ErrInvalidHeader)
	}

	le := binary.LittleEndian
	return Header{
		RIFFSize:      le.Uint32(b[4:8]),
		AudioFormat:   le.Uint16(b[20:22]),
		Channels:      le.Uint16(b[22:24]),
		SampleRate:    le.Uint32(b[24:28]),
		ByteRate:      le.Uint32(b[28:32]),
		BlockAlign:    le.Uint16(b[32:34]),
		BitsPerSample: le.Uint16(b[34:36]),
		DataSize:      le.Uint32(b[40:44]),
	}, nil
}

// Duration is the playback length described by h.
func Duration(h Header) time.Duration {
	if h.ByteRate == 0 {
		return 0
	}
	return time.Duration(h.DataSize) * time.Second / time.Duration(h.ByteRate)
}
