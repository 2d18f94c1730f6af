package omni

import (
	"bytes"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/base64x"
	"github.com/kdduha/omni-reader/internal/models"
)

// Fragment is one decoded stream record.
type Fragment struct {
	Text       string
	Audio      []byte
	Transcript string
	Usage      *models.Usage
}

type recordKind int

const (
	// recordControl covers blank lines, comments and non-data fields.
	recordControl recordKind = iota
	recordDone
	recordFragment
	recordSkip
)

var (
	dataPrefix   = []byte("data:")
	doneSentinel = []byte("[DONE]")
)

// chunk is the subset of a chat.completion.chunk the reader uses.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Audio   *struct {
				Data       string `json:"data"`
				Transcript string `json:"transcript"`
			} `json:"audio"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *models.Usage `json:"usage"`
}

// parseLine turns one stream line into a record. Malformed payloads are
// reported as recordSkip and never as errors.
func parseLine(line []byte) (recordKind, Fragment) {
	line = bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(line, dataPrefix) {
		return recordControl, Fragment{}
	}

	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if len(payload) == 0 {
		return recordControl, Fragment{}
	}
	if bytes.Equal(payload, doneSentinel) {
		return recordDone, Fragment{}
	}

	var c chunk
	if err := sonic.Unmarshal(payload, &c); err != nil {
		return recordSkip, Fragment{}
	}

	f := Fragment{Usage: c.Usage}
	if len(c.Choices) > 0 {
		delta := c.Choices[0].Delta
		f.Text = delta.Content
		if delta.Audio != nil {
			f.Transcript = delta.Audio.Transcript
			if delta.Audio.Data != "" {
				audio, err := base64x.StdEncoding.DecodeString(delta.Audio.Data)
				if err != nil {
					return recordSkip, Fragment{}
				}
				f.Audio = audio
			}
		}
	}
	return recordFragment, f
}
