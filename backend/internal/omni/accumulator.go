package omni

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/kdduha/omni-reader/internal/models"
)

// Accumulated is the ordered concatenation of every fragment of one response.
// Audio is raw mono PCM16 at 24 kHz.
type Accumulated struct {
	Text       string
	Audio      []byte
	Transcript string
	Usage      *models.Usage
}

// Empty reports whether there is nothing to show or play.
func (a *Accumulated) Empty() bool {
	return a.Text == "" && len(a.Audio) == 0
}

// Stats describes how a stream was consumed.
type Stats struct {
	Applied    int
	Skipped    int
	Terminated bool // saw [DONE] rather than EOF
}

// Observer sees every applied fragment, in arrival order, on the reading goroutine.
type Observer func(Fragment)

// Accumulate folds the event stream in r into one Accumulated response.
// It stops at the [DONE] sentinel or at EOF; an empty result is not an error.
func Accumulate(r io.Reader, observe Observer) (*Accumulated, Stats, error) {
	var (
		stats      Stats
		text       strings.Builder
		transcript strings.Builder
		audio      bytes.Buffer
		usage      *models.Usage
	)

	reader := bufio.NewReader(r)
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			kind, f := parseLine(line)
			switch kind {
			case recordDone:
				stats.Terminated = true
				return finalize(&text, &transcript, &audio, usage), stats, nil
			case recordSkip:
				stats.Skipped++
			case recordFragment:
				stats.Applied++
				text.WriteString(f.Text)
				transcript.WriteString(f.Transcript)
				audio.Write(f.Audio)
				if f.Usage != nil {
					usage = f.Usage
				}
				if observe != nil {
					observe(f)
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return finalize(&text, &transcript, &audio, usage), stats, nil
			}
			e := classify(readErr)
			if e.Kind == KindTransport {
				e.Kind = KindNetwork
			}
			return nil, stats, e
		}
	}
}

func finalize(text, transcript *strings.Builder, audio *bytes.Buffer, usage *models.Usage) *Accumulated {
	return &Accumulated{
		Text:       text.String(),
		Audio:      audio.Bytes(),
		Transcript: transcript.String(),
		Usage:      usage,
	}
}
