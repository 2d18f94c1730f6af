package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cloudwego/base64x"
	"github.com/kdduha/omni-reader/internal/models"
	"github.com/spf13/cobra"
)

var readFlags struct {
	language string
	dialect  string
	prompt   string
	format   string
	out      string
	noPlay   bool
}

var readCmd = &cobra.Command{
	Use:   "read <image>",
	Short: "Recognize an image and read the summary aloud on this device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := log.New(os.Stderr, "", log.LstdFlags)
		req, err := readRequest(args[0])
		if err != nil {
			return err
		}

		svc, cleanup, err := newReaderService(ctx, logger, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if readFlags.noPlay {
			resp, err := svc.Send(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
			if readFlags.out == "" || !resp.AudioValid {
				return nil
			}
			container, err := base64x.StdEncoding.DecodeString(resp.AudioBase64)
			if err != nil {
				return err
			}
			return writeOut(readFlags.out, container)
		}

		resp, err := svc.Play(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
		logger.Printf("playing via %s\n", resp.Status.Mode)

		if readFlags.out != "" && len(resp.Container) > 0 {
			if err := writeOut(readFlags.out, resp.Container); err != nil {
				logger.Printf("failed to save audio: %v\n", err)
			}
		}

		if err := svc.WaitPlayback(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return svc.StopPlayback()
	},
}

func readRequest(path string) (*models.RecognizeRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format := readFlags.format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	req := &models.RecognizeRequest{
		ImageBase64: base64x.StdEncoding.EncodeToString(raw),
		ImageFormat: format,
		Language:    models.Language(readFlags.language),
		Dialect:     models.Dialect(readFlags.dialect),
		Prompt:      readFlags.prompt,
	}
	req.Normalize(models.Language(cfg.Reader.DefaultLanguage))
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func writeOut(path string, container []byte) error {
	if err := os.WriteFile(path, container, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func init() {
	f := readCmd.Flags()
	f.StringVarP(&readFlags.language, "language", "l", "", "reading language (zh, en)")
	f.StringVarP(&readFlags.dialect, "dialect", "d", "", "chinese dialect voice")
	f.StringVarP(&readFlags.prompt, "prompt", "p", "", "instruction for the model")
	f.StringVar(&readFlags.format, "format", "", "image format, taken from the file extension by default")
	f.StringVarP(&readFlags.out, "out", "o", "", "also save the audio to this wav file")
	f.BoolVar(&readFlags.noPlay, "no-play", false, "print the summary without playing it")
	rootCmd.AddCommand(readCmd)
}
