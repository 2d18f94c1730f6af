package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	defaultTemperature = 0.7
	defaultMaxTokens   = 512

	backendEndpoint = flag.String("endpoint", "http://localhost:8080/recognize/stream", "stream endpoint")
	dataDir         = flag.String("data", filepath.Join(".", "data"), "directory with one subdirectory per image format")
	languages       = flag.String("languages", "zh,en", "comma separated languages to run every image with")

	formatDirs = []string{"png", "jpg", "jpeg", "webp", "pdf"}
)

func main() {
	flag.Parse()
	ctx := context.Background()

	var results []BenchResult
	for _, lang := range strings.Split(*languages, ",") {
		for _, format := range formatDirs {
			dataPath := filepath.Join(*dataDir, format)

			images, _ := os.ReadDir(dataPath)

			for _, image := range images {
				filePath := filepath.Join(dataPath, image.Name())
				res := benchmarkImage(ctx, filePath, strings.TrimSpace(lang))

				if res.Err != nil {
					log.Println("ERR:", res.File, res.Err)
				} else {
					log.Printf("OK %s [%s] first=%v total=%v", res.File, res.Language, res.FirstDelta, res.Duration)
				}

				results = append(results, res)
			}
		}
	}

	printMarkdown(results)
}

func benchmarkImage(ctx context.Context, filePath, lang string) BenchResult {
	start := time.Now()

	fileRaw, err := os.ReadFile(filePath)
	if err != nil {
		return BenchResult{File: filePath, Err: err}
	}

	format := strings.TrimPrefix(filepath.Ext(filePath), ".")
	req := RecognizeRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(fileRaw),
		ImageFormat: format,
		Language:    lang,
		Generation: &GenerationParams{
			Temperature: &defaultTemperature,
			MaxTokens:   &defaultMaxTokens,
		},
	}

	var (
		full       strings.Builder
		firstDelta time.Duration
		audioBytes int
	)

	err = sendStream(ctx, req, func(c Chunk) error {
		if c.Delta != "" && firstDelta == 0 {
			firstDelta = time.Since(start)
		}
		full.WriteString(c.Delta)
		if c.Result != nil {
			audioBytes = c.Result.AudioBytes
		}
		return nil
	})

	return BenchResult{
		File:       filepath.Base(filePath),
		Format:     format,
		Language:   lang,
		FirstDelta: firstDelta,
		Duration:   time.Since(start),
		Runes:      utf8.RuneCountInString(full.String()),
		AudioBytes: audioBytes,
		Err:        err,
		Size:       int64(len(fileRaw)),
	}
}

func sendStream[T any](ctx context.Context, req T, onChunk func(Chunk) error) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal req: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, *backendEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bad status %d: %s",
			resp.StatusCode,
			strings.TrimSpace(string(b)),
		)
	}

	reader := bufio.NewReader(resp.Body)

	var event string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)

		if name, ok := strings.CutPrefix(line, "event: "); ok {
			event = name
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")
		if event == "error" {
			return fmt.Errorf("stream error: %s", payload)
		}
		if payload == "{}" {
			continue
		}

		if !strings.HasPrefix(payload, "{") {
			return fmt.Errorf("unexpected payload: %s", payload)
		}

		var c Chunk
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return err
		}

		if err := onChunk(c); err != nil {
			return err
		}
	}
}

func aggregate(results []BenchResult) map[string]Agg {
	m := map[string]Agg{}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		key := r.Format + "/" + r.Language
		a := m[key]
		a.Count++
		a.TotalBytes += r.Size
		a.AudioBytes += int64(r.AudioBytes)
		a.Total += r.Duration
		a.FirstDelta += r.FirstDelta
		m[key] = a
	}
	return m
}

func printMarkdown(results []BenchResult) {
	fmt.Print("\n## Benchmark Results\n\n")
	fmt.Println("| Format/Lang | Requests | Avg First Delta | Avg Time | Avg Image Size | Avg Audio |")
	fmt.Println("|-------------|----------|-----------------|----------|----------------|-----------|")

	agg := aggregate(results)
	keys := make([]string, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		totalCount    int
		totalDuration time.Duration
		totalFirst    time.Duration
		totalBytes    int64
		totalAudio    int64
	)

	for _, key := range keys {
		a := agg[key]
		n := time.Duration(a.Count)
		fmt.Printf("| %s | %d | %v | %v | %s | %s |\n",
			key,
			a.Count,
			(a.FirstDelta / n).Round(time.Millisecond),
			(a.Total / n).Round(time.Millisecond),
			humanBytes(a.TotalBytes/int64(a.Count)),
			humanBytes(a.AudioBytes/int64(a.Count)),
		)
		totalCount += a.Count
		totalDuration += a.Total
		totalFirst += a.FirstDelta
		totalBytes += a.TotalBytes
		totalAudio += a.AudioBytes
	}

	if totalCount > 0 {
		n := time.Duration(totalCount)
		fmt.Printf("| **ALL** | %d | %v | %v | %s | %s |\n",
			totalCount,
			(totalFirst / n).Round(time.Millisecond),
			(totalDuration / n).Round(time.Millisecond),
			humanBytes(totalBytes/int64(totalCount)),
			humanBytes(totalAudio/int64(totalCount)),
		)
	}

	failed := len(results) - totalCount
	if failed > 0 {
		fmt.Printf("\n%d request(s) failed\n", failed)
	}
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
