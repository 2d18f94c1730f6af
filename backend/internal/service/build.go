package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cloudwego/base64x"
	"github.com/gen2brain/go-fitz"
	"github.com/kdduha/omni-reader/internal/models"
	"github.com/kdduha/omni-reader/internal/omni"
)

func (s *ReaderService) buildOmniReq(req *models.RecognizeRequest) (omni.Request, error) {
	s.logger.Printf("start preprocessing image: format=%s language=%s dialect=%s\n", req.ImageFormat, req.Language, req.Dialect)
	defer s.logger.Printf("finish preprocessing image: format=%s\n", req.ImageFormat)

	imageBase64, imageFormat := req.ImageBase64, req.ImageFormat
	switch req.ImageFormat {
	case models.FormatPNG, models.FormatJPEG, models.FormatWEBP:
	case models.FormatJPG:
		imageFormat = models.FormatJPEG
	case models.FormatPDF:
		page, err := rasterizePDF(req.ImageBase64, s.pdfDPI)
		if err != nil {
			return omni.Request{}, fmt.Errorf("failed to convert pdf: %w", err)
		}
		imageBase64, imageFormat = page, models.FormatPNG
	default:
		return omni.Request{}, fmt.Errorf("unsupported image_format {%s}", req.ImageFormat)
	}

	out := omni.Request{
		ImageBase64: imageBase64,
		ImageFormat: imageFormat,
		Prompt:      req.Prompt,
		Voice:       req.Voice(),
	}
	if req.Generation != nil {
		out.Temperature = req.Generation.Temperature
		out.MaxTokens = req.Generation.MaxTokens
	}
	return out, nil
}

// rasterizePDF renders the first page of a base64 PDF to a base64 PNG.
func rasterizePDF(inputBase64 string, dpi float64) (string, error) {
	data, err := base64x.StdEncoding.DecodeString(inputBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}
	page, err := doc.ImagePNG(0, dpi)
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return base64x.StdEncoding.EncodeToString(page), nil
}

func getCacheKey(req *models.RecognizeRequest) string {
	image := sha256.Sum256([]byte(req.ImageBase64))
	data := []string{
		hex.EncodeToString(image[:]),
		req.ImageFormat,
		string(req.Language),
		string(req.Dialect),
		req.Prompt,
	}

	if req.Generation != nil && req.Generation.Temperature != nil {
		data = append(data, fmt.Sprintf("%f", *req.Generation.Temperature))
	}

	if req.Generation != nil && req.Generation.MaxTokens != nil {
		data = append(data, fmt.Sprintf("%d", *req.Generation.MaxTokens))
	}

	hash := sha256.Sum256([]byte(strings.Join(data, "-")))
	return hex.EncodeToString(hash[:])
}
