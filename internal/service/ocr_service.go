package service

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"spendscan/pkg/config"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// Transcript is the raw OCR output for one file. Confidence is 0-100.
type Transcript struct {
	Text       string
	Confidence float64
}

// TextRecognizer turns a stored receipt file into a transcript.
type TextRecognizer interface {
	Recognize(ctx context.Context, filePath string) (*Transcript, error)
}

type OCRService struct {
	languages []string
	logger    *zap.Logger
}

// NewOCRService creates the OCR engine wrapper. PDFs are read through their
// text layer with go-fitz; images go through Tesseract.
// Supported formats: .jpg, .jpeg, .png, .pdf
func NewOCRService(cfg *config.OCRConfig, logger *zap.Logger) *OCRService {
	languages := strings.Split(cfg.Languages, "+")
	if len(languages) == 1 && languages[0] == "" {
		languages = []string{"eng"}
	}

	return &OCRService{
		languages: languages,
		logger:    logger,
	}
}

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

func (s *OCRService) Recognize(ctx context.Context, filePath string) (*Transcript, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file format: %s (supported: jpg, jpeg, png, pdf)", ext)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var transcript *Transcript
	var err error
	if ext == ".pdf" {
		transcript, err = s.recognizePDF(filePath)
	} else {
		transcript, err = s.recognizeImage(filePath)
	}
	if err != nil {
		return nil, err
	}

	transcript.Text = strings.TrimSpace(transcript.Text)
	if transcript.Text == "" {
		return nil, fmt.Errorf("no text extracted from %s", filePath)
	}

	s.logger.Info("OCR extraction completed",
		zap.String("file", filePath),
		zap.Float64("confidence", transcript.Confidence),
		zap.Int("text_length", len(transcript.Text)),
	)

	return transcript, nil
}

// recognizePDF reads the PDF text layer page by page. This is extraction,
// not recognition, so confidence is reported as 100.
func (s *OCRService) recognizePDF(pdfPath string) (*Transcript, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.String("file", pdfPath),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	return &Transcript{
		Text:       textBuilder.String(),
		Confidence: 100,
	}, nil
}

// recognizeImage runs Tesseract on an image file. A Tesseract client is not
// safe for concurrent use, so each call gets its own.
func (s *OCRService) recognizeImage(imagePath string) (*Transcript, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(s.languages...); err != nil {
		return nil, fmt.Errorf("failed to set OCR languages: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to recognize image: %w", err)
	}

	confidence := 0.0
	hocr, err := client.HOCRText()
	if err != nil {
		s.logger.Warn("Failed to read HOCR output, confidence unavailable",
			zap.String("file", imagePath),
			zap.Error(err),
		)
	} else {
		confidence = meanWordConfidence(hocr)
	}

	return &Transcript{
		Text:       text,
		Confidence: confidence,
	}, nil
}

var wordConfidencePattern = regexp.MustCompile(`x_wconf (\d+)`)

// meanWordConfidence averages the per-word x_wconf annotations Tesseract
// emits in its HOCR output. Returns 0 when no words were recognized.
func meanWordConfidence(hocr string) float64 {
	matches := wordConfidencePattern.FindAllStringSubmatch(hocr, -1)
	if len(matches) == 0 {
		return 0
	}

	var sum float64
	for _, match := range matches {
		conf, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		sum += float64(conf)
	}
	return sum / float64(len(matches))
}
