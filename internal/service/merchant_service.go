package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// MerchantService resolves the merchant name from a transcript. Receipts
// conventionally print the merchant on the first line, so only that line is
// sent to the entity model.
type MerchantService struct {
	ner    EntityRecognizer
	logger *zap.Logger
}

func NewMerchantService(ner EntityRecognizer, logger *zap.Logger) *MerchantService {
	return &MerchantService{
		ner:    ner,
		logger: logger,
	}
}

// Resolve returns the merchant name for a transcript, or nil when the
// transcript has no usable first line. Resolution is best-effort: when the
// entity model finds no organization, or the call fails outright, the
// trimmed first line is used verbatim. Errors never escape this boundary.
func (s *MerchantService) Resolve(ctx context.Context, text string) *string {
	firstLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine = text[:idx]
	}

	trimmed := strings.TrimSpace(firstLine)
	if trimmed == "" {
		return nil
	}

	entities, err := s.ner.TokenClassification(ctx, firstLine)
	if err != nil {
		s.logger.Warn("Merchant NER call failed, falling back to first line", zap.Error(err))
		return &trimmed
	}

	for _, entity := range entities {
		if entity.EntityGroup != "ORG" {
			continue
		}
		if entity.Start < 0 || entity.End > len(firstLine) || entity.Start >= entity.End {
			continue
		}
		merchant := firstLine[entity.Start:entity.End]
		return &merchant
	}

	return &trimmed
}
