package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moodsync/server/internal/classifier"
	"github.com/moodsync/server/internal/errs"
)

// Classifier is implemented by *classifier.Model.
type Classifier interface {
	Classify(normalized string) (string, []float64)
}

type Prediction struct {
	Sentiment  string    `json:"sentiment"`
	Confidence []float64 `json:"confidence"`
}

type SentimentService struct {
	model Classifier
}

// NewSentimentService accepts a nil model; Predict then reports ErrUnavailable.
func NewSentimentService(model Classifier) *SentimentService {
	return &SentimentService{model: model}
}

func (s *SentimentService) Ready() bool { return s.model != nil }

func (s *SentimentService) Predict(ctx context.Context, statement string) (*Prediction, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, fmt.Errorf("%w: statement is required", errs.ErrInvalidInput)
	}
	if s.model == nil {
		return nil, fmt.Errorf("%w: classifier not loaded", errs.ErrUnavailable)
	}

	normalized := classifier.Normalize(statement)
	label, probs := s.model.Classify(normalized)

	slog.DebugContext(ctx, "sentiment predicted", slog.String("label", label), slog.Int("tokens", len(strings.Fields(normalized))))
	return &Prediction{Sentiment: label, Confidence: probs}, nil
}
