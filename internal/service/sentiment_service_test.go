package service

import (
	"context"
	"errors"
	"testing"

	"github.com/moodsync/server/internal/errs"
)

type stubClassifier struct{ got string }

func (s *stubClassifier) Classify(normalized string) (string, []float64) {
	s.got = normalized
	return "Anxiety", []float64{0.7, 0.3}
}

func TestSentimentService_Predict(t *testing.T) {
	stub := &stubClassifier{}
	svc := NewSentimentService(stub)

	p, err := svc.Predict(context.Background(), "I can't stop WORRYING about tomorrow!!")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.Sentiment != "Anxiety" || len(p.Confidence) != 2 {
		t.Fatalf("unexpected prediction %+v", p)
	}
	if stub.got != "stop worrying tomorrow" {
		t.Fatalf("classifier saw %q", stub.got)
	}

	if _, err := svc.Predict(context.Background(), "   "); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("empty: got %v", err)
	}
}

func TestSentimentService_NotLoaded(t *testing.T) {
	svc := NewSentimentService(nil)
	if svc.Ready() {
		t.Fatal("Ready without a model")
	}
	if _, err := svc.Predict(context.Background(), "hello"); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
