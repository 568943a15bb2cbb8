package http

import (
	"context"
	"net/http"

	"github.com/moodsync/server/internal/service"
	"github.com/moodsync/server/pkg/httputil"
)

// SentimentAPI is implemented by *service.SentimentService.
type SentimentAPI interface {
	Predict(ctx context.Context, statement string) (*service.Prediction, error)
}

type SentimentHandlers struct {
	Sentiment    SentimentAPI
	MaxBodyBytes int64
}

// GET /
func (h *SentimentHandlers) Root(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Hello, this is the mental health prediction API."})
}

// POST /predict/ and POST /api/predict. The response is not wrapped in the data envelope.
func (h *SentimentHandlers) Predict(w http.ResponseWriter, r *http.Request) {
	var in PredictRequest
	if err := httputil.DecodeJSON(w, r, h.MaxBodyBytes, &in); err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	out, err := h.Sentiment.Predict(r.Context(), in.Statement)
	if err != nil {
		writeError(w, r, "prediction failed", err)
		return
	}

	httputil.JSON(w, http.StatusOK, out)
}
