package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/errs"
	"github.com/moodsync/server/pkg/httputil"
	"github.com/moodsync/server/pkg/logger"
)

// writeError maps err to a status and writes the error envelope.
// Internal errors are logged and never leak their text to the client.
func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := errs.ToHTTP(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error(msg, slog.Any("err", err))
		httputil.Error(r.Context(), w, status, msg, map[string]any{"reason": "internal error"})
		return
	}

	meta := map[string]any{"reason": err.Error()}
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		meta["field"] = fe.Field
	}
	httputil.Error(r.Context(), w, status, msg, meta)
}
