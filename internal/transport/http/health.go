package http

import (
	"context"
	"net/http"
	"time"

	"github.com/moodsync/server/pkg/httputil"
)

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GET /healthz
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// GET /readyz
func readyz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			httputil.OK(w, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			httputil.Error(r.Context(), w, http.StatusServiceUnavailable, "database unavailable", map[string]any{"reason": err.Error()})
			return
		}
		httputil.OK(w, map[string]string{"status": "ok"})
	}
}
