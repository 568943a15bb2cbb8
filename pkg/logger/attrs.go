package logger

import (
	"encoding/hex"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// processStart is stamped once so every logger re-Init keeps the same started_at.
var processStart = time.Now().UTC()

// ensureInstanceID keeps a configured id, otherwise builds "<host>-<8 hex>".
func ensureInstanceID(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	id := uuid.New()
	return host + "-" + hex.EncodeToString(id[:4])
}

func commonAttrs(cfg Config) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}

	return append(attrs,
		slog.String("instance_id", cfg.InstanceID),
		slog.Time("started_at", processStart),
	)
}
