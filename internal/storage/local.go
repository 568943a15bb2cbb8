package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local stores uploaded files under a base directory with random names.
type Local struct {
	base     string
	maxBytes int64
}

var ErrTooLarge = errors.New("file too large")

func NewLocal(base string, maxBytes int64) (*Local, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("storage: empty base dir")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", base, err)
	}
	return &Local{base: base, maxBytes: maxBytes}, nil
}

func (l *Local) Base() string { return l.base }

// Save writes r to <base>/<dir>/<uuid><ext of original> and returns the path relative to base.
func (l *Local) Save(ctx context.Context, dir, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(l.base, filepath.Clean("/"+dir))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir %s: %w", target, err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	name := uuid.NewString() + ext
	full := filepath.Join(target, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", full, err)
	}

	src := r
	if l.maxBytes > 0 {
		src = io.LimitReader(r, l.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && l.maxBytes > 0 && n > l.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("storage: write %s: %w", full, err)
	}

	rel, _ := filepath.Rel(l.base, full)
	return filepath.ToSlash(rel), nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (l *Local) Remove(ctx context.Context, rel string) {
	if rel == "" {
		return
	}
	full := filepath.Join(l.base, filepath.Clean("/"+rel))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "storage: remove failed", slog.String("path", full), slog.Any("err", err))
	}
}
