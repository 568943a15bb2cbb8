package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/moodsync/server/config"
	"github.com/moodsync/server/internal/classifier"
	"github.com/moodsync/server/internal/pg"
	"github.com/moodsync/server/internal/relay"
	"github.com/moodsync/server/internal/repository/postgres"
	"github.com/moodsync/server/internal/security"
	"github.com/moodsync/server/internal/service"
	"github.com/moodsync/server/internal/storage"
	grpcx "github.com/moodsync/server/internal/transport/grpc"
	httpx "github.com/moodsync/server/internal/transport/http"
	"github.com/moodsync/server/internal/transport/ws"
	"github.com/moodsync/server/pkg/logger"
)

const sessionSweepInterval = time.Hour

// App owns every long-lived component of the server process.
type App struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	sessions *postgres.SessionRepo
	ws       *ws.Server
	http     *httpx.Server
	grpc     *grpcx.Server
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := pg.NewPool(ctx, cfg.Postgres.ToPGConfig())
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	slog.Info("connected to postgres")

	if cfg.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("schema applied")
	}

	a, err := build(cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *config.Config, pool *pgxpool.Pool) (*App, error) {
	keys, err := security.LoadKeyPair(cfg.Security.JWT.PrivateKeyPath, cfg.Security.JWT.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("jwt keys: %w", err)
	}
	jwtSigner := security.NewJWTSigner(
		keys,
		cfg.Security.JWT.Issuer,
		cfg.Security.JWT.Audience,
		cfg.Security.JWT.AccessTTL,
		cfg.Security.JWT.ClockSkew,
	)

	users := postgres.NewUserRepoFromPool(pool)
	sessions := postgres.NewSessionRepoFromPool(pool)
	professionals := postgres.NewProfessionalRepoFromPool(pool)

	authSvc := service.NewAuthService(
		users,
		sessions,
		jwtSigner,
		cfg.Security.JWT.RefreshTTL,
		*cfg.Security.Password.ToBcryptConfig(),
		service.LockoutPolicy{
			Threshold: cfg.Security.Password.LockoutThreshold,
			Duration:  cfg.Security.Password.LockoutDuration,
		},
		time.Now,
	)

	files, err := storage.NewLocal(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("uploads: %w", err)
	}
	proSvc := service.NewProfessionalService(professionals, files, time.Now)

	sentimentSvc := service.NewSentimentService(loadClassifier(cfg.Classifier.ArtifactPath))

	rl := relay.New(logger.L())
	wsSrv := ws.NewServer(rl, ws.Config{
		PingInterval:   cfg.Relay.PingInterval,
		WriteTimeout:   cfg.Relay.WriteTimeout,
		ReadLimit:      cfg.Relay.ReadLimit,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	router := httpx.NewRouter(httpx.Deps{
		Auth:             authSvc,
		Professionals:    proSvc,
		Sentiment:        sentimentSvc,
		WS:               wsSrv.HandleWS,
		DB:               pool,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		RequestTimeout:   cfg.HTTP.RequestTimeout,
		MaxBodyBytes:     cfg.HTTP.MaxBodyBytes,
		MaxUploadBytes:   cfg.Uploads.MaxBytes,
		RevealResetToken: logger.ParseEnv(cfg.Logging.Env) == logger.EnvDev,
	})

	a := &App{
		cfg:      cfg,
		pool:     pool,
		sessions: sessions,
		ws:       wsSrv,
		http: httpx.NewServer(httpx.Config{
			Addr:              cfg.HTTP.Addr,
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
			ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
		}, router, wsSrv.Shutdown),
	}
	if cfg.GRPC.Addr != "" {
		a.grpc = grpcx.New(cfg.GRPC.Addr, sentimentSvc.Ready(), cfg.HTTP.ShutdownTimeout)
	}
	return a, nil
}

// loadClassifier returns nil when no usable artifact is configured, so
// SentimentService answers 503 instead of failing startup.
func loadClassifier(path string) service.Classifier {
	if path == "" {
		slog.Warn("classifier disabled: no artifact path")
		return nil
	}
	m, err := classifier.Load(path)
	if err != nil {
		slog.Warn("classifier disabled", slog.String("path", path), slog.Any("err", err))
		return nil
	}
	slog.Info("classifier loaded", slog.String("path", path), slog.Any("classes", m.Classes()))
	return m
}

// Run serves HTTP (and gRPC when configured) until ctx is cancelled or a server fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.http.Run(ctx) })
	if a.grpc != nil {
		g.Go(func() error { return a.grpc.Run(ctx) })
	}
	g.Go(func() error {
		a.sweepSessions(ctx)
		return nil
	})

	return g.Wait()
}

func (a *App) sweepSessions(ctx context.Context) {
	t := time.NewTicker(sessionSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := a.sessions.DeleteExpired(ctx, now)
			if err != nil {
				slog.Warn("session sweep failed", slog.Any("err", err))
				continue
			}
			if n > 0 {
				slog.Info("expired sessions removed", slog.Int64("count", n))
			}
		}
	}
}

func (a *App) Close() {
	a.pool.Close()
}
