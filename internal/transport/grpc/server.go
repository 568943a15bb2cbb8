package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	ServiceRelay     = "moodsync.relay"
	ServiceSentiment = "moodsync.sentiment"
)

type Server struct {
	addr   string
	gs     *grpc.Server
	health *health.Server
	stop   time.Duration
}

// New builds a gRPC server exposing grpc.health.v1.Health. The sentiment
// service reports NOT_SERVING when no model is loaded.
func New(addr string, sentimentReady bool, stopTimeout time.Duration) *Server {
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceRelay, healthpb.HealthCheckResponse_SERVING)
	sentiment := healthpb.HealthCheckResponse_NOT_SERVING
	if sentimentReady {
		sentiment = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus(ServiceSentiment, sentiment)
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{addr: addr, gs: gs, health: hs, stop: stopTimeout}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("grpc listening", slog.String("addr", ln.Addr().String()))
		errCh <- s.gs.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.gracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) gracefulStop() {
	done := make(chan struct{})
	go func() {
		s.gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.stop):
		slog.Error("grpc graceful stop timeout; forcing stop")
		s.gs.Stop()
	}
	slog.Info("grpc stopped")
}
