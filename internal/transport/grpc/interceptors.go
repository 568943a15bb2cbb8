package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/google/uuid"

	"github.com/moodsync/server/pkg/logger"
)

const requestIDKey = "x-request-id"

// defaultDeadline applies to unary calls that arrive without one.
const defaultDeadline = 10 * time.Second

// UnaryServerInterceptor recovers panics, tags the call with a request id and logs it.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultDeadline)
			defer cancel()
		}
		ctx = withRequestLogger(ctx, info.FullMethod)

		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(ctx).Error("grpc unary panic",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
				err = status.Error(codes.Internal, "internal server error")
			}
			logCall(ctx, "grpc unary", start, err)
		}()

		return handler(ctx, req)
	}
}

func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		start := time.Now()
		ctx := withRequestLogger(ss.Context(), info.FullMethod)

		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(ctx).Error("grpc stream panic",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
				err = status.Error(codes.Internal, "internal server error")
			}
			logCall(ctx, "grpc stream", start, err)
		}()

		return handler(srv, &loggedStream{ServerStream: ss, ctx: ctx})
	}
}

// loggedStream hands the request-scoped context to stream handlers.
type loggedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *loggedStream) Context() context.Context { return s.ctx }

func withRequestLogger(ctx context.Context, method string) context.Context {
	reqID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDKey); len(v) > 0 {
			reqID = v[0]
		}
	}
	if reqID == "" {
		reqID = uuid.NewString()
	}
	l := logger.FromContext(ctx).With(slog.String("req_id", reqID), slog.String("method", method))
	return logger.WithContext(ctx, l)
}

func logCall(ctx context.Context, msg string, start time.Time, err error) {
	code := status.Code(err)
	level := slog.LevelInfo
	if code == codes.Internal || code == codes.Unknown {
		level = slog.LevelError
	}
	logger.FromContext(ctx).Log(ctx, level, msg,
		slog.String("code", code.String()),
		slog.Int64("dur_ms", time.Since(start).Milliseconds()))
}
