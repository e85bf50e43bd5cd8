package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC
// with its procedure, outcome and duration. The authenticated user is
// included when the auth interceptor has already run.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"protocol", req.Peer().Protocol,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if userID := GetUserID(ctx); userID != "" {
				attrs = append(attrs, "user_id", userID)
			}

			if err == nil {
				slog.Info("RPC ok", attrs...)
				return resp, nil
			}

			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				slog.Warn("RPC failed", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
			} else {
				slog.Error("RPC failed", append(attrs, "error", err)...)
			}
			return resp, err
		}
	}
}
