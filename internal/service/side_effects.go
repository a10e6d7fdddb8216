package service

import (
	"context"
	"log/slog"

	"shelfswap/internal/observability"
)

// softFail records a best-effort side effect that failed. The primary
// operation has already committed and is not rolled back.
func softFail(ctx context.Context, kind, msg string, err error, attrs ...any) {
	observability.RecordSideEffectFailure(kind)
	attrs = append(attrs, slog.String("kind", kind), slog.String("error", err.Error()))
	slog.WarnContext(ctx, msg, attrs...)
}
