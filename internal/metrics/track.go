package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Operation describes one timed backend call.
type Operation struct {
	// Kind prefixes every emitted metric, e.g. "db.query".
	Kind          string
	Tags          Tags
	SlowThreshold time.Duration
}

// Track runs fn and records its duration and outcome under op.Kind:
//
//	<kind>.time           timing, always
//	<kind>.count          success
//	<kind>.error          failure
//	<kind>.last_duration  gauge in milliseconds, success
//	<kind>.slow           duration above op.SlowThreshold
//
// The result and error of fn are returned untouched.
func Track[T any](ctx context.Context, r *Recorder, op Operation, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := fn(ctx)
	elapsed := time.Since(start)

	r.Timing(op.Kind+".time", elapsed, op.Tags)

	attrs := []slog.Attr{
		slog.String("kind", op.Kind),
		slog.Duration("duration", elapsed),
	}
	for k, val := range op.Tags {
		attrs = append(attrs, slog.String(k, val))
	}

	if err != nil {
		r.Increment(op.Kind+".error", op.Tags)
		attrs = append(attrs,
			slog.String("error", err.Error()),
			slog.String("stack", fmt.Sprintf("%+v", err)),
		)
		r.log().LogAttrs(ctx, slog.LevelError, "operation failed", attrs...)
	} else {
		r.Increment(op.Kind+".count", op.Tags)
		r.Gauge(op.Kind+".last_duration", float64(elapsed)/float64(time.Millisecond), op.Tags)
		r.log().LogAttrs(ctx, slog.LevelDebug, "operation completed", attrs...)
	}

	if op.SlowThreshold > 0 && elapsed > op.SlowThreshold {
		r.Increment(op.Kind+".slow", op.Tags)
		r.log().LogAttrs(ctx, slog.LevelWarn, "slow operation", attrs[:2]...)
	}
	return v, err
}

// TrackErr is Track for calls that only return an error.
func TrackErr(ctx context.Context, r *Recorder, op Operation, fn func(context.Context) error) error {
	_, err := Track(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
