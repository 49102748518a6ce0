package blob

import (
	"context"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
)

// Instrumented wraps a Store and times every call as an s3.operation.
type Instrumented struct {
	next Store
	rec  *metrics.Recorder
}

func NewInstrumented(next Store, rec *metrics.Recorder) *Instrumented {
	return &Instrumented{next: next, rec: rec}
}

func (s *Instrumented) op(name string) metrics.Operation {
	return metrics.Operation{
		Kind:          metrics.KindObjectStore,
		Tags:          metrics.Tags{"operation": name, "bucket": s.next.Bucket()},
		SlowThreshold: metrics.SlowObjectStore,
	}
}

func (s *Instrumented) Bucket() string { return s.next.Bucket() }

func (s *Instrumented) Put(ctx context.Context, obj Object) error {
	return metrics.TrackErr(ctx, s.rec, s.op("upload"), func(ctx context.Context) error {
		return s.next.Put(ctx, obj)
	})
}

func (s *Instrumented) Delete(ctx context.Context, key string) error {
	return metrics.TrackErr(ctx, s.rec, s.op("deleteObject"), func(ctx context.Context) error {
		return s.next.Delete(ctx, key)
	})
}

func (s *Instrumented) CheckBucket(ctx context.Context) error {
	return metrics.TrackErr(ctx, s.rec, s.op("headBucket"), func(ctx context.Context) error {
		return s.next.CheckBucket(ctx)
	})
}
