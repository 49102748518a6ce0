package db

import (
	"context"
	"errors"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
)

// Instrumented times every Store call as a db.query tagged with the query
// type and table.
type Instrumented struct {
	next Store
	rec  *metrics.Recorder
}

func NewInstrumented(next Store, rec *metrics.Recorder) *Instrumented {
	return &Instrumented{next: next, rec: rec}
}

func queryOp(queryType, table string) metrics.Operation {
	return metrics.Operation{
		Kind:          metrics.KindDBQuery,
		Tags:          metrics.Tags{"query_type": queryType, "table": table},
		SlowThreshold: metrics.SlowDBQuery,
	}
}

func (s *Instrumented) CreateFile(ctx context.Context, f *File) error {
	return metrics.TrackErr(ctx, s.rec, queryOp("create", File{}.TableName()), func(ctx context.Context) error {
		return s.next.CreateFile(ctx, f)
	})
}

// A missing row is a result, not a failed query.
func (s *Instrumented) GetFile(ctx context.Context, id string) (*File, error) {
	var notFound bool
	f, err := metrics.Track(ctx, s.rec, queryOp("findOne", File{}.TableName()), func(ctx context.Context) (*File, error) {
		f, err := s.next.GetFile(ctx, id)
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil, nil
		}
		return f, err
	})
	if notFound {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *Instrumented) DeleteFile(ctx context.Context, id string) error {
	var notFound bool
	err := metrics.TrackErr(ctx, s.rec, queryOp("destroy", File{}.TableName()), func(ctx context.Context) error {
		err := s.next.DeleteFile(ctx, id)
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil
		}
		return err
	})
	if notFound {
		return ErrNotFound
	}
	return err
}

func (s *Instrumented) RecordHealthCheck(ctx context.Context) error {
	return metrics.TrackErr(ctx, s.rec, queryOp("create", HealthCheck{}.TableName()), func(ctx context.Context) error {
		return s.next.RecordHealthCheck(ctx)
	})
}
