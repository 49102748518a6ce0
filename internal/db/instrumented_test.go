package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/logging"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics/metricstest"
)

func TestInstrumented_TagsQueries(t *testing.T) {
	mem := metricstest.New()
	s := NewInstrumented(NewGormStore(openTestDB(t), DefaultRetryPolicy()), metrics.NewRecorder(logging.Discard(), mem))
	ctx := t.Context()
	f := newFile("a.txt")

	require.NoError(t, s.CreateFile(ctx, f))
	_, err := s.GetFile(ctx, f.ID)
	require.NoError(t, err)
	require.NoError(t, s.DeleteFile(ctx, f.ID))
	require.NoError(t, s.RecordHealthCheck(ctx))

	var seen []metrics.Tags
	for _, sample := range mem.Samples("db.query.count") {
		seen = append(seen, sample.Tags)
	}
	assert.Equal(t, []metrics.Tags{
		{"query_type": "create", "table": "files"},
		{"query_type": "findOne", "table": "files"},
		{"query_type": "destroy", "table": "files"},
		{"query_type": "create", "table": "healthz_api_checks"},
	}, seen)
	assert.Len(t, mem.Samples("db.query.time"), 4)
	assert.Len(t, mem.Samples("db.query.last_duration"), 4)
}

func TestInstrumented_NotFoundIsNotAnError(t *testing.T) {
	mem := metricstest.New()
	s := NewInstrumented(NewGormStore(openTestDB(t), DefaultRetryPolicy()), metrics.NewRecorder(logging.Discard(), mem))

	_, err := s.GetFile(t.Context(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteFile(t.Context(), uuid.NewString()), ErrNotFound)
	assert.Empty(t, mem.Samples("db.query.error"))
	assert.Equal(t, float64(2), mem.Total("db.query.count"))
}

func TestInstrumented_ErrorsCounted(t *testing.T) {
	mem := metricstest.New()
	s := NewInstrumented(NewHandle(), metrics.NewRecorder(logging.Discard(), mem))

	assert.ErrorIs(t, s.RecordHealthCheck(t.Context()), ErrNotReady)
	assert.Equal(t, float64(1), mem.Total("db.query.error"))
}
