package blob_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/blob"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/blob/blobtest"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/logging"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics/metricstest"
)

func TestInstrumented_Put(t *testing.T) {
	mem := metricstest.New()
	backend := blobtest.New("uploads")
	s := blob.NewInstrumented(backend, metrics.NewRecorder(logging.Discard(), mem))

	err := s.Put(context.Background(), blob.Object{
		Key:          "id/a.txt",
		Body:         strings.NewReader("hello"),
		Size:         5,
		ContentType:  "text/plain",
		OriginalName: "a.txt",
	})
	require.NoError(t, err)

	obj, ok := backend.Object("id/a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(obj.Data))
	assert.Equal(t, "a.txt", obj.OriginalName)

	count := mem.Samples("s3.operation.count")
	require.Len(t, count, 1)
	assert.Equal(t, metrics.Tags{"operation": "upload", "bucket": "uploads"}, count[0].Tags)
}

func TestInstrumented_DeleteError(t *testing.T) {
	mem := metricstest.New()
	backend := blobtest.New("uploads")
	backend.DeleteErr = errors.New("access denied")
	s := blob.NewInstrumented(backend, metrics.NewRecorder(logging.Discard(), mem))

	err := s.Delete(context.Background(), "k")
	assert.Same(t, backend.DeleteErr, err)
	assert.Equal(t, float64(1), mem.Total("s3.operation.error"))
	assert.Equal(t, "deleteObject", mem.Samples("s3.operation.error")[0].Tags["operation"])
}

func TestInstrumented_CheckBucket(t *testing.T) {
	mem := metricstest.New()
	s := blob.NewInstrumented(blobtest.New("uploads"), metrics.NewRecorder(logging.Discard(), mem))

	require.NoError(t, s.CheckBucket(context.Background()))
	assert.Equal(t, "headBucket", mem.Samples("s3.operation.count")[0].Tags["operation"])
}
