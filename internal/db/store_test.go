package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFile(name string) *File {
	id := uuid.NewString()
	return &File{
		ID:         id,
		FileName:   name,
		URL:        "uploads/" + id + "/" + name,
		UploadDate: Today(),
	}
}

func TestGormStore_CreateGetDelete(t *testing.T) {
	s := NewGormStore(openTestDB(t), DefaultRetryPolicy())
	ctx := t.Context()
	f := newFile("report.pdf")

	require.NoError(t, s.CreateFile(ctx, f))

	got, err := s.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "report.pdf", got.FileName)
	assert.Equal(t, f.URL, got.URL)
	assert.Equal(t, DateString(f.UploadDate), DateString(got.UploadDate))

	require.NoError(t, s.DeleteFile(ctx, f.ID))
	_, err = s.GetFile(ctx, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteFile(ctx, f.ID), ErrNotFound)
}

func TestGormStore_GetMissing(t *testing.T) {
	s := NewGormStore(openTestDB(t), DefaultRetryPolicy())

	start := time.Now()
	_, err := s.GetFile(t.Context(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "not found is not retried")
}

func TestGormStore_DuplicateID(t *testing.T) {
	s := NewGormStore(openTestDB(t), RetryPolicy{MaxAttempts: 1, Timeout: time.Second})
	f := newFile("a.txt")

	require.NoError(t, s.CreateFile(t.Context(), f))
	dup := *f
	assert.Error(t, s.CreateFile(t.Context(), &dup))
}

func TestGormStore_ClosedPoolRetriesThenFails(t *testing.T) {
	conn := openTestDB(t)
	s := NewGormStore(conn, RetryPolicy{MaxAttempts: 3, Timeout: 2 * time.Second})
	require.NoError(t, Close(conn))

	start := time.Now()
	err := s.RecordHealthCheck(t.Context())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "backed off between attempts")
}

func TestGormStore_RecordHealthCheck(t *testing.T) {
	conn := openTestDB(t)
	s := NewGormStore(conn, DefaultRetryPolicy())

	require.NoError(t, s.RecordHealthCheck(t.Context()))
	require.NoError(t, s.RecordHealthCheck(t.Context()))

	var rows []HealthCheck
	require.NoError(t, conn.Order("check_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Less(t, rows[0].CheckID, rows[1].CheckID)
	assert.WithinDuration(t, time.Now(), rows[1].Datetime, time.Minute)
}

func TestToday(t *testing.T) {
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), DateString(Today()))
}
