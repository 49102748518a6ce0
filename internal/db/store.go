// Package db owns the relational metadata store: models, dialects, the
// bootstrap sequence and the store used by request handlers.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrNotReady = errors.New("metadata store not ready")
)

// Store is the metadata store seen by request handlers.
type Store interface {
	CreateFile(ctx context.Context, f *File) error
	// GetFile returns ErrNotFound when no row has id.
	GetFile(ctx context.Context, id string) (*File, error)
	// DeleteFile returns ErrNotFound when no row has id.
	DeleteFile(ctx context.Context, id string) error
	RecordHealthCheck(ctx context.Context) error
}

// RetryPolicy bounds how often and for how long a store call is attempted.
type RetryPolicy struct {
	MaxAttempts int
	Timeout     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Timeout: 5 * time.Second}
}

// GormStore implements Store on a gorm session.
type GormStore struct {
	db    *gorm.DB
	retry RetryPolicy
}

func NewGormStore(db *gorm.DB, retry RetryPolicy) *GormStore {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	if retry.Timeout <= 0 {
		retry.Timeout = DefaultRetryPolicy().Timeout
	}
	return &GormStore{db: db, retry: retry}
}

// do runs fn until it succeeds, returns a permanent error, runs out of
// attempts or the retry window closes. The last error from fn is returned.
func (s *GormStore) do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.retry.Timeout)
	defer cancel()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 100 * time.Millisecond
	exp.MaxElapsedTime = s.retry.Timeout
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.retry.MaxAttempts-1)), ctx)

	var lastErr error
	err := backoff.Retry(func() error {
		err := fn(s.db.WithContext(ctx))
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err == nil {
		return nil
	}
	if lastErr == nil {
		return err
	}
	if errors.Is(lastErr, gorm.ErrRecordNotFound) || errors.Is(lastErr, ErrNotFound) {
		return ErrNotFound
	}
	return pkgerrors.WithStack(lastErr)
}

func (s *GormStore) CreateFile(ctx context.Context, f *File) error {
	return s.do(ctx, func(tx *gorm.DB) error {
		return tx.Create(f).Error
	})
}

func (s *GormStore) GetFile(ctx context.Context, id string) (*File, error) {
	var f File
	err := s.do(ctx, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).Take(&f).Error
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *GormStore) DeleteFile(ctx context.Context, id string) error {
	return s.do(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&File{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) RecordHealthCheck(ctx context.Context) error {
	return s.do(ctx, func(tx *gorm.DB) error {
		return tx.Create(&HealthCheck{Datetime: time.Now().UTC()}).Error
	})
}
