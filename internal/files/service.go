// Package files implements the upload, fetch and delete workflow across the
// object store and the metadata store.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/blob"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/db"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
)

var (
	ErrMissingFile = errors.New("no file provided")
	ErrNotFound    = errors.New("file not found")
)

// Upload is one incoming payload.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service has no state of its own; every call goes to the backends.
//
// Upload writes the blob before the record, Delete removes the blob before
// the record. A failure between the two steps leaves an orphaned blob or a
// record pointing at a missing blob; neither is repaired automatically.
type Service struct {
	objects blob.Store
	records db.Store
	rec     *metrics.Recorder
	log     *slog.Logger
}

func NewService(objects blob.Store, records db.Store, rec *metrics.Recorder, log *slog.Logger) *Service {
	return &Service{
		objects: objects,
		records: records,
		rec:     rec,
		log:     log.With("component", "files"),
	}
}

// readiness is implemented by db.Handle.
type readiness interface {
	Ready() bool
}

func (s *Service) called(op string) {
	s.rec.Increment("file."+op+".calls", nil)
}

func (s *Service) failed(ctx context.Context, op string, err error, attrs ...any) {
	s.rec.Increment("file."+op+".errors", nil)
	attrs = append(attrs, "op", op, "error", err.Error(), "stack", fmt.Sprintf("%+v", err))
	s.log.ErrorContext(ctx, "file operation failed", attrs...)
}

func (s *Service) Upload(ctx context.Context, up Upload) (*db.File, error) {
	s.called("upload")

	if up.Body == nil || up.Name == "" {
		s.log.WarnContext(ctx, "upload without file")
		return nil, ErrMissingFile
	}
	if r, ok := s.records.(readiness); ok && !r.Ready() {
		s.failed(ctx, "upload", db.ErrNotReady)
		return nil, db.ErrNotReady
	}

	id := uuid.New().String()
	key := blob.Key(id, up.Name)
	rec := &db.File{
		ID:         id,
		FileName:   up.Name,
		URL:        blob.URL(s.objects.Bucket(), key),
		UploadDate: db.Today(),
	}

	err := s.objects.Put(ctx, blob.Object{
		Key:          key,
		Body:         up.Body,
		Size:         up.Size,
		ContentType:  up.ContentType,
		OriginalName: up.Name,
	})
	if err != nil {
		s.failed(ctx, "upload", err, "id", id, "step", "object")
		return nil, err
	}

	if err := s.records.CreateFile(ctx, rec); err != nil {
		s.failed(ctx, "upload", err, "id", id, "step", "record", "orphan_key", key)
		return nil, err
	}

	s.log.InfoContext(ctx, "file uploaded", "id", id, "file_name", up.Name, "size", up.Size)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*db.File, error) {
	s.called("get")

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	f, err := s.records.GetFile(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.failed(ctx, "get", err, "id", id)
		return nil, err
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.called("delete")

	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	f, err := s.records.GetFile(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.failed(ctx, "delete", err, "id", id, "step", "lookup")
		return err
	}

	key := blob.KeyFromURL(s.objects.Bucket(), f.URL)
	if err := s.objects.Delete(ctx, key); err != nil {
		s.failed(ctx, "delete", err, "id", id, "step", "object")
		return err
	}

	err = s.records.DeleteFile(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		// removed concurrently; the blob is gone either way
		return ErrNotFound
	}
	if err != nil {
		s.failed(ctx, "delete", err, "id", id, "step", "record", "dangling_key", key)
		return err
	}

	s.log.InfoContext(ctx, "file deleted", "id", id)
	return nil
}
