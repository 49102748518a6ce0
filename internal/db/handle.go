package db

import (
	"context"
	"sync/atomic"
)

type storeBox struct{ Store }

// Handle is the process-wide entry to the metadata store. It starts not
// ready; the bootstrap sequence marks it ready exactly once. Until then every
// call fails with ErrNotReady.
type Handle struct {
	ptr atomic.Pointer[storeBox]
}

func NewHandle() *Handle { return &Handle{} }

// MarkReady installs s. It reports false if the handle was already ready,
// in which case s is ignored.
func (h *Handle) MarkReady(s Store) bool {
	return h.ptr.CompareAndSwap(nil, &storeBox{s})
}

func (h *Handle) Ready() bool {
	return h.ptr.Load() != nil
}

func (h *Handle) store() (Store, error) {
	box := h.ptr.Load()
	if box == nil {
		return nil, ErrNotReady
	}
	return box.Store, nil
}

func (h *Handle) CreateFile(ctx context.Context, f *File) error {
	s, err := h.store()
	if err != nil {
		return err
	}
	return s.CreateFile(ctx, f)
}

func (h *Handle) GetFile(ctx context.Context, id string) (*File, error) {
	s, err := h.store()
	if err != nil {
		return nil, err
	}
	return s.GetFile(ctx, id)
}

func (h *Handle) DeleteFile(ctx context.Context, id string) error {
	s, err := h.store()
	if err != nil {
		return err
	}
	return s.DeleteFile(ctx, id)
}

func (h *Handle) RecordHealthCheck(ctx context.Context) error {
	s, err := h.store()
	if err != nil {
		return err
	}
	return s.RecordHealthCheck(ctx)
}
