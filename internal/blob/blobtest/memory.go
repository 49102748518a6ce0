// Package blobtest provides an in-memory blob.Store for tests.
package blobtest

import (
	"context"
	"io"
	"sync"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/blob"
)

// StoredObject is what Memory keeps per key.
type StoredObject struct {
	Data         []byte
	ContentType  string
	OriginalName string
}

// Memory is a concurrency-safe in-memory bucket. Set the *Err fields to make
// the matching call fail.
type Memory struct {
	BucketName string
	PutErr     error
	DeleteErr  error
	CheckErr   error

	mu      sync.Mutex
	objects map[string]StoredObject
	puts    int
	deletes int
}

func New(bucket string) *Memory {
	return &Memory{BucketName: bucket, objects: make(map[string]StoredObject)}
}

func (m *Memory) Bucket() string { return m.BucketName }

func (m *Memory) Put(_ context.Context, obj blob.Object) error {
	m.mu.Lock()
	m.puts++
	err := m.PutErr
	m.mu.Unlock()
	if err != nil {
		return err
	}

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[obj.Key] = StoredObject{Data: data, ContentType: obj.ContentType, OriginalName: obj.OriginalName}
	return nil
}

// Delete follows S3 semantics: removing a missing key succeeds.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) CheckBucket(context.Context) error { return m.CheckErr }

func (m *Memory) Object(key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *Memory) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}
