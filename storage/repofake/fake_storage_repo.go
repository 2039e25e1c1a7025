package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-guard-companion/storage"
)

var _ storage.Repo = (*FakeStorageRepo)(nil)

// Op names a storage operation for failure injection
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpRemove Op = "remove"
)

// FakeStorageRepo is an in-memory storage.Repo with injectable failures
type FakeStorageRepo struct {
	mu       sync.RWMutex
	values   map[string]string
	failures map[Op]error
	writes   int
}

func NewFakeStorageRepo() *FakeStorageRepo {
	return &FakeStorageRepo{
		values:   make(map[string]string),
		failures: make(map[Op]error),
	}
}

// FailWith makes every subsequent op return err; a nil err clears the failure
func (r *FakeStorageRepo) FailWith(op Op, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

func (r *FakeStorageRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.failures[OpGet]; err != nil {
		return "", false, err
	}
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *FakeStorageRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failures[OpSet]; err != nil {
		return err
	}
	r.values[key] = value
	r.writes++
	return nil
}

func (r *FakeStorageRepo) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failures[OpRemove]; err != nil {
		return err
	}
	delete(r.values, key)
	return nil
}

// Snapshot returns a copy of the stored values
func (r *FakeStorageRepo) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Writes counts successful Set calls
func (r *FakeStorageRepo) Writes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writes
}
