package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// fileStore keeps the whole key space in memory and writes a CBOR
// snapshot after every mutation. Fine for the handful of credential
// keys this application stores.
type fileStore struct {
	mux    *sync.RWMutex
	path   string
	values map[string]string
}

func NewFileStore(path string) (Store, error) {
	s := &fileStore{
		mux:    &sync.RWMutex{},
		path:   path,
		values: make(map[string]string),
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read store file: %w", err)
		}
		return s, nil
	}

	if err := cbor.Unmarshal(content, &s.values); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}

	return s, nil
}

func (f *fileStore) Get(ctx context.Context, key string) (string, error) {
	f.mux.RLock()
	defer f.mux.RUnlock()
	return f.values[key], nil
}

func (f *fileStore) Set(ctx context.Context, key, value string) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.values[key] = value
	return f.flush()
}

func (f *fileStore) Delete(ctx context.Context, key string) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	delete(f.values, key)
	return f.flush()
}

func (f *fileStore) flush() error {
	content, err := cbor.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	if err := os.WriteFile(f.path, content, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}

	return nil
}
