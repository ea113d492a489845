package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

const filePerm = 0o644

// FileStore keeps the registry as a single JSON object in a file.
// The file is rewritten in full on every save. A mutex serializes access from
// this process; separate processes sharing the file are not coordinated.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path, creating its parent directory if needed.
// The file itself is created lazily on first Load.
func NewFileStore(path string) (*FileStore, error) {
	const op = "registry.file.New"

	if path == "" {
		return nil, errx.E(op, errx.Invalid, errors.New("file path cannot be empty"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errx.E(op, errx.Storage, err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.E("registry.file.Load", errx.Unavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Save(ctx context.Context, reg Registry) error {
	if err := ctx.Err(); err != nil {
		return errx.E("registry.file.Save", errx.Unavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(reg)
}

func (s *FileStore) Update(ctx context.Context, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return errx.E("registry.file.Update", errx.Unavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return s.write(reg)
}

func (s *FileStore) Close() error { return nil }

// read loads the file, initializing it with an empty registry when it does not exist.
func (s *FileStore) read() (Registry, error) {
	const op = "registry.file.Load"

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.initEmpty()
	}
	if err != nil {
		return nil, errx.E(op, errx.Storage, err)
	}
	return decode(op, data)
}

// initEmpty creates the file exclusively. If another process won the race the
// file it wrote is read instead.
func (s *FileStore) initEmpty() (Registry, error) {
	const op = "registry.file.Load"

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if errors.Is(err, fs.ErrExist) {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, errx.E(op, errx.Storage, err)
		}
		return decode(op, data)
	}
	if err != nil {
		return nil, errx.E(op, errx.Storage, err)
	}

	_, werr := f.Write([]byte("{}"))
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return nil, errx.E(op, errx.Storage, werr)
	}
	return Registry{}, nil
}

func (s *FileStore) write(reg Registry) error {
	const op = "registry.file.Save"

	data, err := encode(reg)
	if err != nil {
		return errx.E(op, errx.Internal, err)
	}
	if err := os.WriteFile(s.path, data, filePerm); err != nil {
		return errx.E(op, errx.Storage, err)
	}
	return nil
}

func decode(op string, data []byte) (Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, errx.E(op, errx.Corrupt, fmt.Errorf("parse registry: %w", err))
	}
	if reg == nil {
		reg = Registry{}
	}
	return reg, nil
}

func encode(reg Registry) ([]byte, error) {
	if reg == nil {
		reg = Registry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(reg); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
