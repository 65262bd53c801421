package filerepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/token"
)

const defaultFileName = "tokens.json"

var _ token.Repo = (*FileRepo)(nil)

// FileRepo is the durable scope backed by a single JSON document on disk.
// Every write rewrites the whole document through a temp file and rename. A
// document that no longer parses fails reads and is replaced by the next write.
type FileRepo struct {
	path   string
	logger zerolog.Logger
	lock   sync.Mutex
}

type Option func(*FileRepo)

func WithLogger(logger zerolog.Logger) Option {
	return func(r *FileRepo) {
		r.logger = logger
	}
}

// New returns a FileRepo storing tokens in <folder>/tokens.json.
func New(folder string, options ...Option) *FileRepo {
	r := &FileRepo{
		path:   filepath.Join(folder, defaultFileName),
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Path is the file backing the repo.
func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Get(_ context.Context, key string) (string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	values, err := r.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", errors.ErrNotFound
	}
	return v, nil
}

func (r *FileRepo) Set(_ context.Context, key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	values, _, err := r.loadForWrite()
	if err != nil {
		return err
	}
	values[key] = value
	return r.save(values)
}

func (r *FileRepo) Delete(_ context.Context, key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	values, corrupt, err := r.loadForWrite()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok && !corrupt {
		return nil
	}
	delete(values, key)
	return r.save(values)
}

func (r *FileRepo) load() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[filerepo load] %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[filerepo load] %w %s: %w", errors.ErrCorruptFile, r.path, err)
	}
	return values, nil
}

// loadForWrite is load for Set and Delete: a corrupt document is discarded
// so the write replaces it.
func (r *FileRepo) loadForWrite() (values map[string]string, corrupt bool, err error) {
	values, err = r.load()
	if errors.Is(err, errors.ErrCorruptFile) {
		r.logger.Warn().Err(err).Str("path", r.path).Msg("Discarding corrupt token file")
		return make(map[string]string), true, nil
	}
	return values, false, err
}

func (r *FileRepo) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("[filerepo save] %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("[filerepo save] %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("[filerepo save] %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[filerepo save] %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[filerepo save] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[filerepo save] %w", err)
	}
	return os.Rename(tmp.Name(), r.path)
}
