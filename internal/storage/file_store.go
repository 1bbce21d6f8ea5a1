package storage

//go:generate mockgen -destination=../mocks/mock_file_store.go -package=mocks github.com/poofware/listings-service/internal/storage FileStore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// PublicPrefix is the URL path uploads are served under.
const PublicPrefix = "/uploads/"

// StoredFile is one file in the uploads directory.
type StoredFile struct {
	Name    string
	URL     string
	ModTime time.Time
}

// FileStore holds image bytes outside the database. URLs returned by Save are
// what image rows record.
type FileStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
	List(ctx context.Context) ([]StoredFile, error)
}

type localFileStore struct {
	dir string
}

// NewLocalFileStore creates dir if needed and stores files flat inside it.
func NewLocalFileStore(dir string) (FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir %q: %w", dir, err)
	}
	return &localFileStore{dir: dir}, nil
}

func (s *localFileStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return PublicPrefix + name, nil
}

func (s *localFileStore) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := nameFromURL(url)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.dir, name))
}

func (s *localFileStore) List(ctx context.Context) ([]StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]StoredFile, 0, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		out = append(out, StoredFile{
			Name:    e.Name(),
			URL:     PublicPrefix + e.Name(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

// nameFromURL maps "/uploads/<file>" back to "<file>", refusing anything that
// would escape the uploads directory.
func nameFromURL(url string) (string, error) {
	if !strings.HasPrefix(url, PublicPrefix) {
		return "", fmt.Errorf("url %q is not under %s", url, PublicPrefix)
	}
	name := strings.TrimPrefix(url, PublicPrefix)
	if name == "" || name != path.Base(name) || name == ".." || name == "." {
		return "", fmt.Errorf("url %q does not name a single file", url)
	}
	return name, nil
}
