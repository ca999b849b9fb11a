package storage

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrBadKey = errors.New("invalid asset key")

// Store holds uploaded course media: lesson videos, PDF decks, product
// images. Keys are slash-separated relative paths chosen by the
// uploader, e.g. "videos/week1-intro.mp4".
type Store interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Open(key string) (io.ReadCloser, error)
	URL(key string) string // public path the portal serves the asset from
}

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./assets"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// cleanKey rejects traversal and absolute keys. Every entry point
// funnels through here.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrBadKey
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrBadKey
	}
	return c, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.base, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Open(key string) (io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.base, filepath.FromSlash(key)))
}

func (s *FSStore) URL(key string) string {
	return "/assets/" + key
}
