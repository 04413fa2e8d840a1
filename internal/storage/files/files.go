// Package files stores message attachments and avatars on local disk.
// Blobs are addressed by an opaque public ID; the extension is derived from
// the sniffed content type, never from the client-supplied filename.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/klatch-chat/klatch-server/internal/utils"
)

// URLPrefix is the route the HTTP layer serves blobs under.
const URLPrefix = "/uploads"

// MaxBlobSize caps a single upload at 10 MiB.
const MaxBlobSize = 10 << 20

// Object describes a stored blob.
type Object struct {
	PublicID    string
	URL         string
	ContentType string
}

// Store is a local-disk blob store.
type Store struct {
	dir string
}

// New creates the upload directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory blobs live in, for static file serving.
func (s *Store) Dir() string {
	return s.dir
}

// Save reads the blob, sniffs its content type and writes it under a fresh
// public ID.
func (s *Store) Save(r io.Reader) (Object, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBlobSize+1))
	if err != nil {
		return Object{}, fmt.Errorf("read blob: %w", err)
	}
	if len(data) > MaxBlobSize {
		return Object{}, fmt.Errorf("blob exceeds %d bytes", MaxBlobSize)
	}

	mtype := mimetype.Detect(data)
	ext := mtype.Extension()
	if ext == "" {
		ext = ".bin"
	}
	publicID := utils.NewID()
	name := publicID + ext

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return Object{}, fmt.Errorf("write blob: %w", err)
	}

	return Object{
		PublicID:    publicID,
		URL:         URLPrefix + "/" + name,
		ContentType: mtype.String(),
	}, nil
}

// Delete removes the blob stored under the public ID. Missing blobs are not
// an error.
func (s *Store) Delete(publicID string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, publicID+".*"))
	if err != nil {
		return fmt.Errorf("glob blob: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove blob: %w", err)
		}
	}
	return nil
}
