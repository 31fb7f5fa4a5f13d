// Package blob stores avatar assets on the local filesystem, keyed by
// {userID}/{filename}.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrFileTooLarge = errors.New("avatar file too large")
	ErrNotImage     = errors.New("avatar must be an image")
	ErrInvalidPath  = errors.New("invalid asset path")
)

type StoredAsset struct {
	// Path is the asset's storage key, {userID}/{filename}.
	Path      string
	MimeType  string
	SizeBytes int64
}

type Service struct {
	rootDir        string
	maxUploadBytes int64
}

func NewService(rootDir string, maxUploadBytes int64) (*Service, error) {
	if strings.TrimSpace(rootDir) == "" {
		return nil, fmt.Errorf("avatar root directory is required")
	}
	if maxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be > 0")
	}

	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating avatar root directory: %w", err)
	}

	return &Service{
		rootDir:        rootDir,
		maxUploadBytes: maxUploadBytes,
	}, nil
}

func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// SniffImage reads the leading bytes of src and verifies they are an image
// the service accepts. It returns the detected mime type and a reader that
// replays the consumed bytes ahead of the rest of src.
func SniffImage(src io.Reader) (string, io.Reader, error) {
	sniff := make([]byte, 512)
	n, err := io.ReadFull(src, sniff)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("reading avatar data: %w", err)
	}
	sniff = sniff[:n]

	mimeType := detectMimeType(sniff)
	if !strings.HasPrefix(mimeType, "image/") || mimeType == "image/svg+xml" {
		return "", nil, ErrNotImage
	}

	return mimeType, io.MultiReader(bytes.NewReader(sniff), src), nil
}

// Save sniffs the content type, enforces the image/* and size policies, and
// writes the asset under {userID}/{filename} via a temp file and rename.
func (s *Service) Save(_ context.Context, userID, filename string, src io.Reader) (*StoredAsset, error) {
	relPath := filepath.ToSlash(filepath.Join(sanitizeSegment(userID), sanitizeSegment(filename)))
	absPath, err := s.resolveStoragePath(relPath)
	if err != nil {
		return nil, err
	}

	mimeType, content, err := SniffImage(src)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating avatar directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(absPath), "avatar-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temporary avatar file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	written, err := io.Copy(tmpFile, io.LimitReader(content, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("writing avatar file: %w", err)
	}
	if written > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("closing temporary avatar file: %w", err)
	}

	if err := os.Rename(tmpPath, absPath); err != nil {
		return nil, fmt.Errorf("finalizing avatar file: %w", err)
	}

	return &StoredAsset{
		Path:      relPath,
		MimeType:  mimeType,
		SizeBytes: written,
	}, nil
}

func (s *Service) Open(assetPath string) (*os.File, error) {
	absPath, err := s.resolveStoragePath(assetPath)
	if err != nil {
		return nil, err
	}
	return os.Open(absPath)
}

// Delete removes an asset. A missing file is not an error; callers treat
// cleanup as best-effort.
func (s *Service) Delete(assetPath string) error {
	absPath, err := s.resolveStoragePath(assetPath)
	if err != nil {
		return err
	}

	err = os.Remove(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting avatar file: %w", err)
	}

	return nil
}

// DeleteAll removes every asset stored for the user.
func (s *Service) DeleteAll(userID string) error {
	dir, err := s.resolveStoragePath(sanitizeSegment(userID))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting avatar directory: %w", err)
	}
	return nil
}

func (s *Service) resolveStoragePath(assetPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(assetPath))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrInvalidPath
	}

	return filepath.Join(s.rootDir, clean), nil
}

func sanitizeSegment(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "unnamed"
	}
	if len(name) > 255 {
		return name[:255]
	}
	return name
}

func detectMimeType(sniff []byte) string {
	if len(sniff) == 0 {
		return "application/octet-stream"
	}

	contentType := http.DetectContentType(sniff)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}
