package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const sniffBytes = 3072

type DocumentIndexer interface {
	Index(ctx context.Context, path string) (int, error)
}

type UploadResult struct {
	Filename      string `json:"filename"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Status        string `json:"status"`
}

// UploadService stores uploaded PDFs in dir and indexes them.
type UploadService struct {
	dir     string
	indexer DocumentIndexer
	log     *logrus.Entry
}

func NewUploadService(dir string, indexer DocumentIndexer, log *logrus.Entry) *UploadService {
	return &UploadService{dir: dir, indexer: indexer, log: log}
}

// Upload validates the name and content before anything is written. If
// indexing fails the stored file is removed again.
func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, ErrNotPDF
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	head = head[:n]
	if !mimetype.Detect(head).Is("application/pdf") {
		return nil, ErrNotPDF
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir failed: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := writeFile(path, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	count, err := s.indexer.Index(ctx, path)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.log.WithError(rmErr).WithField("path", path).Warn("remove failed upload")
		}
		return nil, err
	}

	return &UploadResult{Filename: name, ChunksIndexed: count, Status: "success"}, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file failed: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write upload file failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close upload file failed: %w", err)
	}
	return nil
}

// sanitizeFilename keeps only the final path element of a client supplied name.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return ""
	}
	return base
}
