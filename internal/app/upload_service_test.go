package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/logger"
)

const minimalPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

type stubIndexer struct {
	paths []string
	count int
	err   error
}

func (s *stubIndexer) Index(_ context.Context, path string) (int, error) {
	s.paths = append(s.paths, path)
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	return s.count, s.err
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUpload_RejectsNonPDFNameBeforeSideEffects(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pdfs")
	idx := &stubIndexer{}
	svc := NewUploadService(dir, idx, logger.Discard())

	_, err := svc.Upload(context.Background(), "notes.txt", strings.NewReader(minimalPDF))

	assert.ErrorIs(t, err, ErrNotPDF)
	assert.Empty(t, idx.paths)
	assert.NoDirExists(t, dir)
}

func TestUpload_RejectsNonPDFContent(t *testing.T) {
	dir := t.TempDir()
	idx := &stubIndexer{}
	svc := NewUploadService(dir, idx, logger.Discard())

	_, err := svc.Upload(context.Background(), "fake.pdf", strings.NewReader("just some text pretending"))

	assert.ErrorIs(t, err, ErrNotPDF)
	assert.Empty(t, idx.paths)
	assert.Empty(t, dirEntries(t, dir))
}

func TestUpload_StoresAndIndexes(t *testing.T) {
	dir := t.TempDir()
	idx := &stubIndexer{count: 7}
	svc := NewUploadService(dir, idx, logger.Discard())

	res, err := svc.Upload(context.Background(), "Report.PDF", strings.NewReader(minimalPDF))

	require.NoError(t, err)
	assert.Equal(t, &UploadResult{Filename: "Report.PDF", ChunksIndexed: 7, Status: "success"}, res)
	data, err := os.ReadFile(filepath.Join(dir, "Report.PDF"))
	require.NoError(t, err)
	assert.Equal(t, minimalPDF, string(data))
}

func TestUpload_IndexFailureRemovesFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, &stubIndexer{err: &UpstreamError{Service: "embedding", Err: errBoom}}, logger.Discard())

	_, err := svc.Upload(context.Background(), "doc.pdf", strings.NewReader(minimalPDF))

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, dirEntries(t, dir))
}

func TestUpload_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	idx := &stubIndexer{count: 1}
	svc := NewUploadService(dir, idx, logger.Discard())

	res, err := svc.Upload(context.Background(), `..\..\evil/../../escape.pdf`, strings.NewReader(minimalPDF))

	require.NoError(t, err)
	assert.Equal(t, "escape.pdf", res.Filename)
	assert.Equal(t, []string{filepath.Join(dir, "escape.pdf")}, idx.paths)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a.pdf", sanitizeFilename("/etc/a.pdf"))
	assert.Equal(t, "", sanitizeFilename(""))
	assert.Equal(t, "", sanitizeFilename(".."))
	assert.Equal(t, "", sanitizeFilename("   "))
}
