package blob_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IngKendrys/scrap-backend/internal/blob"
)

// smallest valid PNG header is enough for content sniffing
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestStoreAndRemove(t *testing.T) {
	dir := t.TempDir()
	s := blob.NewLocalStore(dir, "http://localhost:8080/media/")

	url, err := s.Store(pngHeader)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/media/productos/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	rel := strings.TrimPrefix(url, "http://localhost:8080/media/")
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)

	require.NoError(t, s.Remove(url))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove("https://elsewhere/x.png"))
}

func TestStoreRejectsNonImage(t *testing.T) {
	s := blob.NewLocalStore(t.TempDir(), "/media")
	_, err := s.Store([]byte("#!/bin/sh\necho hi\n"))
	assert.ErrorIs(t, err, blob.ErrNotImage)
}
