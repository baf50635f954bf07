// Package blob stores uploaded product images and returns their public URL.
package blob

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNotImage is returned for uploads whose content is not an image.
var ErrNotImage = errors.New("content is not an image")

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// LocalStore writes blobs under Dir/productos and serves them below BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: baseURL}
}

// Store sniffs the content type, writes data under a fresh name and returns
// the URL it is reachable at. The client-supplied name is not used on disk.
func (s *LocalStore) Store(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	ext, ok := extByType[ct]
	if !ok {
		return "", ErrNotImage
	}
	dir := filepath.Join(s.Dir, "productos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create media dir")
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, "write blob")
	}
	return joinURL(s.BaseURL, path.Join("productos", name)), nil
}

// Remove deletes a blob previously returned by Store. URLs outside BaseURL
// are ignored.
func (s *LocalStore) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, strings.TrimSuffix(s.BaseURL, "/")+"/")
	if !ok || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove blob")
	}
	return nil
}

func joinURL(base, rel string) string {
	return strings.TrimSuffix(base, "/") + "/" + rel
}
