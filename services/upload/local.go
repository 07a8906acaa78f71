// Package uploadsvc stores uploaded media (course covers, avatars) on local
// disk and serves them back under the media base URL.
package uploadsvc

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

// allowed upload extensions
var allowedExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".pdf": {},
}

var ErrUnsupportedType = errors.New("unsupported file type")

type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(conf *core.Config) (*LocalStore, error) {
	root := conf.MediaRoot
	if !filepath.IsAbs(root) {
		root = filepath.Join(conf.WorkDir, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media root")
	}
	return &LocalStore{root: root, baseURL: strings.TrimSuffix(conf.MediaBaseURL, "/")}, nil
}

func (s *LocalStore) Root() string { return s.root }

// Save writes the file under a fresh name in folder and returns its public URL.
func (s *LocalStore) Save(folder, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExts[ext]; !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.New().String() + ext
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating media folder")
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating media file")
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "writing media file")
	}
	return path.Join(s.baseURL, folder, name), nil
}

// Remove deletes a previously saved file given its public URL. Unknown URLs
// are ignored.
func (s *LocalStore) Remove(url string) error {
	rel := strings.TrimPrefix(url, s.baseURL+"/")
	if rel == url || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "removing media file")
}
