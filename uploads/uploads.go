package uploads

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Store writes item photos into a directory served under URLPrefix.
type Store struct {
	dir       string
	urlPrefix string
}

func New(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload directory")
	}
	return &Store{dir: dir, urlPrefix: urlPrefix}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes r to name, replacing any existing file, and returns the URL
// path the file is served at. The data lands in a temporary file first so a
// failed copy never truncates an earlier upload.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", errors.Errorf("invalid photo name %q", name)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", errors.Wrap(err, "write photo")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "close photo")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", errors.Wrap(err, "move photo into place")
	}

	return path.Join(s.urlPrefix, name), nil
}

// Remove deletes the photo served at url. URLs outside the upload prefix,
// such as the placeholder, and files already gone are ignored.
func (s *Store) Remove(url string) error {
	if !strings.HasPrefix(url, s.urlPrefix+"/") {
		return nil
	}
	name := path.Base(url)
	if strings.HasPrefix(name, ".") {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove photo")
	}
	return nil
}

// FileSystem serves the photos in dir. Directories and dot files, which
// include in-flight uploads, are reported as missing so nothing can be
// listed.
func FileSystem(dir string) http.FileSystem {
	return photoFS{root: http.Dir(dir)}
}

type photoFS struct {
	root http.Dir
}

func (fs photoFS) Open(name string) (http.File, error) {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return nil, os.ErrNotExist
		}
	}

	f, err := fs.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
