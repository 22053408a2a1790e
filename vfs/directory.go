package vfs

import (
	"io/ioutil"
	"os"
	path_ "path"
	"path/filepath"

	"github.com/pkg/errors"
)

type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) (*DirectoryDriver, error) {
	s, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Stat error")
	}
	if !s.IsDir() {
		return nil, errors.Errorf("%q is not a directory", path)
	}
	return &DirectoryDriver{path: path}, nil
}

func (dd *DirectoryDriver) Name() string {
	return path_.Base(dd.path)
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) List() ([]string, error) {
	fileinfos, err := ioutil.ReadDir(dd.path)
	if err != nil {
		return nil, errors.Wrapf(err, "Error getting directory '%s' info", dd.path)
	}
	result := make([]string, 0, len(fileinfos))
	for _, f := range fileinfos {
		if !f.IsDir() {
			result = append(result, f.Name())
		}
	}
	return result, nil
}

func (dd *DirectoryDriver) ReadFile(name string) ([]byte, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(filepath.Join(dd.path, name))
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read file '%s'", name)
	}
	return data, nil
}

// WriteFile replaces file through a temporary file, so readers never see
// a half written asset.
func (dd *DirectoryDriver) WriteFile(name string, data []byte) error {
	if err := CheckName(name); err != nil {
		return err
	}
	target := filepath.Join(dd.path, name)

	f, err := ioutil.TempFile(dd.path, "."+name+".*")
	if err != nil {
		return errors.Wrapf(err, "Cannot create temporary file for '%s'", name)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "Cannot write '%s'", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "Cannot close '%s'", tmp)
	}
	if err := os.Rename(tmp, target); err != nil {
		return errors.Wrapf(err, "Cannot replace '%s'", name)
	}
	return nil
}
