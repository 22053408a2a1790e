package vfs

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// MemoryDirectory keeps files in a map, used by tests and uploads preview
type MemoryDirectory struct {
	name  string
	lock  sync.RWMutex
	files map[string][]byte
}

func NewMemoryDirectory(name string) *MemoryDirectory {
	return &MemoryDirectory{name: name, files: make(map[string][]byte)}
}

func (md *MemoryDirectory) Name() string {
	return md.name
}

func (md *MemoryDirectory) List() ([]string, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()
	result := make([]string, 0, len(md.files))
	for name := range md.files {
		result = append(result, name)
	}
	return result, nil
}

func (md *MemoryDirectory) ReadFile(name string) ([]byte, error) {
	md.lock.RLock()
	defer md.lock.RUnlock()
	data, ok := md.files[name]
	if !ok {
		return nil, errors.Wrapf(os.ErrNotExist, "Cannot read file '%s'", name)
	}
	return append([]byte(nil), data...), nil
}

func (md *MemoryDirectory) WriteFile(name string, data []byte) error {
	if err := CheckName(name); err != nil {
		return err
	}
	md.lock.Lock()
	defer md.lock.Unlock()
	md.files[name] = append([]byte(nil), data...)
	return nil
}
