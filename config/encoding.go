package config

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Names inside w3d files are fixed size byte strings written by windows
// tools, so they are decoded with a single byte code page.
const DefaultEncoding = "Windows 1252"

var (
	encodingLock   sync.RWMutex
	currentCharMap = charmap.Windows1252
)

func SetEncoding(name string) error {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && cm.String() == name {
			encodingLock.Lock()
			currentCharMap = cm
			encodingLock.Unlock()
			return nil
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := make([]string, 0, len(charmap.All))
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	encodingLock.RLock()
	defer encodingLock.RUnlock()
	return currentCharMap
}
