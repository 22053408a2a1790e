package vfs

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const W3DExtension = ".w3d"

// CheckName accepts only plain file names, requests can not leave directory
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.Errorf("Invalid file name %q", name)
	}
	return nil
}

func IsW3D(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), W3DExtension)
}

// ListW3D returns sorted names of w3d files
func ListW3D(d Directory) ([]string, error) {
	names, err := d.List()
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(names))
	for _, name := range names {
		if IsW3D(name) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result, nil
}
