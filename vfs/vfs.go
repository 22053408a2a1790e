package vfs

// Directory is a flat folder of asset files served by the browser and
// walked by the round-trip check.
type Directory interface {
	Name() string
	List() ([]string, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
}
