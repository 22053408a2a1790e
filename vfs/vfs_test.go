package vfs

import (
	"bytes"
	"io/ioutil"
	"os"
	"reflect"
	"testing"
)

func testDirectory(t *testing.T, d Directory) {
	for name, data := range map[string][]byte{
		"b.w3d":      {1, 2, 3},
		"A.W3D":      {4},
		"readme.txt": []byte("text"),
	} {
		if err := d.WriteFile(name, data); err != nil {
			t.Fatal(err)
		}
	}
	names, err := ListW3D(d)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"A.W3D", "b.w3d"}) {
		t.Errorf("ListW3D=%v", names)
	}
	if err := d.WriteFile("b.w3d", []byte{9}); err != nil {
		t.Fatal(err)
	}
	if data, err := d.ReadFile("b.w3d"); err != nil || !bytes.Equal(data, []byte{9}) {
		t.Errorf("rewritten file %v, %v", data, err)
	}
	if _, err := d.ReadFile("missing.w3d"); err == nil {
		t.Errorf("expected error for missing file")
	}
	for _, name := range []string{"../x.w3d", "a/b.w3d", "", ".."} {
		if err := d.WriteFile(name, nil); err == nil {
			t.Errorf("write of %q should fail", name)
		}
	}
}

func TestMemoryDirectory(t *testing.T) {
	testDirectory(t, NewMemoryDirectory("mem"))
}

func TestDirectoryDriver(t *testing.T) {
	tmp, err := ioutil.TempDir("", "w3dvfs")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmp)

	d, err := NewDirectoryDriver(tmp)
	if err != nil {
		t.Fatal(err)
	}
	testDirectory(t, d)

	names, err := d.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 {
		t.Errorf("temporary files left in directory: %v", names)
	}
}
