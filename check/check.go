package check

import (
	"bytes"
	"log"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/status"
	"github.com/mogaika/w3d_browser/vfs"
	"github.com/mogaika/w3d_browser/w3d"
	"github.com/mogaika/w3d_browser/w3d/companim"
)

type Result struct {
	File       string `json:"file"`
	Chunks     int    `json:"chunks"`
	Animations int    `json:"animations"`
	Identical  bool   `json:"identical"`
	Error      string `json:"error,omitempty"`
}

// Roundtrip decodes every compressed animation of a file, encodes it back
// and compares the rebuilt file with the original bytes.
func Roundtrip(data []byte) (*w3d.File, []*companim.CompressedAnimation, bool, error) {
	f, err := w3d.ReadFile(data)
	if err != nil {
		return nil, nil, false, err
	}
	anims, err := companim.FromFile(f, nil)
	if err != nil {
		return f, nil, false, err
	}
	for i, ca := range anims {
		if err := companim.ReplaceInFile(f, i, ca); err != nil {
			return f, anims, false, errors.Wrapf(err, "Failed to re-encode animation %q", ca.Header.Name)
		}
	}
	out, err := f.Bytes()
	if err != nil {
		return f, anims, false, err
	}
	return f, anims, bytes.Equal(out, data), nil
}

func File(name string, data []byte) Result {
	res := Result{File: name}
	f, anims, identical, err := Roundtrip(data)
	if f != nil {
		res.Chunks = len(f.Chunks)
	}
	res.Animations = len(anims)
	res.Identical = identical
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// Directory checks all w3d files of d using a worker per cpu
func Directory(d vfs.Directory, hub *status.Hub) ([]Result, error) {
	names, err := vfs.ListW3D(d)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(names))
	jobs := make(chan int)
	var wg sync.WaitGroup
	var lock sync.Mutex
	done := 0

	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iName := range jobs {
				name := names[iName]
				data, err := d.ReadFile(name)
				if err != nil {
					results[iName] = Result{File: name, Error: err.Error()}
				} else {
					results[iName] = File(name, data)
				}

				lock.Lock()
				done++
				hub.Progress(float32(done)/float32(len(names)), "Checked %s", name)
				lock.Unlock()
			}
		}()
	}
	for i := range names {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" || !r.Identical {
			failed++
			log.Printf("[check] %s: identical=%v error=%q", r.File, r.Identical, r.Error)
		}
	}
	hub.Info("Checked %d files, %d failed", len(results), failed)
	return results, nil
}
