package main

import (
	"log"

	"github.com/mogaika/w3d_browser/check"
	"github.com/mogaika/w3d_browser/vfs"
)

// roundtripCheck reports files which do not survive decode and encode
func roundtripCheck(rootfs vfs.Directory) bool {
	results, err := check.Directory(rootfs, nil)
	if err != nil {
		log.Fatal(err)
	}

	ok := true
	for _, r := range results {
		switch {
		case r.Error != "":
			log.Printf("E %-32s %v", r.File, r.Error)
			ok = false
		case !r.Identical:
			log.Printf("D %-32s %d animations re-encoded with different bytes", r.File, r.Animations)
			ok = false
		default:
			log.Printf("  %-32s %d chunks, %d animations", r.File, r.Chunks, r.Animations)
		}
	}
	return ok
}
