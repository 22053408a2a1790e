package main

import (
	"flag"
	"log"

	"github.com/mogaika/w3d_browser/config"
	"github.com/mogaika/w3d_browser/status"
	"github.com/mogaika/w3d_browser/vfs"
	"github.com/mogaika/w3d_browser/web"
)

func main() {
	var addr, dir, settingsPath, encoding string
	var strict, checkOnly bool
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&dir, "dir", "", "Path to folder with w3d files")
	flag.StringVar(&settingsPath, "settings", "", "Path to export settings yaml")
	flag.StringVar(&encoding, "encoding", "", "Code page of names inside files, overrides settings")
	flag.BoolVar(&strict, "strict", false, "Refuse animations newer than supported version")
	flag.BoolVar(&checkOnly, "check", false, "Roundtrip every file of -dir and exit")
	flag.Parse()

	if dir == "" {
		flag.PrintDefaults()
		return
	}

	settings := config.DefaultExportSettings()
	if settingsPath != "" {
		var err error
		if settings, err = config.LoadExportSettings(settingsPath); err != nil {
			log.Fatal(err)
		}
	}
	if encoding != "" {
		settings.Encoding = encoding
	}
	if strict {
		settings.StrictVersion = true
	}
	if err := settings.Apply(); err != nil {
		log.Fatal(err)
	}

	d, err := vfs.NewDirectoryDriver(dir)
	if err != nil {
		log.Fatal(err)
	}

	if checkOnly {
		if !roundtripCheck(d) {
			log.Fatal("Roundtrip check failed")
		}
		return
	}

	hub := status.NewHub()
	defer hub.Close()

	if err := web.StartServer(addr, web.NewServer(d, hub, settings), "web"); err != nil {
		log.Fatal(err)
	}
}
