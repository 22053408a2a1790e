package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/check"
	"github.com/mogaika/w3d_browser/config"
	"github.com/mogaika/w3d_browser/utils"
	"github.com/mogaika/w3d_browser/utils/gltfutils"
	"github.com/mogaika/w3d_browser/w3d"
	"github.com/mogaika/w3d_browser/w3d/companim"
)

type options struct {
	in, out, gltfOut, reflavor string
	anim                       int
	tree, yaml, dump, check    bool
	encode                     bool
	l                          *utils.Logger
}

func encodeYAML(o *options) error {
	text, err := ioutil.ReadFile(o.in)
	if err != nil {
		return err
	}
	ca, err := companim.UnmarshalYAML(text)
	if err != nil {
		return errors.Wrapf(err, "Failed to parse %s", o.in)
	}
	data, err := ca.Bytes()
	if err != nil {
		return err
	}
	return ioutil.WriteFile(o.out, data, 0666)
}

func pickAnimation(anims []*companim.CompressedAnimation, index int) (*companim.CompressedAnimation, error) {
	if index < 0 || index >= len(anims) {
		return nil, errors.Errorf("File has %d compressed animations, no #%d", len(anims), index)
	}
	return anims[index], nil
}

func process(o *options) error {
	data, err := ioutil.ReadFile(o.in)
	if err != nil {
		return err
	}

	if o.tree {
		f, bs, err := w3d.ReadFileLayout(data)
		if err == nil {
			_, err = companim.FromFile(f, nil)
		}
		fmt.Print(bs.StringTree())
		if err != nil {
			if loc := w3d.ErrorLocation(bs, err); loc != "" {
				log.Printf("Error at %s", loc)
			}
			return err
		}
	}

	if o.check {
		f, anims, identical, err := check.Roundtrip(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d chunks, %d animations, identical: %v\n", o.in, len(f.Chunks), len(anims), identical)
	}

	f, err := w3d.ReadFile(data)
	if err != nil {
		return err
	}
	anims, err := companim.FromFile(f, o.l)
	if err != nil {
		return err
	}

	if o.dump {
		utils.FDump(os.Stdout, anims)
	}

	if o.yaml {
		ca, err := pickAnimation(anims, o.anim)
		if err != nil {
			return err
		}
		text, err := companim.MarshalYAML(ca)
		if err != nil {
			return err
		}
		os.Stdout.Write(text)
	}

	if o.gltfOut != "" {
		ca, err := pickAnimation(anims, o.anim)
		if err != nil {
			return err
		}
		doc, err := companim.ExportGLTF(ca, nil)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := gltfutils.ExportBinary(&buf, doc); err != nil {
			return err
		}
		if err := ioutil.WriteFile(o.gltfOut, buf.Bytes(), 0666); err != nil {
			return err
		}
	}

	if o.reflavor != "" {
		if o.out == "" {
			return errors.Errorf("-reflavor requires -out")
		}
		var flavor companim.Flavor
		switch o.reflavor {
		case config.CompressionTimeCoded:
			flavor = companim.FlavorTimeCoded
		case config.CompressionAdaptiveDelta:
			flavor = companim.FlavorAdaptiveDelta
		default:
			return errors.Errorf("Unknown flavor %q", o.reflavor)
		}
		for i, ca := range anims {
			rf, err := ca.Reflavor(flavor)
			if err != nil {
				return errors.Wrapf(err, "Animation %q", ca.Header.Name)
			}
			if err := companim.ReplaceInFile(f, i, rf); err != nil {
				return err
			}
		}
		return f.Save(o.out)
	}
	return nil
}

func main() {
	var o options
	var settingsPath, encoding string
	var verbose bool
	flag.StringVar(&o.in, "in", "", "Input w3d file, or yaml file with -encode")
	flag.StringVar(&o.out, "out", "", "Output w3d file")
	flag.IntVar(&o.anim, "anim", 0, "Index of compressed animation inside file")
	flag.BoolVar(&o.tree, "tree", false, "Print chunk layout")
	flag.BoolVar(&o.yaml, "yaml", false, "Print animation as yaml")
	flag.BoolVar(&o.dump, "dump", false, "Dump decoded animations")
	flag.BoolVar(&o.check, "check", false, "Decode and encode file back, compare bytes")
	flag.StringVar(&o.gltfOut, "gltf", "", "Export animation into glb file")
	flag.StringVar(&o.reflavor, "reflavor", "", "Re-encode animations as tc or ad, result goes to -out")
	flag.BoolVar(&o.encode, "encode", false, "Build w3d file -out from yaml -in")
	flag.StringVar(&encoding, "encoding", "", "Code page of names inside files")
	flag.StringVar(&settingsPath, "settings", "", "Path to export settings yaml")
	flag.BoolVar(&verbose, "v", false, "Trace parsing to stderr")
	flag.Parse()

	if o.in == "" {
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
	if err := settings.Apply(); err != nil {
		log.Fatal(err)
	}
	if verbose {
		o.l = utils.NewLogger(os.Stderr)
	}

	var err error
	if o.encode {
		if o.out == "" {
			log.Fatal("-encode requires -out")
		}
		err = encodeYAML(&o)
	} else {
		err = process(&o)
	}
	if err != nil {
		log.Fatal(err)
	}
}
