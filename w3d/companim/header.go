package companim

import (
	"fmt"
	"log"

	"github.com/mogaika/w3d_browser/config"
	"github.com/mogaika/w3d_browser/w3d"
)

const (
	NameLen    = 16
	HeaderSize = 4 + NameLen + NameLen + 4 + 2 + 2
)

// CurrentVersion is the newest compressed animation layout this package knows
var CurrentVersion = w3d.Version{Major: 0, Minor: 1}

type Flavor uint16

const (
	FlavorTimeCoded Flavor = iota
	FlavorAdaptiveDelta
)

func (f Flavor) String() string {
	switch f {
	case FlavorTimeCoded:
		return "timecoded"
	case FlavorAdaptiveDelta:
		return "adaptivedelta"
	default:
		return fmt.Sprintf("Flavor(%d)", uint16(f))
	}
}

type Header struct {
	Version       w3d.Version `yaml:"version"`
	Name          string      `yaml:"name"`
	HierarchyName string      `yaml:"hierarchy_name"`
	NumFrames     uint32      `yaml:"num_frames"`
	FrameRate     uint16      `yaml:"frame_rate"`
	Flavor        Flavor      `yaml:"flavor"`
}

func readHeader(r *w3d.Reader) (*Header, error) {
	h := &Header{
		Version:       w3d.VersionFromUint32(r.U32()),
		Name:          r.FixedString(NameLen),
		HierarchyName: r.FixedString(NameLen),
		NumFrames:     r.U32(),
		FrameRate:     r.U16(),
		Flavor:        Flavor(r.U16()),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	if h.Version.Newer(CurrentVersion) {
		if config.StrictVersion() {
			return nil, &w3d.UnsupportedVersionError{Version: h.Version, Max: CurrentVersion}
		}
		log.Printf("[companim] Animation %q has version %v, newer than %v. Decoding with the %v layout",
			h.Name, h.Version, CurrentVersion, CurrentVersion)
	}
	if r.Remaining() != 0 {
		log.Printf("[companim] Animation %q header has %d unknown trailing bytes", h.Name, r.Remaining())
	}
	return h, nil
}

func (h *Header) validate() error {
	if h.NumFrames == 0 {
		return w3d.Invariantf("animation %q has zero frames", h.Name)
	}
	if h.FrameRate == 0 {
		return w3d.Invariantf("animation %q has zero frame rate", h.Name)
	}
	switch h.Flavor {
	case FlavorTimeCoded, FlavorAdaptiveDelta:
	default:
		return w3d.Invariantf("animation %q has unknown flavor %d", h.Name, h.Flavor)
	}
	return nil
}

func (h *Header) write(w *w3d.Writer) error {
	return w.Chunk(ChunkCompressedAnimationHeader, HeaderSize, false, func(w *w3d.Writer) error {
		w.U32(h.Version.Uint32())
		w.FixedString(h.Name, NameLen)
		w.FixedString(h.HierarchyName, NameLen)
		w.U32(h.NumFrames)
		w.U16(h.FrameRate)
		w.U16(uint16(h.Flavor))
		return nil
	})
}
