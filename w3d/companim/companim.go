package companim

import (
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/utils"
	"github.com/mogaika/w3d_browser/w3d"
)

const (
	ChunkCompressedAnimation        = 0x00000280
	ChunkCompressedAnimationHeader  = 0x00000281
	ChunkCompressedAnimationChannel = 0x00000282
	ChunkCompressedBitChannel       = 0x00000283
	ChunkCompressedMotionChannel    = 0x00000284
)

func init() {
	w3d.RegisterChunkName(ChunkCompressedAnimation, "COMPRESSED_ANIMATION")
	w3d.RegisterChunkName(ChunkCompressedAnimationHeader, "COMPRESSED_ANIMATION_HEADER")
	w3d.RegisterChunkName(ChunkCompressedAnimationChannel, "COMPRESSED_ANIMATION_CHANNEL")
	w3d.RegisterChunkName(ChunkCompressedBitChannel, "COMPRESSED_BIT_CHANNEL")
	w3d.RegisterChunkName(ChunkCompressedMotionChannel, "COMPRESSED_MOTION_CHANNEL")
}

type CompressedAnimation struct {
	Header                Header                           `yaml:"header"`
	TimeCodedChannels     []*TimeCodedAnimationChannel     `yaml:"time_coded_channels"`
	AdaptiveDeltaChannels []*AdaptiveDeltaAnimationChannel `yaml:"adaptive_delta_channels"`
	TimeCodedBitChannels  []*TimeCodedBitChannel           `yaml:"time_coded_bit_channels"`
	MotionChannels        []*MotionChannel                 `yaml:"motion_channels"`
}

func New(name, hierarchyName string, numFrames uint32, frameRate uint16, flavor Flavor) *CompressedAnimation {
	return &CompressedAnimation{
		Header: Header{
			Version:       CurrentVersion,
			Name:          name,
			HierarchyName: hierarchyName,
			NumFrames:     numFrames,
			FrameRate:     frameRate,
			Flavor:        flavor,
		},
	}
}

// Read decodes payload of a COMPRESSED_ANIMATION chunk. Sub chunks may come
// in any order, channel chunks are decoded once the header tells the flavor.
func Read(r *w3d.Reader, l *utils.Logger) (*CompressedAnimation, error) {
	ca := &CompressedAnimation{}
	var header *Header
	var channels []*w3d.Reader

	for {
		h, sub, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read sub chunk at 0x%x", r.Offset())
		}
		l.Printf("  %v at 0x%x", h, sub.Offset()-w3d.ChunkHeaderSize)

		switch h.Type {
		case ChunkCompressedAnimationHeader:
			if header != nil {
				return nil, sub.Malformed("second animation header")
			}
			if header, err = readHeader(sub); err != nil {
				return nil, errors.Wrapf(err, "Failed to read header")
			}
			l.Printf("    %q hierarchy %q frames %d rate %d flavor %v",
				header.Name, header.HierarchyName, header.NumFrames, header.FrameRate, header.Flavor)
		case ChunkCompressedAnimationChannel:
			channels = append(channels, sub)
		case ChunkCompressedBitChannel:
			c, err := readTimeCodedBitChannel(sub)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read bit channel #%d", len(ca.TimeCodedBitChannels))
			}
			ca.TimeCodedBitChannels = append(ca.TimeCodedBitChannels, c)
		case ChunkCompressedMotionChannel:
			c, err := readMotionChannel(sub)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read motion channel #%d", len(ca.MotionChannels))
			}
			ca.MotionChannels = append(ca.MotionChannels, c)
		default:
			log.Printf("[companim] Skipping unknown sub chunk %v at 0x%x", h, sub.Offset())
		}
	}

	if header == nil {
		return nil, &w3d.MalformedChunkError{Type: r.Owner(), Offset: r.Offset(), Reason: "compressed animation without header"}
	}
	ca.Header = *header

	for i, sub := range channels {
		switch ca.Header.Flavor {
		case FlavorTimeCoded:
			c, err := readTimeCodedAnimationChannel(sub)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read time coded channel #%d", i)
			}
			ca.TimeCodedChannels = append(ca.TimeCodedChannels, c)
		case FlavorAdaptiveDelta:
			c, err := readAdaptiveDeltaAnimationChannel(sub)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to read adaptive delta channel #%d", i)
			}
			ca.AdaptiveDeltaChannels = append(ca.AdaptiveDeltaChannels, c)
		default:
			return nil, sub.Malformed("channel of animation with unknown flavor %d", ca.Header.Flavor)
		}
	}
	return ca, nil
}

// Decode parses a whole COMPRESSED_ANIMATION chunk, header included
func Decode(data []byte) (*CompressedAnimation, error) {
	h, sub, err := w3d.NewReader(data).Next()
	if err != nil {
		return nil, err
	}
	if h.Type != ChunkCompressedAnimation {
		return nil, &w3d.MalformedChunkError{Type: h.Type, Reason: "not a compressed animation chunk"}
	}
	return Read(sub, nil)
}

// Size of the chunk payload, without own header
func (ca *CompressedAnimation) Size() uint32 {
	size := uint32(w3d.ChunkHeaderSize + HeaderSize)
	for _, c := range ca.TimeCodedChannels {
		size += w3d.ChunkHeaderSize + c.Size()
	}
	for _, c := range ca.AdaptiveDeltaChannels {
		size += w3d.ChunkHeaderSize + c.Size()
	}
	for _, c := range ca.TimeCodedBitChannels {
		size += w3d.ChunkHeaderSize + c.Size()
	}
	for _, c := range ca.MotionChannels {
		size += w3d.ChunkHeaderSize + c.Size()
	}
	return size
}

func (ca *CompressedAnimation) Validate() error {
	if err := ca.Header.validate(); err != nil {
		return err
	}
	if ca.Header.Flavor == FlavorTimeCoded && len(ca.AdaptiveDeltaChannels) != 0 {
		return w3d.Invariantf("time coded animation %q holds %d adaptive delta channels",
			ca.Header.Name, len(ca.AdaptiveDeltaChannels))
	}
	if ca.Header.Flavor == FlavorAdaptiveDelta && len(ca.TimeCodedChannels) != 0 {
		return w3d.Invariantf("adaptive delta animation %q holds %d time coded channels",
			ca.Header.Name, len(ca.TimeCodedChannels))
	}
	for i, c := range ca.TimeCodedChannels {
		if err := c.validate(); err != nil {
			return errors.Wrapf(err, "Time coded channel #%d", i)
		}
	}
	for i, c := range ca.AdaptiveDeltaChannels {
		if err := c.validate(); err != nil {
			return errors.Wrapf(err, "Adaptive delta channel #%d", i)
		}
	}
	for i, c := range ca.TimeCodedBitChannels {
		if err := c.validate(); err != nil {
			return errors.Wrapf(err, "Bit channel #%d", i)
		}
	}
	for i, c := range ca.MotionChannels {
		if err := c.validate(); err != nil {
			return errors.Wrapf(err, "Motion channel #%d", i)
		}
	}
	return nil
}

// Write emits the chunk in canonical order: header, time coded, adaptive
// delta, bit and motion channels.
func (ca *CompressedAnimation) Write(w *w3d.Writer) error {
	if err := ca.Validate(); err != nil {
		return w.Fail(err)
	}
	return w.Chunk(ChunkCompressedAnimation, ca.Size(), true, func(w *w3d.Writer) error {
		if err := ca.Header.write(w); err != nil {
			return err
		}
		for _, c := range ca.TimeCodedChannels {
			if err := c.Write(w); err != nil {
				return err
			}
		}
		for _, c := range ca.AdaptiveDeltaChannels {
			if err := c.Write(w); err != nil {
				return err
			}
		}
		for _, c := range ca.TimeCodedBitChannels {
			if err := c.Write(w); err != nil {
				return err
			}
		}
		for _, c := range ca.MotionChannels {
			if err := c.Write(w); err != nil {
				return err
			}
		}
		return nil
	})
}

func (ca *CompressedAnimation) Bytes() ([]byte, error) {
	w := w3d.NewWriter()
	if err := ca.Write(w); err != nil {
		return nil, errors.Wrapf(err, "Failed to encode animation %q", ca.Header.Name)
	}
	return w.Bytes(), nil
}
