package companim

import (
	"fmt"
	"log"

	"github.com/mogaika/w3d_browser/w3d"
)

type BitChannelType uint8

const (
	BitChannelVisibility BitChannelType = iota
	BitChannelTimeCodedVisibility
)

func (t BitChannelType) String() string {
	switch t {
	case BitChannelVisibility:
		return "visibility"
	case BitChannelTimeCodedVisibility:
		return "timecoded_visibility"
	default:
		return fmt.Sprintf("BitChannelType(%d)", uint8(t))
	}
}

type TimeCodedBitDatum struct {
	TimeCode uint32 `yaml:"time_code"`
	Value    bool   `yaml:"value"`
}

type TimeCodedBitChannel struct {
	NumTimeCodes uint32         `yaml:"num_time_codes"`
	Pivot        uint16         `yaml:"pivot"`
	Type         BitChannelType `yaml:"type"`
	// stored as a byte, exporters write values other than 0 and 1
	DefaultValue uint8               `yaml:"default_value"`
	Data         []TimeCodedBitDatum `yaml:"data"`
}

func (c *TimeCodedBitChannel) Size() uint32 {
	return 8 + 4*uint32(len(c.Data))
}

// Sample returns the value listed for frame, or the channel default
func (c *TimeCodedBitChannel) Sample(frame uint32) bool {
	for _, d := range c.Data {
		if d.TimeCode == frame {
			return d.Value
		}
	}
	return c.DefaultValue != 0
}

func readTimeCodedBitChannel(r *w3d.Reader) (*TimeCodedBitChannel, error) {
	c := &TimeCodedBitChannel{
		NumTimeCodes: r.U32(),
		Pivot:        r.U16(),
		Type:         BitChannelType(r.U8()),
		DefaultValue: r.U8(),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	c.Data = make([]TimeCodedBitDatum, 0, minCount(c.NumTimeCodes, r.Remaining(), 4))
	for i := uint32(0); i < c.NumTimeCodes && r.Remaining() > 0; i++ {
		combined := r.U32()
		if err := r.Err(); err != nil {
			return nil, err
		}
		c.Data = append(c.Data, TimeCodedBitDatum{
			TimeCode: combined & timeCodeMask,
			Value:    combined&timeCodeFlag != 0,
		})
	}
	if r.Remaining() != 0 {
		log.Printf("[companim] Bit channel (pivot %d) has %d bytes after %d declared time codes",
			c.Pivot, r.Remaining(), c.NumTimeCodes)
	}
	return c, nil
}

func (c *TimeCodedBitChannel) validate() error {
	for i, d := range c.Data {
		if d.TimeCode&timeCodeFlag != 0 {
			return w3d.Invariantf("bit channel (pivot %d) datum %d time code 0x%x does not fit 31 bits",
				c.Pivot, i, d.TimeCode)
		}
	}
	return nil
}

func (c *TimeCodedBitChannel) Write(w *w3d.Writer) error {
	if err := c.validate(); err != nil {
		return w.Fail(err)
	}
	return w.Chunk(ChunkCompressedBitChannel, c.Size(), false, func(w *w3d.Writer) error {
		w.U32(c.NumTimeCodes)
		w.U16(c.Pivot)
		w.U8(uint8(c.Type))
		w.U8(c.DefaultValue)
		for _, d := range c.Data {
			combined := d.TimeCode
			if d.Value {
				combined |= timeCodeFlag
			}
			w.U32(combined)
		}
		return nil
	})
}
