package companim

import (
	"log"

	"github.com/mogaika/w3d_browser/w3d"
)

// Top bit of a 32 bit time code field. Time coded datums keep the
// "non interpolated" flag there, bit channel datums keep their value.
const (
	timeCodeFlag = 0x80000000
	timeCodeMask = 0x7fffffff
)

type TimeCodedDatum struct {
	TimeCode        uint32    `yaml:"time_code"`
	NonInterpolated bool      `yaml:"non_interpolated"`
	Value           w3d.Value `yaml:"value"`
}

func datumSize(t w3d.ChannelType) uint32 {
	return 4 + 4*uint32(t.VectorLen())
}

func readTimeCodedDatum(r *w3d.Reader, t w3d.ChannelType) TimeCodedDatum {
	combined := r.U32()
	return TimeCodedDatum{
		TimeCode:        combined & timeCodeMask,
		NonInterpolated: combined&timeCodeFlag != 0,
		Value:           r.Value(t),
	}
}

func (d *TimeCodedDatum) write(w *w3d.Writer, t w3d.ChannelType) {
	if d.TimeCode&timeCodeFlag != 0 {
		w.Fail(w3d.Invariantf("time code 0x%x does not fit 31 bits", d.TimeCode))
		return
	}
	combined := d.TimeCode
	if d.NonInterpolated {
		combined |= timeCodeFlag
	}
	w.U32(combined)
	w.Value(t, d.Value)
}

// readTimeCodedData reads up to count datums, stopping early when the
// payload is exhausted. Declared counts are not reliable in exported files.
func readTimeCodedData(r *w3d.Reader, t w3d.ChannelType, count uint32) []TimeCodedDatum {
	datums := make([]TimeCodedDatum, 0, minCount(count, r.Remaining(), datumSize(t)))
	for i := uint32(0); i < count && r.Remaining() > 0; i++ {
		d := readTimeCodedDatum(r, t)
		if r.Err() != nil {
			return nil
		}
		datums = append(datums, d)
	}
	return datums
}

func minCount(declared uint32, remaining int, itemSize uint32) int {
	fit := uint32(remaining) / itemSize
	if declared < fit {
		return int(declared)
	}
	return int(fit)
}

type TimeCodedAnimationChannel struct {
	NumTimeCodes uint32           `yaml:"num_time_codes"`
	Pivot        uint16           `yaml:"pivot"`
	VectorLen    uint8            `yaml:"vector_len"`
	Type         w3d.ChannelType  `yaml:"type"`
	TimeCodes    []TimeCodedDatum `yaml:"time_codes"`
}

func (c *TimeCodedAnimationChannel) Size() uint32 {
	return 8 + uint32(len(c.TimeCodes))*datumSize(c.Type)
}

func readTimeCodedAnimationChannel(r *w3d.Reader) (*TimeCodedAnimationChannel, error) {
	c := &TimeCodedAnimationChannel{
		NumTimeCodes: r.U32(),
		Pivot:        r.U16(),
		VectorLen:    r.U8(),
		Type:         w3d.ChannelType(r.U8()),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := w3d.CheckVectorLen(c.Type, c.VectorLen); err != nil {
		return nil, r.Malformed("%v", err)
	}

	c.TimeCodes = readTimeCodedData(r, c.Type, c.NumTimeCodes)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		log.Printf("[companim] Time coded channel (pivot %d, %v) has %d bytes after %d declared time codes",
			c.Pivot, c.Type, r.Remaining(), c.NumTimeCodes)
	}
	return c, nil
}

func (c *TimeCodedAnimationChannel) validate() error {
	if err := w3d.CheckVectorLen(c.Type, c.VectorLen); err != nil {
		return err
	}
	for i := range c.TimeCodes {
		if len(c.TimeCodes[i].Value) != int(c.VectorLen) {
			return w3d.Invariantf("time coded channel (pivot %d) datum %d has %d components, expected %d",
				c.Pivot, i, len(c.TimeCodes[i].Value), c.VectorLen)
		}
	}
	return nil
}

func (c *TimeCodedAnimationChannel) Write(w *w3d.Writer) error {
	if err := c.validate(); err != nil {
		return w.Fail(err)
	}
	return w.Chunk(ChunkCompressedAnimationChannel, c.Size(), false, func(w *w3d.Writer) error {
		w.U32(c.NumTimeCodes)
		w.U16(c.Pivot)
		w.U8(c.VectorLen)
		w.U8(uint8(c.Type))
		for i := range c.TimeCodes {
			c.TimeCodes[i].write(w, c.Type)
		}
		return w.Err()
	})
}
