package companim

import (
	"fmt"
	"log"

	"github.com/mogaika/w3d_browser/w3d"
)

type MotionDeltaType uint8

const (
	MotionTimeCoded MotionDeltaType = iota
	MotionAdaptiveDelta4
	MotionAdaptiveDelta8
)

const motionChannelHeaderSize = 8

func (dt MotionDeltaType) Valid() bool {
	return dt <= MotionAdaptiveDelta8
}

// BitCount of adaptive delta variants, 0 for time coded
func (dt MotionDeltaType) BitCount() uint8 {
	switch dt {
	case MotionAdaptiveDelta4:
		return 4
	case MotionAdaptiveDelta8:
		return 8
	default:
		return 0
	}
}

func (dt MotionDeltaType) String() string {
	switch dt {
	case MotionTimeCoded:
		return "timecoded"
	case MotionAdaptiveDelta4:
		return "adaptivedelta4"
	case MotionAdaptiveDelta8:
		return "adaptivedelta8"
	default:
		return fmt.Sprintf("MotionDeltaType(%d)", uint8(dt))
	}
}

// MotionData is one of *MotionTimeCodedData, *AdaptiveDeltaMotionAnimationChannel
type MotionData interface {
	isMotionData()
	size(t w3d.ChannelType) uint32
}

// MotionTimeCodedData is a bare datum list, no channel header is repeated
type MotionTimeCodedData struct {
	TimeCodes []TimeCodedDatum `yaml:"time_codes"`
}

func (*MotionTimeCodedData) isMotionData() {}

func (d *MotionTimeCodedData) size(t w3d.ChannelType) uint32 {
	return uint32(len(d.TimeCodes)) * datumSize(t)
}

type AdaptiveDeltaMotionAnimationChannel struct {
	Scale float32           `yaml:"scale"`
	Data  AdaptiveDeltaData `yaml:"data"`
}

func (*AdaptiveDeltaMotionAnimationChannel) isMotionData() {}

func (c *AdaptiveDeltaMotionAnimationChannel) size(t w3d.ChannelType) uint32 {
	return 4 + c.Data.Size(t)
}

type MotionChannel struct {
	DeltaType    MotionDeltaType `yaml:"delta_type"`
	VectorLen    uint8           `yaml:"vector_len"`
	Type         w3d.ChannelType `yaml:"type"`
	NumTimeCodes uint16          `yaml:"num_time_codes"`
	Pivot        uint16          `yaml:"pivot"`
	Data         MotionData      `yaml:"-"`
}

func (c *MotionChannel) Size() uint32 {
	if c.Data == nil {
		return motionChannelHeaderSize
	}
	return motionChannelHeaderSize + c.Data.size(c.Type)
}

func (c *MotionChannel) TimeCoded() ([]TimeCodedDatum, error) {
	d, ok := c.Data.(*MotionTimeCodedData)
	if c.DeltaType != MotionTimeCoded || !ok {
		return nil, &w3d.InvalidVariantError{DeltaType: uint8(c.DeltaType), Want: "time coded"}
	}
	return d.TimeCodes, nil
}

func (c *MotionChannel) AdaptiveDelta() (*AdaptiveDeltaMotionAnimationChannel, error) {
	d, ok := c.Data.(*AdaptiveDeltaMotionAnimationChannel)
	if c.DeltaType.BitCount() == 0 || !ok {
		return nil, &w3d.InvalidVariantError{DeltaType: uint8(c.DeltaType), Want: "adaptive delta"}
	}
	return d, nil
}

func readMotionChannelHeader(r *w3d.Reader) (*MotionChannel, error) {
	if reserved := r.U8(); reserved != 0 && r.Err() == nil {
		log.Printf("[companim] Motion channel reserved byte is 0x%x", reserved)
	}
	c := &MotionChannel{
		DeltaType:    MotionDeltaType(r.U8()),
		VectorLen:    r.U8(),
		Type:         w3d.ChannelType(r.U8()),
		NumTimeCodes: r.U16(),
		Pivot:        r.U16(),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !c.DeltaType.Valid() {
		return nil, &w3d.InvalidVariantError{DeltaType: uint8(c.DeltaType)}
	}
	if err := w3d.CheckVectorLen(c.Type, c.VectorLen); err != nil {
		return nil, r.Malformed("%v", err)
	}
	return c, nil
}

func readMotionChannel(r *w3d.Reader) (*MotionChannel, error) {
	c, err := readMotionChannelHeader(r)
	if err != nil {
		return nil, err
	}

	switch c.DeltaType {
	case MotionTimeCoded:
		d := &MotionTimeCodedData{TimeCodes: readTimeCodedData(r, c.Type, uint32(c.NumTimeCodes))}
		if err := r.Err(); err != nil {
			return nil, err
		}
		c.Data = d
	case MotionAdaptiveDelta4, MotionAdaptiveDelta8:
		d := &AdaptiveDeltaMotionAnimationChannel{Scale: r.F32()}
		if err := r.Err(); err != nil {
			return nil, err
		}
		data, err := readAdaptiveDeltaData(r, c.Type, uint32(c.NumTimeCodes), c.DeltaType.BitCount())
		if err != nil {
			return nil, err
		}
		d.Data = *data
		c.Data = d
	}

	if r.Remaining() != 0 {
		log.Printf("[companim] Motion channel (pivot %d, %v) has %d unparsed bytes",
			c.Pivot, c.DeltaType, r.Remaining())
	}
	return c, nil
}

// ReadMotionTimeCodedData decodes a motion channel payload that must hold
// the time coded layout.
func ReadMotionTimeCodedData(r *w3d.Reader) ([]TimeCodedDatum, error) {
	c, err := readMotionChannelHeader(r)
	if err != nil {
		return nil, err
	}
	if c.DeltaType != MotionTimeCoded {
		return nil, &w3d.InvalidVariantError{DeltaType: uint8(c.DeltaType), Want: "time coded"}
	}
	datums := readTimeCodedData(r, c.Type, uint32(c.NumTimeCodes))
	if err := r.Err(); err != nil {
		return nil, err
	}
	return datums, nil
}

func (c *MotionChannel) validate() error {
	if err := w3d.CheckVectorLen(c.Type, c.VectorLen); err != nil {
		return err
	}
	switch c.DeltaType {
	case MotionTimeCoded:
		datums, err := c.TimeCoded()
		if err != nil {
			return err
		}
		tc := TimeCodedAnimationChannel{Pivot: c.Pivot, VectorLen: c.VectorLen, Type: c.Type, TimeCodes: datums}
		return tc.validate()
	case MotionAdaptiveDelta4, MotionAdaptiveDelta8:
		ad, err := c.AdaptiveDelta()
		if err != nil {
			return err
		}
		if ad.Data.BitCount != c.DeltaType.BitCount() {
			return &w3d.InvalidVariantError{DeltaType: uint8(c.DeltaType),
				Want: fmt.Sprintf("%d bit adaptive delta", ad.Data.BitCount)}
		}
		return ad.Data.validate(c.Type, uint32(c.NumTimeCodes))
	default:
		return &w3d.InvalidVariantError{DeltaType: uint8(c.DeltaType)}
	}
}

func (c *MotionChannel) Write(w *w3d.Writer) error {
	if err := c.validate(); err != nil {
		return w.Fail(err)
	}
	return w.Chunk(ChunkCompressedMotionChannel, c.Size(), false, func(w *w3d.Writer) error {
		w.U8(0)
		w.U8(uint8(c.DeltaType))
		w.U8(c.VectorLen)
		w.U8(uint8(c.Type))
		w.U16(c.NumTimeCodes)
		w.U16(c.Pivot)

		switch d := c.Data.(type) {
		case *MotionTimeCodedData:
			for i := range d.TimeCodes {
				d.TimeCodes[i].write(w, c.Type)
			}
		case *AdaptiveDeltaMotionAnimationChannel:
			w.F32(d.Scale)
			d.Data.write(w, c.Type)
		}
		return nil
	})
}
