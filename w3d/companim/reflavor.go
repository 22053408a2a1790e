package companim

import (
	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/w3d"
)

func cloneDatums(datums []TimeCodedDatum) []TimeCodedDatum {
	if datums == nil {
		return nil
	}
	c := make([]TimeCodedDatum, len(datums))
	for i, d := range datums {
		d.Value = d.Value.Clone()
		c[i] = d
	}
	return c
}

func (c *TimeCodedAnimationChannel) Clone() *TimeCodedAnimationChannel {
	n := *c
	n.TimeCodes = cloneDatums(c.TimeCodes)
	return &n
}

func (c *AdaptiveDeltaAnimationChannel) Clone() *AdaptiveDeltaAnimationChannel {
	n := *c
	n.Data = c.Data.Clone()
	return &n
}

func (c *TimeCodedBitChannel) Clone() *TimeCodedBitChannel {
	n := *c
	n.Data = append([]TimeCodedBitDatum(nil), c.Data...)
	return &n
}

func (c *MotionChannel) Clone() *MotionChannel {
	n := *c
	switch d := c.Data.(type) {
	case *MotionTimeCodedData:
		n.Data = &MotionTimeCodedData{TimeCodes: cloneDatums(d.TimeCodes)}
	case *AdaptiveDeltaMotionAnimationChannel:
		n.Data = &AdaptiveDeltaMotionAnimationChannel{Scale: d.Scale, Data: d.Data.Clone()}
	}
	return &n
}

func (ca *CompressedAnimation) Clone() *CompressedAnimation {
	n := &CompressedAnimation{Header: ca.Header}
	for _, c := range ca.TimeCodedChannels {
		n.TimeCodedChannels = append(n.TimeCodedChannels, c.Clone())
	}
	for _, c := range ca.AdaptiveDeltaChannels {
		n.AdaptiveDeltaChannels = append(n.AdaptiveDeltaChannels, c.Clone())
	}
	for _, c := range ca.TimeCodedBitChannels {
		n.TimeCodedBitChannels = append(n.TimeCodedBitChannels, c.Clone())
	}
	for _, c := range ca.MotionChannels {
		n.MotionChannels = append(n.MotionChannels, c.Clone())
	}
	return n
}

// NewTimeCodedAnimationChannel keys every frame of a dense track
func NewTimeCodedAnimationChannel(pivot uint16, t w3d.ChannelType, frames []w3d.Value) *TimeCodedAnimationChannel {
	c := &TimeCodedAnimationChannel{
		NumTimeCodes: uint32(len(frames)),
		Pivot:        pivot,
		VectorLen:    uint8(t.VectorLen()),
		Type:         t,
		TimeCodes:    make([]TimeCodedDatum, len(frames)),
	}
	for f, v := range frames {
		c.TimeCodes[f] = TimeCodedDatum{TimeCode: uint32(f), Value: v.Clone()}
	}
	return c
}

// Reflavor returns a copy of the animation with 0x282 channels rebuilt for
// flavor. Bit and motion channels are copied as is.
func (ca *CompressedAnimation) Reflavor(flavor Flavor) (*CompressedAnimation, error) {
	if flavor != FlavorTimeCoded && flavor != FlavorAdaptiveDelta {
		return nil, w3d.Invariantf("unknown flavor %d", flavor)
	}
	if flavor == ca.Header.Flavor {
		return ca.Clone(), nil
	}

	tracks, err := ca.channelTracks()
	if err != nil {
		return nil, err
	}

	n := &CompressedAnimation{Header: ca.Header}
	n.Header.Flavor = flavor
	for _, c := range ca.TimeCodedBitChannels {
		n.TimeCodedBitChannels = append(n.TimeCodedBitChannels, c.Clone())
	}
	for _, c := range ca.MotionChannels {
		n.MotionChannels = append(n.MotionChannels, c.Clone())
	}

	for i, t := range tracks {
		switch flavor {
		case FlavorTimeCoded:
			c := NewTimeCodedAnimationChannel(t.Pivot, t.Type, t.Frames)
			if t.Step {
				for j := range c.TimeCodes {
					c.TimeCodes[j].NonInterpolated = true
				}
			}
			n.TimeCodedChannels = append(n.TimeCodedChannels, c)
		case FlavorAdaptiveDelta:
			c, err := NewAdaptiveDeltaAnimationChannel(t.Pivot, t.Type, t.Frames)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to compress channel #%d", i)
			}
			n.AdaptiveDeltaChannels = append(n.AdaptiveDeltaChannels, c)
		}
	}
	return n, nil
}

// channelTracks resamples only 0x282 channels
func (ca *CompressedAnimation) channelTracks() ([]Track, error) {
	onlyChannels := &CompressedAnimation{
		Header:                ca.Header,
		TimeCodedChannels:     ca.TimeCodedChannels,
		AdaptiveDeltaChannels: ca.AdaptiveDeltaChannels,
	}
	tracks, _, err := onlyChannels.Tracks()
	return tracks, err
}
