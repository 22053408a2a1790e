package companim

import (
	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/utils"
	"github.com/mogaika/w3d_browser/w3d"
)

// Track is a channel resampled to one value per animation frame
type Track struct {
	Pivot  uint16
	Type   w3d.ChannelType
	Frames []w3d.Value
	// all source keys were non interpolated
	Step bool
}

type VisibilityTrack struct {
	Pivot  uint16
	Frames []bool
}

func sampleTimeCoded(datums []TimeCodedDatum, t w3d.ChannelType, frame float32) w3d.Value {
	if len(datums) == 0 {
		return w3d.ZeroValue(t)
	}
	if frame <= float32(datums[0].TimeCode) {
		return datums[0].Value.Clone()
	}
	for i := 1; i < len(datums); i++ {
		next := &datums[i]
		if frame > float32(next.TimeCode) {
			continue
		}
		prev := &datums[i-1]
		if frame == float32(next.TimeCode) {
			return next.Value.Clone()
		}
		if prev.NonInterpolated || next.TimeCode <= prev.TimeCode {
			return prev.Value.Clone()
		}
		k := (frame - float32(prev.TimeCode)) / float32(next.TimeCode-prev.TimeCode)
		if t.IsQuaternion() {
			return w3d.QuatValue(utils.QuatLerpShortest(prev.Value.Quat(), next.Value.Quat(), k))
		}
		return w3d.ScalarValue(utils.Lerp(prev.Value.Scalar(), next.Value.Scalar(), k))
	}
	return datums[len(datums)-1].Value.Clone()
}

func allNonInterpolated(datums []TimeCodedDatum) bool {
	if len(datums) == 0 {
		return false
	}
	for _, d := range datums {
		if !d.NonInterpolated {
			return false
		}
	}
	return true
}

// Sample returns channel value at frame. Keys are interpolated linearly,
// quaternions by slerp, unless the earlier key is non interpolated.
func (c *TimeCodedAnimationChannel) Sample(frame float32) w3d.Value {
	return sampleTimeCoded(c.TimeCodes, c.Type, frame)
}

func denseTimeCoded(datums []TimeCodedDatum, t w3d.ChannelType, numFrames uint32) []w3d.Value {
	frames := make([]w3d.Value, numFrames)
	for f := range frames {
		frames[f] = sampleTimeCoded(datums, t, float32(f))
	}
	return frames
}

// stretch holds the last decoded value when a track is shorter than the clip
func stretch(values []w3d.Value, t w3d.ChannelType, numFrames uint32) []w3d.Value {
	frames := make([]w3d.Value, numFrames)
	last := w3d.ZeroValue(t)
	for f := range frames {
		if f < len(values) {
			last = values[f]
		}
		frames[f] = last.Clone()
	}
	return frames
}

func (c *MotionChannel) dense(numFrames uint32) ([]w3d.Value, error) {
	switch c.DeltaType {
	case MotionTimeCoded:
		datums, err := c.TimeCoded()
		if err != nil {
			return nil, err
		}
		return denseTimeCoded(datums, c.Type, numFrames), nil
	default:
		ad, err := c.AdaptiveDelta()
		if err != nil {
			return nil, err
		}
		values, err := ad.Data.Decompress(c.Type, ad.Scale, uint32(c.NumTimeCodes))
		if err != nil {
			return nil, err
		}
		return stretch(values, c.Type, numFrames), nil
	}
}

// Tracks resamples every channel to Header.NumFrames values
func (ca *CompressedAnimation) Tracks() ([]Track, []VisibilityTrack, error) {
	numFrames := ca.Header.NumFrames
	tracks := make([]Track, 0, len(ca.TimeCodedChannels)+len(ca.AdaptiveDeltaChannels)+len(ca.MotionChannels))

	for _, c := range ca.TimeCodedChannels {
		tracks = append(tracks, Track{
			Pivot:  c.Pivot,
			Type:   c.Type,
			Frames: denseTimeCoded(c.TimeCodes, c.Type, numFrames),
			Step:   allNonInterpolated(c.TimeCodes),
		})
	}
	for i, c := range ca.AdaptiveDeltaChannels {
		values, err := c.Decompress()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Adaptive delta channel #%d", i)
		}
		tracks = append(tracks, Track{Pivot: c.Pivot, Type: c.Type, Frames: stretch(values, c.Type, numFrames)})
	}
	for i, c := range ca.MotionChannels {
		frames, err := c.dense(numFrames)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Motion channel #%d", i)
		}
		t := Track{Pivot: c.Pivot, Type: c.Type, Frames: frames}
		if datums, err := c.TimeCoded(); err == nil {
			t.Step = allNonInterpolated(datums)
		}
		tracks = append(tracks, t)
	}

	visibility := make([]VisibilityTrack, 0, len(ca.TimeCodedBitChannels))
	for _, c := range ca.TimeCodedBitChannels {
		vt := VisibilityTrack{Pivot: c.Pivot, Frames: make([]bool, numFrames)}
		for f := range vt.Frames {
			vt.Frames[f] = c.Sample(uint32(f))
		}
		visibility = append(visibility, vt)
	}
	return tracks, visibility, nil
}
