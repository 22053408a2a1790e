package companim

import (
	"math"

	"github.com/mogaika/w3d_browser/w3d"
)

// CompressAdaptiveDelta quantizes a dense track, one value per frame.
// Scale is chosen so the largest frame to frame step fits the positive
// quantization range at filter 0. Every block then tries all filter entries
// and keeps the one with the smallest worst error of the reconstructed
// values, so error does not accumulate across blocks.
func CompressAdaptiveDelta(frames []w3d.Value, t w3d.ChannelType, bitCount uint8) (*AdaptiveDeltaData, float32, error) {
	if err := checkBitCount(bitCount); err != nil {
		return nil, 0, err
	}
	vecLen := t.VectorLen()
	if vecLen == 0 {
		return nil, 0, w3d.Invariantf("unknown channel type %d", uint8(t))
	}
	for i, v := range frames {
		if len(v) != vecLen {
			return nil, 0, w3d.Invariantf("frame %d value %v does not fit channel type %v", i, v, t)
		}
	}

	d := &AdaptiveDeltaData{BitCount: bitCount}
	if len(frames) == 0 {
		d.InitialValue = w3d.ZeroValue(t)
		return d, 1, nil
	}
	d.InitialValue = frames[0].Clone()

	scale := adaptiveDeltaScale(frames, bitCount)
	groups := BlockGroups(uint32(len(frames)))
	d.DeltaBlocks = make([]AdaptiveDeltaBlock, groups*vecLen)

	for lane := 0; lane < vecLen; lane++ {
		prev := frames[0][lane]
		for group := 0; group < groups; group++ {
			targets := make([]float32, 0, DeltaBlockFrames)
			for slot := 0; slot < DeltaBlockFrames; slot++ {
				f := group*DeltaBlockFrames + slot + 1
				if f >= len(frames) {
					break
				}
				targets = append(targets, frames[f][lane])
			}

			b := &d.DeltaBlocks[group*vecLen+lane]
			b.VectorIndex = uint8(lane)
			b.DeltaBytes = make(w3d.HexBytes, 2*int(bitCount))
			prev = encodeBlock(b, targets, prev, scale, bitCount)
		}
	}
	return d, scale, nil
}

func adaptiveDeltaScale(frames []w3d.Value, bitCount uint8) float32 {
	var maxStep float64
	for f := 1; f < len(frames); f++ {
		for lane := range frames[f] {
			if step := math.Abs(float64(frames[f][lane] - frames[f-1][lane])); step > maxStep {
				maxStep = step
			}
		}
	}
	if maxStep == 0 {
		return 1
	}
	qr := float64(quantRange(bitCount))
	return float32(maxStep * qr / (qr - 1))
}

func quantize(need float32, step float32, bitCount uint8) int8 {
	qr := float64(quantRange(bitCount))
	q := math.Floor(float64(need)/float64(step) + 0.5)
	if math.IsNaN(q) {
		return 0
	}
	if q < -qr {
		q = -qr
	} else if q > qr-1 {
		q = qr - 1
	}
	return int8(q)
}

// encodeBlock fills b with the best filter for targets starting from
// reconstructed value prev and returns the reconstructed value after the
// last target. Unused slots stay zero.
func encodeBlock(b *AdaptiveDeltaBlock, targets []float32, prev float32, scale float32, bitCount uint8) float32 {
	var qs, bestQs [DeltaBlockFrames]int8
	bestIndex, bestLast := 0, prev
	bestMax, bestSum := math.Inf(1), math.Inf(1)

	for index := 0; index < filterTableSize; index++ {
		step := deltaStep(scale, uint8(index), bitCount)
		cur := prev
		var maxErr, sumErr float64
		for i, target := range targets {
			qs[i] = quantize(target-cur, step, bitCount)
			cur = applyDelta(cur, qs[i], step)
			e := math.Abs(float64(target - cur))
			sumErr += e * e
			if e > maxErr {
				maxErr = e
			}
		}
		if maxErr < bestMax || (maxErr == bestMax && sumErr < bestSum) {
			bestIndex, bestLast = index, cur
			bestMax, bestSum = maxErr, sumErr
			bestQs = qs
		}
	}

	b.BlockIndex = uint8(bestIndex)
	for i := range targets {
		b.SetDelta(bitCount, i, bestQs[i])
	}
	return bestLast
}

// NewAdaptiveDeltaAnimationChannel compresses a dense track into a 4 bit channel
func NewAdaptiveDeltaAnimationChannel(pivot uint16, t w3d.ChannelType, frames []w3d.Value) (*AdaptiveDeltaAnimationChannel, error) {
	data, scale, err := CompressAdaptiveDelta(frames, t, adaptiveDeltaChannelBits)
	if err != nil {
		return nil, err
	}
	return &AdaptiveDeltaAnimationChannel{
		NumTimeCodes: uint32(len(frames)),
		Pivot:        pivot,
		VectorLen:    uint8(t.VectorLen()),
		Type:         t,
		Scale:        scale,
		Data:         *data,
	}, nil
}
