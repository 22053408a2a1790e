package companim

import (
	"bytes"
	"testing"

	"github.com/mogaika/w3d_browser/utils"
	"github.com/mogaika/w3d_browser/w3d"
)

func testValue(t w3d.ChannelType) w3d.Value {
	if t.IsQuaternion() {
		return w3d.Value{0.1, -2.0, -0.3, 2.0}
	}
	return w3d.ScalarValue(3.14)
}

func testTimeCodedChannel(t w3d.ChannelType, count int) *TimeCodedAnimationChannel {
	c := &TimeCodedAnimationChannel{
		NumTimeCodes: uint32(count),
		Pivot:        7,
		VectorLen:    uint8(t.VectorLen()),
		Type:         t,
	}
	for i := 0; i < count; i++ {
		c.TimeCodes = append(c.TimeCodes, TimeCodedDatum{
			TimeCode:        uint32(i * 4),
			NonInterpolated: i%3 == 2,
			Value:           testValue(t),
		})
	}
	return c
}

func testAdaptiveDeltaData(t w3d.ChannelType, bitCount uint8, numTimeCodes uint32) AdaptiveDeltaData {
	d := AdaptiveDeltaData{BitCount: bitCount}
	if t.IsQuaternion() {
		d.InitialValue = w3d.Value{3.14, 2.0, -1.0, 0.1}
	} else {
		d.InitialValue = w3d.ScalarValue(-3.14)
	}
	vecLen := t.VectorLen()
	for g := 0; g < BlockGroups(numTimeCodes); g++ {
		for lane := 0; lane < vecLen; lane++ {
			d.DeltaBlocks = append(d.DeltaBlocks, AdaptiveDeltaBlock{
				VectorIndex: uint8(lane),
				BlockIndex:  3,
				DeltaBytes:  make(w3d.HexBytes, 2*int(bitCount)),
			})
		}
	}
	return d
}

func testAdaptiveDeltaChannel(t w3d.ChannelType, numTimeCodes uint32) *AdaptiveDeltaAnimationChannel {
	return &AdaptiveDeltaAnimationChannel{
		NumTimeCodes: numTimeCodes,
		Pivot:        3,
		VectorLen:    uint8(t.VectorLen()),
		Type:         t,
		Scale:        4,
		Data:         testAdaptiveDeltaData(t, 4, numTimeCodes),
	}
}

func testBitChannel() *TimeCodedBitChannel {
	return &TimeCodedBitChannel{
		NumTimeCodes: 3,
		Pivot:        2,
		Type:         BitChannelTimeCodedVisibility,
		DefaultValue: 12,
		Data: []TimeCodedBitDatum{
			{TimeCode: 0, Value: true},
			{TimeCode: 5, Value: false},
			{TimeCode: 0x7fffffff, Value: true},
		},
	}
}

func testMotionChannel(t w3d.ChannelType, deltaType MotionDeltaType, numTimeCodes uint16) *MotionChannel {
	c := &MotionChannel{
		DeltaType:    deltaType,
		VectorLen:    uint8(t.VectorLen()),
		Type:         t,
		NumTimeCodes: numTimeCodes,
		Pivot:        3,
	}
	if deltaType == MotionTimeCoded {
		d := &MotionTimeCodedData{}
		for i := 0; i < int(numTimeCodes); i++ {
			d.TimeCodes = append(d.TimeCodes, TimeCodedDatum{TimeCode: uint32(i), Value: testValue(t)})
		}
		c.Data = d
	} else {
		c.Data = &AdaptiveDeltaMotionAnimationChannel{
			Scale: 4,
			Data:  testAdaptiveDeltaData(t, deltaType.BitCount(), uint32(numTimeCodes)),
		}
	}
	return c
}

func testAnimation(flavor Flavor) *CompressedAnimation {
	ca := New("testanimation", "testhierarchy", 155, 300, flavor)
	switch flavor {
	case FlavorTimeCoded:
		for _, t := range []w3d.ChannelType{w3d.ChannelX, w3d.ChannelY, w3d.ChannelZ, w3d.ChannelQ} {
			ca.TimeCodedChannels = append(ca.TimeCodedChannels, testTimeCodedChannel(t, 5))
		}
	case FlavorAdaptiveDelta:
		for _, t := range []w3d.ChannelType{w3d.ChannelX, w3d.ChannelQ} {
			ca.AdaptiveDeltaChannels = append(ca.AdaptiveDeltaChannels, testAdaptiveDeltaChannel(t, 33))
		}
	}
	ca.TimeCodedBitChannels = append(ca.TimeCodedBitChannels, testBitChannel())
	ca.MotionChannels = append(ca.MotionChannels,
		testMotionChannel(w3d.ChannelZ, MotionTimeCoded, 55),
		testMotionChannel(w3d.ChannelQ, MotionAdaptiveDelta4, 55),
		testMotionChannel(w3d.ChannelX, MotionAdaptiveDelta8, 55))
	return ca
}

type chunkWriter interface {
	Write(w *w3d.Writer) error
	Size() uint32
}

// encodeChunk writes c and returns the payload reader of the single chunk
func encodeChunk(t *testing.T, c chunkWriter) (w3d.ChunkHeader, *w3d.Reader, []byte) {
	t.Helper()
	w := w3d.NewWriter()
	if err := c.Write(w); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := len(w.Bytes()); got != w3d.ChunkHeaderSize+int(c.Size()) {
		t.Fatalf("encoded %d bytes, Size() reports %d", got, c.Size())
	}
	data := append([]byte(nil), w.Bytes()...)
	h, sub, err := w3d.NewReader(data).Next()
	if err != nil {
		t.Fatalf("reading back chunk: %v", err)
	}
	return h, sub, data
}

func reencode(t *testing.T, c chunkWriter, original []byte) {
	t.Helper()
	w := w3d.NewWriter()
	if err := c.Write(w); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), original) {
		t.Errorf("re-encoded bytes differ from original\n%s", utils.SDump(c))
	}
}

func checkDatums(t *testing.T, expected, actual []TimeCodedDatum) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("%d datums, expected %d", len(actual), len(expected))
	}
	for i := range expected {
		e, a := &expected[i], &actual[i]
		if e.TimeCode != a.TimeCode || e.NonInterpolated != a.NonInterpolated || !e.Value.Equal(a.Value) {
			t.Errorf("datum %d: %+v, expected %+v", i, *a, *e)
		}
	}
}

func checkAdaptiveDeltaData(t *testing.T, ct w3d.ChannelType, expected, actual *AdaptiveDeltaData) {
	t.Helper()
	if expected.Size(ct) != actual.Size(ct) || expected.BitCount != actual.BitCount {
		t.Errorf("size/bit count %d/%d, expected %d/%d",
			actual.Size(ct), actual.BitCount, expected.Size(ct), expected.BitCount)
	}
	if !expected.InitialValue.ApproxEqual(actual.InitialValue, 1e-5) {
		t.Errorf("initial value %v, expected %v", actual.InitialValue, expected.InitialValue)
	}
	if len(expected.DeltaBlocks) != len(actual.DeltaBlocks) {
		t.Fatalf("%d delta blocks, expected %d", len(actual.DeltaBlocks), len(expected.DeltaBlocks))
	}
	for i := range expected.DeltaBlocks {
		e, a := &expected.DeltaBlocks[i], &actual.DeltaBlocks[i]
		if e.VectorIndex != a.VectorIndex || e.BlockIndex != a.BlockIndex || !bytes.Equal(e.DeltaBytes, a.DeltaBytes) {
			t.Errorf("block %d: %+v, expected %+v", i, *a, *e)
		}
	}
}
