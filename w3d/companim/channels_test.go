package companim

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/w3d"
)

func TestTimeCodedChannelRoundtrip(t *testing.T) {
	for _, test := range []struct {
		name string
		c    *TimeCodedAnimationChannel
	}{
		{"x", testTimeCodedChannel(w3d.ChannelX, 5)},
		{"y", testTimeCodedChannel(w3d.ChannelY, 5)},
		{"zr", testTimeCodedChannel(w3d.ChannelZR, 17)},
		{"quaternion", testTimeCodedChannel(w3d.ChannelQ, 5)},
		{"minimal", testTimeCodedChannel(w3d.ChannelZ, 1)},
		{"empty", testTimeCodedChannel(w3d.ChannelQ, 0)},
	} {
		t.Run(test.name, func(t *testing.T) {
			h, sub, data := encodeChunk(t, test.c)
			if h.Type != ChunkCompressedAnimationChannel || h.Container {
				t.Errorf("unexpected header %v", h)
			}
			c, err := readTimeCodedAnimationChannel(sub)
			if err != nil {
				t.Fatal(err)
			}
			if c.NumTimeCodes != test.c.NumTimeCodes || c.Pivot != test.c.Pivot ||
				c.VectorLen != test.c.VectorLen || c.Type != test.c.Type {
				t.Errorf("channel header %+v, expected %+v", c, test.c)
			}
			checkDatums(t, test.c.TimeCodes, c.TimeCodes)
			reencode(t, c, data)
		})
	}
}

func TestTimeCodedFlagBoundary(t *testing.T) {
	c := &TimeCodedAnimationChannel{
		NumTimeCodes: 1,
		VectorLen:    1,
		Type:         w3d.ChannelX,
		TimeCodes:    []TimeCodedDatum{{TimeCode: 0x7fffffff, NonInterpolated: true, Value: w3d.ScalarValue(1)}},
	}
	_, sub, _ := encodeChunk(t, c)
	got, err := readTimeCodedAnimationChannel(sub)
	if err != nil {
		t.Fatal(err)
	}
	if d := got.TimeCodes[0]; d.TimeCode != 0x7fffffff || !d.NonInterpolated {
		t.Errorf("decoded %+v", d)
	}

	c.TimeCodes[0].TimeCode = 0x80000000
	var ie *w3d.InvariantViolationError
	if err := c.Write(w3d.NewWriter()); !errors.As(err, &ie) {
		t.Errorf("expected InvariantViolationError for 32 bit time code, got %v", err)
	}
}

func TestTimeCodedChannelVectorLenMismatch(t *testing.T) {
	c := testTimeCodedChannel(w3d.ChannelQ, 2)
	c.VectorLen = 1
	var ie *w3d.InvariantViolationError
	if err := c.Write(w3d.NewWriter()); !errors.As(err, &ie) {
		t.Errorf("expected InvariantViolationError on write, got %v", err)
	}

	// vector length byte patched in the encoded payload
	_, _, data := encodeChunk(t, testTimeCodedChannel(w3d.ChannelQ, 2))
	data[w3d.ChunkHeaderSize+6] = 1
	_, sub, err := w3d.NewReader(data).Next()
	if err != nil {
		t.Fatal(err)
	}
	var me *w3d.MalformedChunkError
	if _, err := readTimeCodedAnimationChannel(sub); !errors.As(err, &me) {
		t.Errorf("expected MalformedChunkError on read, got %v", err)
	}
}

func TestTimeCodedSample(t *testing.T) {
	c := &TimeCodedAnimationChannel{
		VectorLen: 1,
		Type:      w3d.ChannelX,
		TimeCodes: []TimeCodedDatum{
			{TimeCode: 2, Value: w3d.ScalarValue(0)},
			{TimeCode: 6, Value: w3d.ScalarValue(4), NonInterpolated: true},
			{TimeCode: 10, Value: w3d.ScalarValue(-4)},
		},
	}
	for frame, want := range map[float32]float32{
		0: 0, 2: 0, 3: 1, 5: 3, 6: 4, 8: 4, 10: -4, 30: -4,
	} {
		if got := c.Sample(frame).Scalar(); got != want {
			t.Errorf("Sample(%v)=%v; expected %v", frame, got, want)
		}
	}
}

func TestBitChannelRoundtrip(t *testing.T) {
	for _, test := range []struct {
		name string
		c    *TimeCodedBitChannel
	}{
		{"fixture", testBitChannel()},
		{"empty", &TimeCodedBitChannel{NumTimeCodes: 0, Pivot: 1}},
		{"declared but empty", &TimeCodedBitChannel{NumTimeCodes: 4, Pivot: 1, DefaultValue: 1}},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, sub, data := encodeChunk(t, test.c)
			c, err := readTimeCodedBitChannel(sub)
			if err != nil {
				t.Fatal(err)
			}
			if c.NumTimeCodes != test.c.NumTimeCodes || c.Pivot != test.c.Pivot ||
				c.Type != test.c.Type || c.DefaultValue != test.c.DefaultValue {
				t.Errorf("bit channel %+v, expected %+v", c, test.c)
			}
			if len(c.Data) != len(test.c.Data) {
				t.Fatalf("%d datums, expected %d", len(c.Data), len(test.c.Data))
			}
			for i := range c.Data {
				if c.Data[i] != test.c.Data[i] {
					t.Errorf("datum %d %+v, expected %+v", i, c.Data[i], test.c.Data[i])
				}
			}
			reencode(t, c, data)
		})
	}
}

func TestBitChannelDefault(t *testing.T) {
	c := testBitChannel()
	for frame, want := range map[uint32]bool{0: true, 5: false, 1: true, 100: true, 0x7fffffff: true} {
		if got := c.Sample(frame); got != want {
			t.Errorf("Sample(%d)=%v; expected %v", frame, got, want)
		}
	}
	c.DefaultValue = 0
	if c.Sample(1) {
		t.Errorf("absent frame should sample default false")
	}
}

func TestAdaptiveDeltaChannelRoundtrip(t *testing.T) {
	for _, test := range []struct {
		name string
		c    *AdaptiveDeltaAnimationChannel
	}{
		{"scalar", testAdaptiveDeltaChannel(w3d.ChannelX, 5)},
		{"quaternion", testAdaptiveDeltaChannel(w3d.ChannelQ, 5)},
		{"minimal", testAdaptiveDeltaChannel(w3d.ChannelZ, 5)},
		{"many groups", testAdaptiveDeltaChannel(w3d.ChannelQ, 33)},
		{"empty", testAdaptiveDeltaChannel(w3d.ChannelY, 0)},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, sub, data := encodeChunk(t, test.c)
			c, err := readAdaptiveDeltaAnimationChannel(sub)
			if err != nil {
				t.Fatal(err)
			}
			if c.NumTimeCodes != test.c.NumTimeCodes || c.Pivot != test.c.Pivot ||
				c.VectorLen != test.c.VectorLen || c.Type != test.c.Type || c.Scale != test.c.Scale {
				t.Errorf("channel header %+v, expected %+v", c, test.c)
			}
			checkAdaptiveDeltaData(t, c.Type, &test.c.Data, &c.Data)
			reencode(t, c, data)
		})
	}
}

func TestAdaptiveDeltaSizeFormula(t *testing.T) {
	for _, bitCount := range []uint8{4, 8} {
		for _, ct := range []w3d.ChannelType{w3d.ChannelX, w3d.ChannelQ} {
			for _, n := range []uint32{0, 1, 16, 17, 33, 155} {
				d := testAdaptiveDeltaData(ct, bitCount, n)
				w := w3d.NewWriter()
				d.write(w, ct)
				if err := w.Err(); err != nil {
					t.Fatal(err)
				}
				vecLen := uint32(ct.VectorLen())
				want := 4*vecLen + uint32(BlockGroups(n))*vecLen*(1+2*uint32(bitCount))
				if d.Size(ct) != want || uint32(w.Len()) != want {
					t.Errorf("bits %d %v n=%d: Size()=%d written=%d expected %d",
						bitCount, ct, n, d.Size(ct), w.Len(), want)
				}
			}
		}
	}
}

func TestAdaptiveDeltaBlockCountInvariant(t *testing.T) {
	c := testAdaptiveDeltaChannel(w3d.ChannelQ, 33)
	c.Data.DeltaBlocks = c.Data.DeltaBlocks[:11]
	var ie *w3d.InvariantViolationError
	if err := c.Write(w3d.NewWriter()); !errors.As(err, &ie) {
		t.Errorf("expected InvariantViolationError, got %v", err)
	}

	c = testAdaptiveDeltaChannel(w3d.ChannelX, 5)
	c.Data.DeltaBlocks[0].DeltaBytes = c.Data.DeltaBlocks[0].DeltaBytes[:3]
	if err := c.Write(w3d.NewWriter()); !errors.As(err, &ie) {
		t.Errorf("expected InvariantViolationError for short delta bytes, got %v", err)
	}
}

func TestAdaptiveDeltaNibbles(t *testing.T) {
	b := AdaptiveDeltaBlock{DeltaBytes: make(w3d.HexBytes, 8)}
	for slot := 0; slot < DeltaBlockFrames; slot++ {
		b.SetDelta(4, slot, int8(slot-8))
	}
	if b.DeltaBytes[0] != 0x98 {
		t.Errorf("first byte 0x%x, expected low nibble first 0x98", b.DeltaBytes[0])
	}
	for slot := 0; slot < DeltaBlockFrames; slot++ {
		if q := b.Delta(4, slot); q != int8(slot-8) {
			t.Errorf("slot %d = %d, expected %d", slot, q, slot-8)
		}
	}

	b8 := AdaptiveDeltaBlock{DeltaBytes: make(w3d.HexBytes, 16)}
	b8.SetDelta(8, 3, -128)
	b8.SetDelta(8, 4, 127)
	if b8.Delta(8, 3) != -128 || b8.Delta(8, 4) != 127 || b8.DeltaBytes[3] != 0x80 {
		t.Errorf("8 bit deltas %v", b8.DeltaBytes)
	}
}

func TestAdaptiveDeltaFilterTable(t *testing.T) {
	if FilterCoefficient(0) != 1 {
		t.Errorf("filter[0]=%v", FilterCoefficient(0))
	}
	for i := 1; i < filterSineEntries; i++ {
		if FilterCoefficient(uint8(i)) >= FilterCoefficient(uint8(i-1)) {
			t.Errorf("filter not decreasing at %d", i)
		}
	}
	if FilterCoefficient(248) != 1 || FilterCoefficient(255) != 1e7 {
		t.Errorf("filter tail %v %v", FilterCoefficient(248), FilterCoefficient(255))
	}
}

func TestAdaptiveDeltaDecompress(t *testing.T) {
	d := testAdaptiveDeltaData(w3d.ChannelX, 4, 18)
	d.InitialValue = w3d.ScalarValue(1)
	d.DeltaBlocks[0].BlockIndex = 0
	d.DeltaBlocks[1].BlockIndex = 0
	d.DeltaBlocks[0].SetDelta(4, 0, 2)
	d.DeltaBlocks[0].SetDelta(4, 1, -1)
	d.DeltaBlocks[0].SetDelta(4, 15, 7)
	d.DeltaBlocks[1].SetDelta(4, 0, -8)

	// scale 8 at 4 bits and filter 0: one unit is 1.0
	frames, err := d.Decompress(w3d.ChannelX, 8, 18)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]float32, 18)
	for f := range want {
		want[f] = 2
	}
	want[0], want[1], want[16], want[17] = 1, 3, 9, 1
	for f := range want {
		if frames[f].Scalar() != want[f] {
			t.Errorf("frame %d = %v, expected %v", f, frames[f].Scalar(), want[f])
		}
	}

	again, _ := d.Decompress(w3d.ChannelX, 8, 18)
	for f := range frames {
		if !frames[f].Equal(again[f]) {
			t.Errorf("decompression is not deterministic at frame %d", f)
		}
	}
}

func TestMotionChannelRoundtrip(t *testing.T) {
	for _, test := range []struct {
		name string
		c    *MotionChannel
	}{
		{"timecoded scalar", testMotionChannel(w3d.ChannelY, MotionTimeCoded, 55)},
		{"timecoded quaternion", testMotionChannel(w3d.ChannelQ, MotionTimeCoded, 55)},
		{"ad4 scalar", testMotionChannel(w3d.ChannelX, MotionAdaptiveDelta4, 55)},
		{"ad4 quaternion", testMotionChannel(w3d.ChannelQ, MotionAdaptiveDelta4, 55)},
		{"ad8 scalar", testMotionChannel(w3d.ChannelZ, MotionAdaptiveDelta8, 55)},
		{"ad8 quaternion", testMotionChannel(w3d.ChannelQ, MotionAdaptiveDelta8, 55)},
		{"minimal", testMotionChannel(w3d.ChannelZ, MotionTimeCoded, 1)},
		{"empty", &MotionChannel{DeltaType: MotionTimeCoded, VectorLen: 1, Type: w3d.ChannelZ,
			NumTimeCodes: 1, Pivot: 3, Data: &MotionTimeCodedData{}}},
	} {
		t.Run(test.name, func(t *testing.T) {
			h, sub, data := encodeChunk(t, test.c)
			if h.Type != ChunkCompressedMotionChannel {
				t.Errorf("unexpected header %v", h)
			}
			c, err := readMotionChannel(sub)
			if err != nil {
				t.Fatal(err)
			}
			if c.DeltaType != test.c.DeltaType || c.NumTimeCodes != test.c.NumTimeCodes ||
				c.Pivot != test.c.Pivot || c.Type != test.c.Type || c.VectorLen != test.c.VectorLen {
				t.Errorf("motion header %+v, expected %+v", c, test.c)
			}
			switch test.c.DeltaType {
			case MotionTimeCoded:
				expected, _ := test.c.TimeCoded()
				actual, err := c.TimeCoded()
				if err != nil {
					t.Fatal(err)
				}
				checkDatums(t, expected, actual)
			default:
				expected, _ := test.c.AdaptiveDelta()
				actual, err := c.AdaptiveDelta()
				if err != nil {
					t.Fatal(err)
				}
				if actual.Scale != expected.Scale {
					t.Errorf("scale %v, expected %v", actual.Scale, expected.Scale)
				}
				checkAdaptiveDeltaData(t, c.Type, &expected.Data, &actual.Data)
			}
			reencode(t, c, data)
		})
	}
}

func TestMotionChannelVariantDispatch(t *testing.T) {
	c := testMotionChannel(w3d.ChannelQ, MotionAdaptiveDelta4, 20)
	var ve *w3d.InvalidVariantError

	if _, err := c.TimeCoded(); !errors.As(err, &ve) {
		t.Errorf("TimeCoded() on adaptive delta channel: %v", err)
	}

	_, sub, _ := encodeChunk(t, c)
	if _, err := ReadMotionTimeCodedData(sub); !errors.As(err, &ve) || ve.DeltaType != 1 {
		t.Errorf("expected InvalidVariantError for delta type 1, got %v", err)
	}

	tc := testMotionChannel(w3d.ChannelX, MotionTimeCoded, 3)
	if _, err := tc.AdaptiveDelta(); !errors.As(err, &ve) {
		t.Errorf("AdaptiveDelta() on time coded channel: %v", err)
	}
	_, sub, _ = encodeChunk(t, tc)
	datums, err := ReadMotionTimeCodedData(sub)
	if err != nil || len(datums) != 3 {
		t.Errorf("time coded payload read as %d datums, %v", len(datums), err)
	}
}

func TestMotionChannelWrongVariantOnWrite(t *testing.T) {
	var ve *w3d.InvalidVariantError
	for _, c := range []*MotionChannel{
		{DeltaType: MotionAdaptiveDelta4, VectorLen: 1, Type: w3d.ChannelX, Data: &MotionTimeCodedData{}},
		{DeltaType: MotionTimeCoded, VectorLen: 1, Type: w3d.ChannelX,
			Data: &AdaptiveDeltaMotionAnimationChannel{Data: testAdaptiveDeltaData(w3d.ChannelX, 4, 0)}},
		{DeltaType: MotionAdaptiveDelta8, VectorLen: 1, Type: w3d.ChannelX,
			Data: &AdaptiveDeltaMotionAnimationChannel{Data: testAdaptiveDeltaData(w3d.ChannelX, 4, 0)}},
		{DeltaType: 3, VectorLen: 1, Type: w3d.ChannelX, Data: &MotionTimeCodedData{}},
	} {
		if err := c.Write(w3d.NewWriter()); !errors.As(err, &ve) {
			t.Errorf("delta type %v with %T: expected InvalidVariantError, got %v", c.DeltaType, c.Data, err)
		}
	}
}

func TestMotionChannelUnknownDeltaType(t *testing.T) {
	_, _, data := encodeChunk(t, testMotionChannel(w3d.ChannelX, MotionTimeCoded, 1))
	data[w3d.ChunkHeaderSize+1] = 7
	_, sub, err := w3d.NewReader(data).Next()
	if err != nil {
		t.Fatal(err)
	}
	var ve *w3d.InvalidVariantError
	if _, err := readMotionChannel(sub); !errors.As(err, &ve) || ve.DeltaType != 7 {
		t.Errorf("expected InvalidVariantError for delta type 7, got %v", err)
	}
}
