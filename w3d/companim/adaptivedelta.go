package companim

import (
	"math"

	"github.com/mogaika/w3d_browser/w3d"
)

const (
	// frames covered by one delta block of one vector lane
	DeltaBlockFrames = 16

	filterTableSize   = 256
	filterSineEntries = 240

	adaptiveDeltaChannelBits = 4
)

// Scale multipliers selected by AdaptiveDeltaBlock.BlockIndex. First part
// falls off along a quarter sine wave, the tail covers 1e-8..1e7 for
// nearly static and very fast tracks.
var deltaFilterTable = func() (table [filterTableSize]float32) {
	for i := 0; i < filterSineEntries; i++ {
		table[i] = float32(1.0 - math.Sin(float64(i)/filterSineEntries*math.Pi/2))
	}
	for j := 0; j < filterTableSize-filterSineEntries; j++ {
		table[filterSineEntries+j] = float32(math.Pow(10, float64(j-8)))
	}
	return table
}()

func FilterCoefficient(blockIndex uint8) float32 {
	return deltaFilterTable[blockIndex]
}

func quantRange(bitCount uint8) int {
	return 1 << (bitCount - 1)
}

// deltaStep is the value of one quantization unit inside a block.
// Decoder and encoder must share it to stay bit exact.
func deltaStep(scale float32, blockIndex uint8, bitCount uint8) float32 {
	return scale * deltaFilterTable[blockIndex] / float32(quantRange(bitCount))
}

func applyDelta(prev float32, q int8, step float32) float32 {
	// explicit conversion blocks fused multiply-add
	return prev + float32(float32(q)*step)
}

func checkBitCount(bitCount uint8) error {
	if bitCount != 4 && bitCount != 8 {
		return w3d.Invariantf("adaptive delta bit count %d, expected 4 or 8", bitCount)
	}
	return nil
}

// BlockGroups returns count of 16 frame groups needed for numTimeCodes frames
func BlockGroups(numTimeCodes uint32) int {
	return int((numTimeCodes + DeltaBlockFrames - 1) / DeltaBlockFrames)
}

type AdaptiveDeltaBlock struct {
	// lane of the value, implied by block position in file
	VectorIndex uint8 `yaml:"vector_index"`
	// filter table entry
	BlockIndex uint8        `yaml:"block_index"`
	DeltaBytes w3d.HexBytes `yaml:"delta_bytes"`
}

func blockSize(bitCount uint8) uint32 {
	return 1 + 2*uint32(bitCount)
}

// Delta returns signed quantized delta stored in slot 0..15
func (b *AdaptiveDeltaBlock) Delta(bitCount uint8, slot int) int8 {
	if bitCount == 4 {
		v := b.DeltaBytes[slot/2]
		if slot&1 != 0 {
			v >>= 4
		}
		return int8(v<<4) >> 4
	}
	return int8(b.DeltaBytes[slot])
}

func (b *AdaptiveDeltaBlock) SetDelta(bitCount uint8, slot int, q int8) {
	if bitCount == 4 {
		n := uint8(q) & 0xf
		i := slot / 2
		if slot&1 != 0 {
			b.DeltaBytes[i] = b.DeltaBytes[i]&0x0f | n<<4
		} else {
			b.DeltaBytes[i] = b.DeltaBytes[i]&0xf0 | n
		}
		return
	}
	b.DeltaBytes[slot] = uint8(q)
}

type AdaptiveDeltaData struct {
	BitCount     uint8                `yaml:"bit_count"`
	InitialValue w3d.Value            `yaml:"initial_value"`
	DeltaBlocks  []AdaptiveDeltaBlock `yaml:"delta_blocks"`
}

func (d *AdaptiveDeltaData) Size(t w3d.ChannelType) uint32 {
	return 4*uint32(t.VectorLen()) + uint32(len(d.DeltaBlocks))*blockSize(d.BitCount)
}

func readAdaptiveDeltaData(r *w3d.Reader, t w3d.ChannelType, numTimeCodes uint32, bitCount uint8) (*AdaptiveDeltaData, error) {
	d := &AdaptiveDeltaData{
		BitCount:     bitCount,
		InitialValue: r.Value(t),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	vecLen := t.VectorLen()
	count := BlockGroups(numTimeCodes) * vecLen
	if need := uint64(count) * uint64(blockSize(bitCount)); need > uint64(r.Remaining()) {
		return nil, &w3d.TruncatedChunkError{Type: r.Owner(), Offset: r.Offset(), Need: int(need), Have: r.Remaining()}
	}

	d.DeltaBlocks = make([]AdaptiveDeltaBlock, count)
	for i := range d.DeltaBlocks {
		d.DeltaBlocks[i] = AdaptiveDeltaBlock{
			VectorIndex: uint8(i % vecLen),
			BlockIndex:  r.U8(),
			DeltaBytes:  r.Bytes(2 * int(bitCount)),
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *AdaptiveDeltaData) validate(t w3d.ChannelType, numTimeCodes uint32) error {
	if err := checkBitCount(d.BitCount); err != nil {
		return err
	}
	vecLen := t.VectorLen()
	if vecLen == 0 {
		return w3d.Invariantf("unknown channel type %d", uint8(t))
	}
	if len(d.InitialValue) != vecLen {
		return w3d.Invariantf("adaptive delta initial value %v does not fit channel type %v", d.InitialValue, t)
	}
	if want := BlockGroups(numTimeCodes) * vecLen; len(d.DeltaBlocks) != want {
		return w3d.Invariantf("adaptive delta has %d blocks, %d time codes of %v need %d",
			len(d.DeltaBlocks), numTimeCodes, t, want)
	}
	for i := range d.DeltaBlocks {
		b := &d.DeltaBlocks[i]
		if int(b.VectorIndex) != i%vecLen {
			return w3d.Invariantf("adaptive delta block %d has vector index %d, its position implies %d",
				i, b.VectorIndex, i%vecLen)
		}
		if len(b.DeltaBytes) != 2*int(d.BitCount) {
			return w3d.Invariantf("adaptive delta block %d has %d delta bytes, expected %d",
				i, len(b.DeltaBytes), 2*d.BitCount)
		}
	}
	return nil
}

func (d *AdaptiveDeltaData) write(w *w3d.Writer, t w3d.ChannelType) {
	w.Value(t, d.InitialValue)
	for i := range d.DeltaBlocks {
		w.U8(d.DeltaBlocks[i].BlockIndex)
		w.Raw(d.DeltaBlocks[i].DeltaBytes)
	}
}

// Decompress reconstructs numTimeCodes values. Frame 0 is the initial
// value, every next frame adds one dequantized delta per lane.
func (d *AdaptiveDeltaData) Decompress(t w3d.ChannelType, scale float32, numTimeCodes uint32) ([]w3d.Value, error) {
	if err := d.validate(t, numTimeCodes); err != nil {
		return nil, err
	}
	frames := make([]w3d.Value, numTimeCodes)
	if numTimeCodes == 0 {
		return frames, nil
	}

	vecLen := t.VectorLen()
	prev := d.InitialValue.Clone()
	frames[0] = prev
	for f := 1; f < len(frames); f++ {
		group, slot := (f-1)/DeltaBlockFrames, (f-1)%DeltaBlockFrames
		cur := make(w3d.Value, vecLen)
		for lane := range cur {
			b := &d.DeltaBlocks[group*vecLen+lane]
			cur[lane] = applyDelta(prev[lane], b.Delta(d.BitCount, slot), deltaStep(scale, b.BlockIndex, d.BitCount))
		}
		frames[f] = cur
		prev = cur
	}
	return frames, nil
}

func (d *AdaptiveDeltaData) Clone() AdaptiveDeltaData {
	c := AdaptiveDeltaData{
		BitCount:     d.BitCount,
		InitialValue: d.InitialValue.Clone(),
		DeltaBlocks:  make([]AdaptiveDeltaBlock, len(d.DeltaBlocks)),
	}
	for i, b := range d.DeltaBlocks {
		b.DeltaBytes = append(w3d.HexBytes(nil), b.DeltaBytes...)
		c.DeltaBlocks[i] = b
	}
	return c
}

// AdaptiveDeltaAnimationChannel is the 0x282 channel layout of adaptive
// delta flavored animations. Always 4 bits per delta.
type AdaptiveDeltaAnimationChannel struct {
	NumTimeCodes uint32            `yaml:"num_time_codes"`
	Pivot        uint16            `yaml:"pivot"`
	VectorLen    uint8             `yaml:"vector_len"`
	Type         w3d.ChannelType   `yaml:"type"`
	Scale        float32           `yaml:"scale"`
	Data         AdaptiveDeltaData `yaml:"data"`
}

func (c *AdaptiveDeltaAnimationChannel) Size() uint32 {
	return 12 + c.Data.Size(c.Type)
}

func readAdaptiveDeltaAnimationChannel(r *w3d.Reader) (*AdaptiveDeltaAnimationChannel, error) {
	c := &AdaptiveDeltaAnimationChannel{
		NumTimeCodes: r.U32(),
		Pivot:        r.U16(),
		VectorLen:    r.U8(),
		Type:         w3d.ChannelType(r.U8()),
		Scale:        r.F32(),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := w3d.CheckVectorLen(c.Type, c.VectorLen); err != nil {
		return nil, r.Malformed("%v", err)
	}

	data, err := readAdaptiveDeltaData(r, c.Type, c.NumTimeCodes, adaptiveDeltaChannelBits)
	if err != nil {
		return nil, err
	}
	c.Data = *data
	return c, nil
}

func (c *AdaptiveDeltaAnimationChannel) validate() error {
	if err := w3d.CheckVectorLen(c.Type, c.VectorLen); err != nil {
		return err
	}
	if c.Data.BitCount != adaptiveDeltaChannelBits {
		return w3d.Invariantf("adaptive delta channel (pivot %d) uses %d bit deltas, only %d are stored",
			c.Pivot, c.Data.BitCount, adaptiveDeltaChannelBits)
	}
	return c.Data.validate(c.Type, c.NumTimeCodes)
}

func (c *AdaptiveDeltaAnimationChannel) Write(w *w3d.Writer) error {
	if err := c.validate(); err != nil {
		return w.Fail(err)
	}
	return w.Chunk(ChunkCompressedAnimationChannel, c.Size(), false, func(w *w3d.Writer) error {
		w.U32(c.NumTimeCodes)
		w.U16(c.Pivot)
		w.U8(c.VectorLen)
		w.U8(uint8(c.Type))
		w.F32(c.Scale)
		c.Data.write(w, c.Type)
		return nil
	})
}

func (c *AdaptiveDeltaAnimationChannel) Decompress() ([]w3d.Value, error) {
	return c.Data.Decompress(c.Type, c.Scale, c.NumTimeCodes)
}
