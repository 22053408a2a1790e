package w3d

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/mogaika/w3d_browser/utils"
)

const (
	ChunkHeaderSize = 8

	// top bit of the size field marks chunks that hold sub-chunks
	chunkContainerFlag = 0x80000000
	chunkSizeMask      = 0x7fffffff
)

type ChunkHeader struct {
	Type      uint32
	Size      uint32 // payload length, without header
	Container bool
}

func (h ChunkHeader) String() string {
	return fmt.Sprintf("%s(0x%.8x)[size:0x%x container:%v]", ChunkName(h.Type), h.Type, h.Size, h.Container)
}

var (
	chunkNamesLock sync.RWMutex
	chunkNames     = map[uint32]string{}
)

// RegisterChunkName is called from format packages init to make layout
// trees and error messages readable.
func RegisterChunkName(chunkType uint32, name string) {
	chunkNamesLock.Lock()
	defer chunkNamesLock.Unlock()
	chunkNames[chunkType] = name
}

func ChunkName(chunkType uint32) string {
	chunkNamesLock.RLock()
	defer chunkNamesLock.RUnlock()
	if name, ok := chunkNames[chunkType]; ok {
		return name
	}
	return "UNKNOWN"
}

// Reader reads little-endian values from an in-memory chunk payload.
// Reads are sticky: the first failure is stored and every following read
// returns zero values, so callers check Err() once per logical record.
type Reader struct {
	buf   []byte
	pos   int
	base  int64  // absolute offset of buf[0]
	owner uint32 // chunk type the buffer belongs to
	err   error

	layout     *utils.BufStack
	layoutBase int
}

func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// WithLayout makes the reader record every chunk it walks into bs.
func (r *Reader) WithLayout(bs *utils.BufStack) *Reader {
	r.layout = bs
	r.layoutBase = 0
	return r
}

func (r *Reader) Offset() int64 {
	return r.base + int64(r.pos)
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) Owner() uint32 {
	return r.owner
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) Layout() *utils.BufStack {
	return r.layout
}

func (r *Reader) truncated(need int) {
	if r.err == nil {
		r.err = &TruncatedChunkError{Type: r.owner, Offset: r.Offset(), Need: need, Have: r.Remaining()}
	}
}

// Malformed records a payload level error at the current position
func (r *Reader) Malformed(format string, a ...interface{}) error {
	err := &MalformedChunkError{Type: r.owner, Offset: r.Offset(), Reason: fmt.Sprintf(format, a...)}
	if r.err == nil {
		r.err = err
	}
	return err
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.truncated(n)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) U8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) U16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) U32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *Reader) F32() float32 {
	return math.Float32frombits(r.U32())
}

// Bytes returns a copy of the next n bytes
func (r *Reader) Bytes(n int) []byte {
	if b := r.take(n); b != nil {
		return append([]byte(nil), b...)
	}
	return nil
}

func (r *Reader) FixedString(size int) string {
	b := r.take(size)
	if b == nil {
		return ""
	}
	s, err := utils.BytesToString(b)
	if err != nil && r.err == nil {
		r.err = &MalformedChunkError{Type: r.owner, Offset: r.Offset() - int64(size), Reason: err.Error()}
	}
	return s
}

// Value reads VectorLen(t) floats
func (r *Reader) Value(t ChannelType) Value {
	n := t.VectorLen()
	if n == 0 {
		r.Malformed("unknown channel type %d", uint8(t))
		return nil
	}
	v := make(Value, n)
	for i := range v {
		v[i] = r.F32()
	}
	if r.err != nil {
		return nil
	}
	return v
}

// ReadChunk consumes a chunk header
func (r *Reader) ReadChunk() (ChunkHeader, error) {
	if r.err != nil {
		return ChunkHeader{}, r.err
	}
	if r.Remaining() < ChunkHeaderSize {
		return ChunkHeader{}, &MalformedChunkError{
			Type:   r.owner,
			Offset: r.Offset(),
			Reason: fmt.Sprintf("chunk header needs %d bytes, %d left", ChunkHeaderSize, r.Remaining()),
		}
	}
	chunkType := r.U32()
	size := r.U32()
	return ChunkHeader{
		Type:      chunkType,
		Size:      size & chunkSizeMask,
		Container: size&chunkContainerFlag != 0,
	}, nil
}

// SubRange returns a reader bounded to the next size bytes and advances
// this reader past them.
func (r *Reader) SubRange(chunkType uint32, size uint32) (*Reader, error) {
	if r.err != nil {
		return nil, r.err
	}
	if int64(size) > int64(r.Remaining()) {
		return nil, &TruncatedChunkError{Type: chunkType, Offset: r.Offset(), Need: int(size), Have: r.Remaining()}
	}
	sub := &Reader{
		buf:   r.buf[r.pos : r.pos+int(size)],
		base:  r.Offset(),
		owner: chunkType,
	}
	r.pos += int(size)
	return sub, nil
}

// Skip steps over a payload without parsing it
func (r *Reader) Skip(size uint32) error {
	_, err := r.SubRange(r.owner, size)
	return err
}

// Next reads the next sub-chunk header and returns a reader over its payload.
// io.EOF is returned when the buffer is exhausted.
func (r *Reader) Next() (ChunkHeader, *Reader, error) {
	if r.err != nil {
		return ChunkHeader{}, nil, r.err
	}
	if r.Remaining() == 0 {
		return ChunkHeader{}, nil, io.EOF
	}
	headerPos := r.pos
	h, err := r.ReadChunk()
	if err != nil {
		return h, nil, err
	}
	sub, err := r.SubRange(h.Type, h.Size)
	if err != nil {
		return h, nil, err
	}
	if r.layout != nil {
		node := r.layout.SubBuf(ChunkName(h.Type), r.layoutBase+headerPos).
			SetSize(ChunkHeaderSize + int(h.Size)).
			SetName(fmt.Sprintf("0x%.8x", h.Type))
		sub.layout = node
		sub.layoutBase = ChunkHeaderSize
	}
	return h, sub, nil
}

// Writer accumulates a little-endian byte stream. Like Reader it keeps the
// first error and ignores writes after it.
type Writer struct {
	buf []byte
	err error
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) Fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return w.err
}

func (w *Writer) U8(v uint8) {
	if w.err == nil {
		w.buf = append(w.buf, v)
	}
}

func (w *Writer) U16(v uint16) {
	if w.err == nil {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		w.buf = append(w.buf, b[:]...)
	}
}

func (w *Writer) U32(v uint32) {
	if w.err == nil {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		w.buf = append(w.buf, b[:]...)
	}
}

func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

func (w *Writer) Raw(b []byte) {
	if w.err == nil {
		w.buf = append(w.buf, b...)
	}
}

func (w *Writer) FixedString(s string, size int) {
	b, err := utils.StringToBytesBuffer(s, size, false)
	if err != nil {
		w.Fail(Invariantf("name %q: %v", s, err))
		return
	}
	w.Raw(b)
}

func (w *Writer) Value(t ChannelType, v Value) {
	if n := t.VectorLen(); n == 0 || len(v) != n {
		w.Fail(Invariantf("value %v does not fit channel type %v", v, t))
		return
	}
	for _, f := range v {
		w.F32(f)
	}
}

func (w *Writer) ChunkHeader(h ChunkHeader) {
	if h.Size&chunkContainerFlag != 0 {
		w.Fail(Invariantf("chunk 0x%.8x size 0x%x overflows size field", h.Type, h.Size))
		return
	}
	size := h.Size
	if h.Container {
		size |= chunkContainerFlag
	}
	w.U32(h.Type)
	w.U32(size)
}

// WriteChunk writes header and payload, size is taken from the payload
func (w *Writer) WriteChunk(chunkType uint32, payload []byte, container bool) {
	if uint64(len(payload)) > chunkSizeMask {
		w.Fail(Invariantf("chunk 0x%.8x payload of %d bytes overflows size field", chunkType, len(payload)))
		return
	}
	w.ChunkHeader(ChunkHeader{Type: chunkType, Size: uint32(len(payload)), Container: container})
	w.Raw(payload)
}

// Chunk writes a header carrying the pre-computed size, then body. The body
// must write exactly size bytes.
func (w *Writer) Chunk(chunkType uint32, size uint32, container bool, body func(w *Writer) error) error {
	w.ChunkHeader(ChunkHeader{Type: chunkType, Size: size, Container: container})
	if w.err != nil {
		return w.err
	}
	start := w.Len()
	if err := body(w); err != nil {
		return w.Fail(err)
	}
	if w.err != nil {
		return w.err
	}
	if written := w.Len() - start; written != int(size) {
		return w.Fail(Invariantf("chunk %s(0x%.8x) declared size %d, body wrote %d",
			ChunkName(chunkType), chunkType, size, written))
	}
	return nil
}
