package w3d

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/utils"
)

// RawChunk is a top level chunk kept as bytes. Chunks this module does not
// decode (meshes, hierarchies, materials) live in files only in this form.
type RawChunk struct {
	Header  ChunkHeader
	Offset  int64 // of the chunk header in the source file
	Payload []byte
}

func (rc *RawChunk) Reader() *Reader {
	return &Reader{
		buf:   rc.Payload,
		base:  rc.Offset + ChunkHeaderSize,
		owner: rc.Header.Type,
	}
}

// File is a w3d file split into its top level chunks
type File struct {
	Chunks []*RawChunk
}

func ReadFile(data []byte) (*File, error) {
	return readFile(NewReader(data))
}

// ReadFileLayout also returns byte ranges of every chunk, container
// chunks are walked down to their leaves.
func ReadFileLayout(data []byte) (*File, *utils.BufStack, error) {
	bs := utils.NewBufStack("w3d", len(data))
	f, err := readFile(NewReader(data).WithLayout(bs))
	return f, bs, err
}

func readFile(r *Reader) (*File, error) {
	f := &File{}
	for {
		offset := r.Offset()
		h, sub, err := r.Next()
		if err == io.EOF {
			return f, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read top level chunk #%d", len(f.Chunks))
		}
		f.Chunks = append(f.Chunks, &RawChunk{
			Header:  h,
			Offset:  offset,
			Payload: sub.buf,
		})
		if sub.layout != nil && h.Container {
			walkLayout(sub)
		}
	}
}

func walkLayout(r *Reader) {
	for {
		h, sub, err := r.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Printf("[w3d] Layout walk stopped: %v", err)
			return
		}
		if h.Container {
			walkLayout(sub)
		}
	}
}

func LoadFile(path string) (*File, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read %s", path)
	}
	f, err := ReadFile(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot parse %s", path)
	}
	return f, nil
}

func (f *File) ChunksOfType(chunkType uint32) []*RawChunk {
	result := make([]*RawChunk, 0)
	for _, c := range f.Chunks {
		if c.Header.Type == chunkType {
			result = append(result, c)
		}
	}
	return result
}

func (f *File) Write(w *Writer) {
	for _, c := range f.Chunks {
		w.ChunkHeader(ChunkHeader{Type: c.Header.Type, Size: uint32(len(c.Payload)), Container: c.Header.Container})
		w.Raw(c.Payload)
	}
}

func (f *File) Bytes() ([]byte, error) {
	w := NewWriter()
	f.Write(w)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (f *File) Save(path string) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Cannot create %s", path)
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return errors.Wrapf(err, "Cannot write %s", path)
	}
	return out.Close()
}

// ErrorLocation describes the innermost layout range holding the offset of a
// chunk error, empty when err carries no offset.
func ErrorLocation(layout *utils.BufStack, err error) string {
	offset, ok := ErrorOffset(err)
	if !ok || layout == nil {
		return ""
	}
	if node := layout.Locate(int(offset)); node != nil {
		return fmt.Sprintf("0x%x in %s", offset, node.StringChain())
	}
	return fmt.Sprintf("0x%x outside of file", offset)
}
