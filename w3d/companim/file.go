package companim

import (
	"github.com/pkg/errors"

	"github.com/mogaika/w3d_browser/utils"
	"github.com/mogaika/w3d_browser/w3d"
)

// FromFile decodes every top level COMPRESSED_ANIMATION chunk of f
func FromFile(f *w3d.File, l *utils.Logger) ([]*CompressedAnimation, error) {
	chunks := f.ChunksOfType(ChunkCompressedAnimation)
	result := make([]*CompressedAnimation, 0, len(chunks))
	for i, c := range chunks {
		l.Printf("%v at 0x%x", c.Header, c.Offset)
		ca, err := Read(c.Reader(), l)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read compressed animation #%d", i)
		}
		result = append(result, ca)
	}
	return result, nil
}

// ReplaceInFile re-encodes ca into the index'th compressed animation chunk
func ReplaceInFile(f *w3d.File, index int, ca *CompressedAnimation) error {
	chunks := f.ChunksOfType(ChunkCompressedAnimation)
	if index < 0 || index >= len(chunks) {
		return errors.Errorf("File has %d compressed animations, no #%d", len(chunks), index)
	}
	data, err := ca.Bytes()
	if err != nil {
		return err
	}
	rc := chunks[index]
	rc.Header.Size = uint32(len(data) - w3d.ChunkHeaderSize)
	rc.Header.Container = true
	rc.Payload = data[w3d.ChunkHeaderSize:]
	return nil
}
