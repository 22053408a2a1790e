package utils

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/transform"

	"github.com/mogaika/w3d_browser/config"
)

// BytesToString decodes a null padded name in the configured code page
func BytesToString(bs []byte) (string, error) {
	n := BytesStringLength(bs)

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		return "", errors.Wrapf(err, "Failed to decode %q", bs[0:n])
	}

	return string(s), nil
}

func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}

// StringToBytesBuffer encodes s into a zero padded buffer of bufSize bytes
func StringToBytesBuffer(s string, bufSize int, nilTerminate bool) ([]byte, error) {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to encode %q to %v", s, config.GetEncoding())
	}
	if bytes.IndexByte(bs, 0) != -1 {
		return nil, errors.Errorf("String %q contains zero byte", s)
	}
	if nilTerminate {
		bs = append(bs, 0)
	}
	if len(bs) > bufSize {
		return nil, errors.Errorf("String %q takes %d bytes, buffer is %d", s, len(bs), bufSize)
	}
	r := make([]byte, bufSize)
	copy(r, bs)
	return r, nil
}
