package w3d

import (
	"fmt"

	"github.com/pkg/errors"
)

// MalformedChunkError is returned when chunk framing can not be parsed:
// header cut short, unexpected layout or nonsensical field values.
type MalformedChunkError struct {
	Type   uint32
	Offset int64
	Reason string
}

func (e *MalformedChunkError) Error() string {
	return fmt.Sprintf("malformed chunk 0x%.8x at 0x%x: %s", e.Type, e.Offset, e.Reason)
}

// TruncatedChunkError is returned when a declared size runs past the end of
// the available data.
type TruncatedChunkError struct {
	Type   uint32
	Offset int64
	Need   int
	Have   int
}

func (e *TruncatedChunkError) Error() string {
	return fmt.Sprintf("truncated chunk 0x%.8x at 0x%x: need %d bytes, have %d",
		e.Type, e.Offset, e.Need, e.Have)
}

type UnsupportedVersionError struct {
	Version Version
	Max     Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported version %v (newest known %v)", e.Version, e.Max)
}

// InvariantViolationError is raised at encode time instead of producing
// bytes that the legacy tool-chain would misread.
type InvariantViolationError struct {
	What string
}

func (e *InvariantViolationError) Error() string {
	return "invariant violation: " + e.What
}

func Invariantf(format string, a ...interface{}) error {
	return &InvariantViolationError{What: fmt.Sprintf(format, a...)}
}

type InvalidVariantError struct {
	DeltaType uint8
	Want      string
}

func (e *InvalidVariantError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("invalid motion channel delta type %d", e.DeltaType)
	}
	return fmt.Sprintf("motion channel delta type %d does not hold %s data", e.DeltaType, e.Want)
}

// ErrorOffset returns absolute file offset carried by chunk errors in err chain
func ErrorOffset(err error) (int64, bool) {
	var malformed *MalformedChunkError
	if errors.As(err, &malformed) {
		return malformed.Offset, true
	}
	var truncated *TruncatedChunkError
	if errors.As(err, &truncated) {
		return truncated.Offset, true
	}
	return 0, false
}
