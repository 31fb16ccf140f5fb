package battery

import (
	"errors"
	"fmt"
)

// ErrProtocol matches every error returned for a rejected control write.
var ErrProtocol = errors.New("control protocol error")

var (
	ErrBatchTooLarge = fmt.Errorf("batch larger than %d bytes", MaxBatchSize)
	ErrPartialWrite  = errors.New("batch must be written in a single call at offset 0")
	ErrBusy          = errors.New("another batch is being applied")
	ErrMalformedLine = errors.New("line is not of the form key=value")
	ErrUnknownKey    = errors.New("unknown key")
	ErrInvalidValue  = errors.New("value is not an integer")
)

var (
	ErrUnsupportedProperty = errors.New("property not supported")
	ErrUnknownSupply       = errors.New("unknown power supply")
)

// ProtocolError describes why a control write was rejected. Line is the
// 1-based line number of the offending line, or 0 when the batch as a whole
// was refused.
type ProtocolError struct {
	Line int
	Text string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%v: %v", ErrProtocol, e.Err)
	}
	return fmt.Sprintf("%v: line %d %q: %v", ErrProtocol, e.Line, e.Text, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func batchError(err error) error {
	return &ProtocolError{Err: err}
}
