package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// ErrEmptyData is returned when decoding zero bytes. It is deliberately not
	// a DecodeError: an empty file is a missing document, not a corrupt one.
	ErrEmptyData = errors.New("ir codec: empty data")
	// ErrDecode matches every *DecodeError through errors.Is.
	ErrDecode   = errors.New("ir codec: decode failed")
	ErrChecksum = errors.New("checksum mismatch")
	ErrMagic    = errors.New("bad magic")
)

// DecodeError reports malformed input in a known message or field.
type DecodeError struct {
	Message string
	Field   protowire.Number
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Field == 0 {
		return fmt.Sprintf("ir codec: decode %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("ir codec: decode %s field %d: %v", e.Message, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(msg string, num protowire.Number, err error) error {
	return &DecodeError{Message: msg, Field: num, Err: err}
}
