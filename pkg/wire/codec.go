package wire

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for sliding sync types.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
}

// Marshal encodes a value to canonical CBOR bytes. Equal compares specs
// on this encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// canonicalEqual reports whether a and b have identical canonical encodings.
// Values that cannot be encoded are never equal.
func canonicalEqual(a, b any) bool {
	ab, err := Marshal(a)
	if err != nil {
		return false
	}
	bb, err := Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
