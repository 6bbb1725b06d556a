package utils

import (
	"encoding/binary"

	"golang.org/x/text/transform"

	"github.com/mogaika/telltale_converter/config"
)

// BytesToString decodes a raw name buffer with the configured single
// byte charmap. Name fields are length prefixed, not zero terminated,
// so the whole buffer is decoded as is.
func BytesToString(bs []byte) string {
	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs)
	if err != nil {
		return string(bs)
	}
	return string(s)
}

// Read48bitUint folds 6 bytes into a uint64 (block compression alpha
// index payload).
func Read48bitUint(o binary.ByteOrder, bin []byte) uint64 {
	var buf [8]byte
	if o == binary.LittleEndian {
		copy(buf[0:], bin[:6])
	} else {
		copy(buf[2:], bin[:6])
	}
	return o.Uint64(buf[:])
}
