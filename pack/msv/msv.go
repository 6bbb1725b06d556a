package msv

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/utils"
)

// Every container kind opens with the same magic describing the
// serialization flavor. Only the two MSV flavors are convertible, the
// older MBIN/MTRE files carry a different layout.
const (
	MAGIC_MBIN = 1296189774
	MAGIC_MTRE = 1297371717
	MAGIC_MSV5 = 1297307189
	MAGIC_MSV6 = 1297307190
)

var ErrUnsupportedVersion = errors.New("unsupported container version")

type Version uint32

func (v Version) String() string {
	switch uint32(v) {
	case MAGIC_MBIN:
		return "MBIN"
	case MAGIC_MTRE:
		return "MTRE"
	case MAGIC_MSV5:
		return "MSV5"
	case MAGIC_MSV6:
		return "MSV6"
	}
	return fmt.Sprintf("0x%08x", uint32(v))
}

// ParseHeader consumes the version magic and the parameter table that
// precedes every supported container payload, leaving the cursor at the
// first payload byte.
func ParseHeader(bs *utils.BufStack) (Version, error) {
	magic := bs.ReadLU32()
	if err := bs.Err(); err != nil {
		return 0, err
	}
	switch magic {
	case MAGIC_MSV5, MAGIC_MSV6:
	case MAGIC_MBIN, MAGIC_MTRE:
		return Version(magic), errors.Wrapf(ErrUnsupportedVersion, "%v", Version(magic))
	default:
		return Version(magic), errors.Wrapf(ErrUnsupportedVersion, "magic 0x%08x", magic)
	}

	_ = bs.ReadLU32() // declared file size
	bs.Skip(0x08)
	paramCount := bs.ReadLU32()
	bs.Skip(int(paramCount) * 0x0C)
	if err := bs.Err(); err != nil {
		return Version(magic), err
	}
	return Version(magic), nil
}

// ReadName reads a length prefixed name field. Some files carry only
// the outer length, in that case the cursor backs up and the outer
// length is the string length.
func ReadName(bs *utils.BufStack) string {
	headerLength := bs.ReadLU32()
	nameLength := bs.ReadLU32()
	if nameLength > headerLength {
		bs.Seek(bs.Pos() - 4)
		nameLength = headerLength
	}
	return bs.ReadStringBuffer(int(nameLength))
}
