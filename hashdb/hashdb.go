package hashdb

import (
	_ "embed"
	"fmt"
	"strings"
)

// Containers key every name (bones, materials, textures) by a
// CRC-64/ECMA-182 checksum, most significant bit first, zero init.
const crcPoly = 0x42F0E1EBA9EA3693

var crcTable [256]uint64

//go:embed strings.txt
var dictionary string

var mapping map[uint64]string

func init() {
	for i := range crcTable {
		crc := uint64(i) << 56
		for bit := 0; bit < 8; bit++ {
			if crc&(1<<63) != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}

	mapping = make(map[uint64]string)
	for _, line := range strings.Split(dictionary, "\n") {
		line = strings.TrimSuffix(line, "\r")
		// checksum zero stands for "no name" inside containers, never
		// map the empty line to it
		if line == "" {
			continue
		}
		mapping[HashString(line)] = line
	}
}

func HashString(s string) uint64 {
	var crc uint64
	for i := 0; i < len(s); i++ {
		crc = crc<<8 ^ crcTable[byte(crc>>56)^s[i]]
	}
	return crc
}

// Resolve maps a checksum back to its original string. Absence is a
// normal outcome, the dictionary never covers every asset name.
func Resolve(hash uint64) (string, bool) {
	name, ok := mapping[hash]
	return name, ok
}

// FormatHash renders a checksum the way log lines and fallback names
// carry it.
func FormatHash(hash uint64) string {
	return fmt.Sprintf("%016x", hash)
}

// HashedString carries a checksum together with its resolved name when
// the dictionary knows it.
type HashedString struct {
	Hash uint64
	Name string
}

func Lookup(hash uint64) HashedString {
	return HashedString{Hash: hash, Name: mapping[hash]}
}

func (h HashedString) Resolved() bool {
	return h.Name != ""
}

// String returns the resolved name, falling back to the hex form.
func (h HashedString) String() string {
	if h.Name != "" {
		return h.Name
	}
	return FormatHash(h.Hash)
}
