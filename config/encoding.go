package config

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Asset names inside containers are stored in a single-byte encoding.
var nameCharMap *charmap.Charmap = charmap.Windows1252

func GetEncoding() *charmap.Charmap {
	return nameCharMap
}

func SetEncoding(name string) error {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && cm.String() == name {
			nameCharMap = cm
			return nil
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	names := make([]string, 0, len(charmap.All))
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			names = append(names, cm.String())
		}
	}
	return names
}
