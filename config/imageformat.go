package config

import "github.com/pkg/errors"

// ImageFormat selects the on-disk encoding for converted textures.
type ImageFormat string

const (
	IMAGE_FORMAT_PNG  ImageFormat = "png"
	IMAGE_FORMAT_WEBP ImageFormat = "webp"
)

func ParseImageFormat(s string) (ImageFormat, error) {
	switch ImageFormat(s) {
	case IMAGE_FORMAT_PNG, IMAGE_FORMAT_WEBP:
		return ImageFormat(s), nil
	}
	return "", errors.Errorf("Unknown image format %q (expected png or webp)", s)
}

func (f ImageFormat) Extension() string {
	return "." + string(f)
}
