package textureformats

import (
	"encoding/binary"
	"image"
)

// Based on the DXT decoder of github.com/image-rs/image

// Layout tags which channels of a decoded RGBA image carry source data.
// Decoding always widens to RGBA, the tag keeps the original meaning
// around for the map conversions.
type Layout int

const (
	LAYOUT_GRAY Layout = iota
	LAYOUT_GRAY_ALPHA
	LAYOUT_RGB
	LAYOUT_RGBA
)

func (l Layout) String() string {
	switch l {
	case LAYOUT_GRAY:
		return "Gray"
	case LAYOUT_GRAY_ALPHA:
		return "GrayAlpha"
	case LAYOUT_RGB:
		return "RGB"
	case LAYOUT_RGBA:
		return "RGBA"
	}
	return "Unknown"
}

// HasAlpha reports whether the source format carried an alpha channel.
func (l Layout) HasAlpha() bool {
	return l == LAYOUT_GRAY_ALPHA || l == LAYOUT_RGBA
}

// enc565Decode expands a packed 5:6:5 color so that component range
// ends map exactly (0x1F -> 0xFF).
func enc565Decode(v uint16) (r, g, b byte) {
	red := (v >> 11) & 0x1F
	green := (v >> 5) & 0x3F
	blue := v & 0x1F
	return byte(red * 0xFF / 0x1F), byte(green * 0xFF / 0x3F), byte(blue * 0xFF / 0x1F)
}

// alphaTableDXT5 builds the 8 entry alpha lookup table. alpha0 > alpha1
// selects the fully interpolated mode, otherwise entries 6 and 7 are
// pinned to transparent and opaque.
func alphaTableDXT5(alpha0, alpha1 byte) (table [8]byte) {
	table = [8]byte{alpha0, alpha1, 0, 0, 0, 0, 0, 0xFF}
	if alpha0 > alpha1 {
		for i := uint16(2); i < 8; i++ {
			table[i] = byte(((8-i)*uint16(alpha0) + (i-1)*uint16(alpha1)) / 7)
		}
	} else {
		for i := uint16(2); i < 6; i++ {
			table[i] = byte(((6-i)*uint16(alpha0) + (i-1)*uint16(alpha1)) / 5)
		}
	}
	return
}

// decodeDXTColors fills the RGB channels of a 16 pixel RGBA block from
// an 8 byte color block. Alpha bytes are left untouched.
func decodeDXTColors(source []byte, dest []byte, isBC1 bool) {
	color0 := binary.LittleEndian.Uint16(source[0:])
	color1 := binary.LittleEndian.Uint16(source[2:])
	colorTable := binary.LittleEndian.Uint32(source[4:])

	var colors [4][3]byte
	colors[0][0], colors[0][1], colors[0][2] = enc565Decode(color0)
	colors[1][0], colors[1][1], colors[1][2] = enc565Decode(color1)

	if color0 > color1 || !isBC1 {
		for i := 0; i < 3; i++ {
			colors[2][i] = byte((uint16(colors[0][i])*2 + uint16(colors[1][i]) + 1) / 3)
			colors[3][i] = byte((uint16(colors[0][i]) + uint16(colors[1][i])*2 + 1) / 3)
		}
	} else {
		// fourth entry stays black
		for i := 0; i < 3; i++ {
			colors[2][i] = byte((uint16(colors[0][i]) + uint16(colors[1][i]) + 1) / 2)
		}
	}

	for i := 0; i < 16; i++ {
		c := &colors[(colorTable>>(i*2))&3]
		dest[i*4+0] = c[0]
		dest[i*4+1] = c[1]
		dest[i*4+2] = c[2]
	}
}

// blit copies a decoded 4x4 RGBA block into the image at block
// coordinates.
func blit(img *image.NRGBA, bx, by int, block *[64]byte) {
	for line := 0; line < 4; line++ {
		dst := img.Pix[(by*4+line)*img.Stride+bx*16:]
		copy(dst[:16], block[line*16:(line+1)*16])
	}
}
