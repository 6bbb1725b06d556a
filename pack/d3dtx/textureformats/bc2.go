package textureformats

import (
	"encoding/binary"
	"image"
)

// DecompressImageBC2 decodes BC2 (DXT3) blocks, color with explicit
// 4 bit alpha. Expects w and h to be multiples of 4 and data to hold
// exactly w*h bytes.
func DecompressImageBC2(data []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	var block [64]byte
	wBlocks := w / 4
	for by := 0; by < h/4; by++ {
		for bx := 0; bx < wBlocks; bx++ {
			src := data[(by*wBlocks+bx)*16:]

			alphaTable := binary.LittleEndian.Uint64(src[0:8])
			for i := 0; i < 16; i++ {
				block[i*4+3] = byte((alphaTable>>(i*4))&0xF) * 0x11
			}

			decodeDXTColors(src[8:16], block[:], false)
			blit(img, bx, by, &block)
		}
	}
	return img
}
