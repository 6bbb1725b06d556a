package textureformats

import (
	"encoding/binary"
	"image"

	"github.com/mogaika/telltale_converter/utils"
)

// DecompressImageBC4 decodes BC4 single channel blocks into an opaque
// grayscale RGBA image. Expects w and h to be multiples of 4 and data
// to hold exactly w*h/2 bytes.
func DecompressImageBC4(data []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	var block [64]byte
	wBlocks := w / 4
	for by := 0; by < h/4; by++ {
		for bx := 0; bx < wBlocks; bx++ {
			src := data[(by*wBlocks+bx)*8:]

			values := alphaTableDXT5(src[0], src[1])
			valueTable := utils.Read48bitUint(binary.LittleEndian, src[2:8])
			for i := 0; i < 16; i++ {
				v := values[(valueTable>>(i*3))&7]
				block[i*4+0] = v
				block[i*4+1] = v
				block[i*4+2] = v
				block[i*4+3] = 0xFF
			}

			blit(img, bx, by, &block)
		}
	}
	return img
}
