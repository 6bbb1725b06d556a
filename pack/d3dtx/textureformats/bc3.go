package textureformats

import (
	"encoding/binary"
	"image"

	"github.com/mogaika/telltale_converter/utils"
)

// DecompressImageBC3 decodes BC3 (DXT5) blocks, color with
// interpolated alpha. Expects w and h to be multiples of 4 and data to
// hold exactly w*h bytes.
func DecompressImageBC3(data []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	var block [64]byte
	wBlocks := w / 4
	for by := 0; by < h/4; by++ {
		for bx := 0; bx < wBlocks; bx++ {
			src := data[(by*wBlocks+bx)*16:]

			alphas := alphaTableDXT5(src[0], src[1])
			alphaTable := utils.Read48bitUint(binary.LittleEndian, src[2:8])
			for i := 0; i < 16; i++ {
				block[i*4+3] = alphas[(alphaTable>>(i*3))&7]
			}

			decodeDXTColors(src[8:16], block[:], false)
			blit(img, bx, by, &block)
		}
	}
	return img
}
