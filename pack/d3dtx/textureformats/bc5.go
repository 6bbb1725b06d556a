package textureformats

import (
	"encoding/binary"
	"image"

	"github.com/mogaika/telltale_converter/utils"
)

// DecompressImageBC5 decodes BC5 two channel blocks. The first channel
// lands in the gray components, the second in alpha, which matches how
// tangent space normal maps pack their X and Y. Expects w and h to be
// multiples of 4 and data to hold exactly w*h bytes.
func DecompressImageBC5(data []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	var block [64]byte
	wBlocks := w / 4
	for by := 0; by < h/4; by++ {
		for bx := 0; bx < wBlocks; bx++ {
			src := data[(by*wBlocks+bx)*16:]

			xValues := alphaTableDXT5(src[0], src[1])
			xTable := utils.Read48bitUint(binary.LittleEndian, src[2:8])
			yValues := alphaTableDXT5(src[8], src[9])
			yTable := utils.Read48bitUint(binary.LittleEndian, src[10:16])
			for i := 0; i < 16; i++ {
				x := xValues[(xTable>>(i*3))&7]
				block[i*4+0] = x
				block[i*4+1] = x
				block[i*4+2] = x
				block[i*4+3] = yValues[(yTable>>(i*3))&7]
			}

			blit(img, bx, by, &block)
		}
	}
	return img
}
