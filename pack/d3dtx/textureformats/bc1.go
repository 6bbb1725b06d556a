package textureformats

import "image"

// DecompressImageBC1 decodes BC1 (DXT1) blocks into an opaque RGBA
// image. Expects w and h to be multiples of 4 and data to hold exactly
// w*h/2 bytes.
func DecompressImageBC1(data []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	var block [64]byte
	for i := 3; i < len(block); i += 4 {
		block[i] = 0xFF
	}

	wBlocks := w / 4
	for by := 0; by < h/4; by++ {
		for bx := 0; bx < wBlocks; bx++ {
			decodeDXTColors(data[(by*wBlocks+bx)*8:], block[:], true)
			blit(img, bx, by, &block)
		}
	}
	return img
}
