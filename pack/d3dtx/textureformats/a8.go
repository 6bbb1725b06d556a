package textureformats

import "image"

// DecodeImageA8 widens a raw 8 bit single channel image to opaque
// grayscale RGBA. Expects data to hold at least w*h bytes.
func DecodeImageA8(data []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		v := data[i]
		img.Pix[i*4+0] = v
		img.Pix[i*4+1] = v
		img.Pix[i*4+2] = v
		img.Pix[i*4+3] = 0xFF
	}
	return img
}
