package imgconv

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/config"
	"github.com/mogaika/telltale_converter/pack/d3dtx/textureformats"
)

// HasTranslucency reports whether any pixel of a decoded texture is not
// fully opaque. Layouts without a source alpha channel never are.
func HasTranslucency(img *image.NRGBA, layout textureformats.Layout) bool {
	if !layout.HasAlpha() {
		return false
	}
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xFF {
			return true
		}
	}
	return false
}

// ConvertNormalMap rebuilds a plain tangent space normal map from the
// channel swizzles the game stores them with.
func ConvertNormalMap(img *image.NRGBA, layout textureformats.Layout) (*image.NRGBA, error) {
	out := image.NewNRGBA(img.Bounds())
	switch layout {
	case textureformats.LAYOUT_RGBA:
		// x lives inverted in alpha, y and z swap channels
		for i := 0; i < len(img.Pix); i += 4 {
			out.Pix[i+0] = 255 - img.Pix[i+3]
			out.Pix[i+1] = img.Pix[i+2]
			out.Pix[i+2] = img.Pix[i+1]
			out.Pix[i+3] = 0xFF
		}
	case textureformats.LAYOUT_GRAY_ALPHA:
		// two channel maps carry x and y only, z is reconstructed
		for i := 0; i < len(img.Pix); i += 4 {
			x := float64(img.Pix[i+0])/255*2 - 1
			y := float64(img.Pix[i+3])/255*2 - 1
			z := math.Sqrt(math.Max(0, 1-x*x-y*y))
			out.Pix[i+0] = byte((x + 1) / 2 * 255)
			out.Pix[i+1] = byte((y + 1) / 2 * 255)
			out.Pix[i+2] = byte((z + 1) / 2 * 255)
			out.Pix[i+3] = 0xFF
		}
	case textureformats.LAYOUT_RGB:
		copy(out.Pix, img.Pix)
	default:
		return nil, errors.Errorf("Cannot treat %v image as normal map", layout)
	}
	return out, nil
}

// ConvertSpecularMap repacks the stored specular channels into the
// order the exported materials expect.
func ConvertSpecularMap(img *image.NRGBA, layout textureformats.Layout) (*image.NRGBA, error) {
	switch layout {
	case textureformats.LAYOUT_RGB, textureformats.LAYOUT_RGBA:
	default:
		return nil, errors.Errorf("Cannot treat %v image as specular map", layout)
	}
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b := img.Pix[i+0], img.Pix[i+1], img.Pix[i+2]
		a := byte(0)
		if layout == textureformats.LAYOUT_RGBA {
			a = img.Pix[i+3]
		}
		out.Pix[i+0] = 255 - b
		out.Pix[i+1] = 255 - a
		out.Pix[i+2] = g
		out.Pix[i+3] = r
	}
	return out, nil
}

// SaveImage encodes an image into the configured texture format.
func SaveImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Cannot create %q", path)
	}
	defer f.Close()

	switch config.GetSettings().TextureFormat {
	case config.IMAGE_FORMAT_WEBP:
		err = nativewebp.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	return errors.Wrapf(err, "Cannot encode %q", path)
}

// HeightMapFileName derives the height map name from the normal map
// file name, wall_nm.png becomes wall_height.png.
func HeightMapFileName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return strings.TrimSuffix(stem, "_nm") + "_height" + ext
}
