package imgconv

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mogaika/telltale_converter/config"
	"github.com/mogaika/telltale_converter/pack/d3dtx/textureformats"
)

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = c.A
	}
	return img
}

func TestHasTranslucency(t *testing.T) {
	opaque := fill(2, 2, color.NRGBA{255, 255, 255, 255})
	if HasTranslucency(opaque, textureformats.LAYOUT_RGBA) {
		t.Errorf("Fully opaque image reported translucent")
	}

	translucent := fill(2, 2, color.NRGBA{255, 255, 255, 255})
	translucent.Pix[7] = 200
	if !HasTranslucency(translucent, textureformats.LAYOUT_RGBA) {
		t.Errorf("Translucent image reported opaque")
	}

	// layouts without source alpha ignore the alpha bytes
	if HasTranslucency(translucent, textureformats.LAYOUT_RGB) {
		t.Errorf("RGB layout reported translucent")
	}
}

func TestConvertNormalMapRGBA(t *testing.T) {
	img := fill(1, 1, color.NRGBA{10, 20, 30, 40})
	out, err := ConvertNormalMap(img, textureformats.LAYOUT_RGBA)
	if err != nil {
		t.Fatalf("ConvertNormalMap: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{215, 30, 20, 255}) {
		t.Errorf("Got %v", got)
	}
}

func TestConvertNormalMapGrayAlpha(t *testing.T) {
	// x = 1, y = -1 leaves nothing for z
	img := fill(1, 1, color.NRGBA{255, 255, 255, 0})
	out, err := ConvertNormalMap(img, textureformats.LAYOUT_GRAY_ALPHA)
	if err != nil {
		t.Fatalf("ConvertNormalMap: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 127, 255}) {
		t.Errorf("Got %v", got)
	}
}

func TestConvertNormalMapGrayFails(t *testing.T) {
	if _, err := ConvertNormalMap(fill(1, 1, color.NRGBA{}), textureformats.LAYOUT_GRAY); err == nil {
		t.Errorf("Expected error for gray layout")
	}
}

func TestConvertSpecularMap(t *testing.T) {
	img := fill(1, 1, color.NRGBA{10, 20, 30, 40})
	out, err := ConvertSpecularMap(img, textureformats.LAYOUT_RGBA)
	if err != nil {
		t.Fatalf("ConvertSpecularMap: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{225, 215, 20, 10}) {
		t.Errorf("Got %v", got)
	}

	// without source alpha the inverted alpha channel saturates
	out, err = ConvertSpecularMap(img, textureformats.LAYOUT_RGB)
	if err != nil {
		t.Fatalf("ConvertSpecularMap: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{225, 255, 20, 10}) {
		t.Errorf("Got %v", got)
	}

	if _, err := ConvertSpecularMap(img, textureformats.LAYOUT_GRAY); err == nil {
		t.Errorf("Expected error for gray layout")
	}
}

func TestHeightMapFileName(t *testing.T) {
	for _, c := range []struct{ in, want string }{
		{"wall_nm.png", "wall_height.png"},
		{"wall.png", "wall_height.png"},
		{"wall_nm.webp", "wall_height.webp"},
	} {
		if got := HeightMapFileName(c.in); got != c.want {
			t.Errorf("%q: got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDeriveHeightMap(t *testing.T) {
	normals := fill(8, 8, color.NRGBA{128, 128, 255, 255})
	// slope the left half up along x
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			normals.Pix[(y*8+x)*4] = 96
		}
	}

	single := DeriveHeightMap(normals, 1)
	if single.Bounds().Dx() != 8 || single.Bounds().Dy() != 8 {
		t.Fatalf("Bounds mismatch: %v", single.Bounds())
	}

	// column split must not change the result
	parallel := DeriveHeightMap(normals, 3)
	if !bytes.Equal(single.Pix, parallel.Pix) {
		t.Errorf("Worker count changed the output")
	}
}

func TestSaveImage(t *testing.T) {
	old := config.GetSettings()
	defer config.SetSettings(old)

	img := fill(2, 2, color.NRGBA{1, 2, 3, 255})
	dir := t.TempDir()

	settings := old
	settings.TextureFormat = config.IMAGE_FORMAT_PNG
	config.SetSettings(settings)
	pngPath := filepath.Join(dir, "out.png")
	if err := SaveImage(pngPath, img); err != nil {
		t.Fatalf("SaveImage png: %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Bounds().Dx() != 2 || decoded.Bounds().Dy() != 2 {
		t.Errorf("Decoded bounds mismatch: %v", decoded.Bounds())
	}

	settings.TextureFormat = config.IMAGE_FORMAT_WEBP
	config.SetSettings(settings)
	webpPath := filepath.Join(dir, "out.webp")
	if err := SaveImage(webpPath, img); err != nil {
		t.Fatalf("SaveImage webp: %v", err)
	}
	header, err := os.ReadFile(webpPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(header) < 12 || string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		t.Errorf("Missing RIFF WEBP header")
	}
}
