package textureformats

import (
	"image/color"
	"testing"
)

// red 0xF800, blue 0x001F, index table 0xE4 picks indices 0,1,2,3 for
// the first four pixels and index 0 for the rest.
var colorBlockRedBlue = []byte{0x00, 0xF8, 0x1F, 0x00, 0xE4, 0x00, 0x00, 0x00}

func TestAlphaTableDXT5(t *testing.T) {
	interpolated := alphaTableDXT5(255, 0)
	if interpolated != [8]byte{255, 0, 218, 182, 145, 109, 72, 36} {
		t.Errorf("Interpolated table mismatch: %v", interpolated)
	}
	pinned := alphaTableDXT5(0, 255)
	if pinned != [8]byte{0, 255, 51, 102, 153, 204, 0, 255} {
		t.Errorf("Pinned table mismatch: %v", pinned)
	}
}

func TestDecompressBC1(t *testing.T) {
	img := DecompressImageBC1(colorBlockRedBlue, 4, 4)

	for _, c := range []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{255, 0, 0, 255}},
		{1, 0, color.NRGBA{0, 0, 255, 255}},
		{2, 0, color.NRGBA{170, 0, 85, 255}},
		{3, 0, color.NRGBA{85, 0, 170, 255}},
		{0, 1, color.NRGBA{255, 0, 0, 255}},
		{3, 3, color.NRGBA{255, 0, 0, 255}},
	} {
		if got := img.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("Pixel %d,%d: got %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestDecompressBC1MidpointMode(t *testing.T) {
	// color0 <= color1 switches to the midpoint mode where index 3
	// stays black
	img := DecompressImageBC1([]byte{0x1F, 0x00, 0x00, 0xF8, 0xE4, 0x00, 0x00, 0x00}, 4, 4)

	for _, c := range []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{0, 0, 255, 255}},
		{1, 0, color.NRGBA{255, 0, 0, 255}},
		{2, 0, color.NRGBA{128, 0, 128, 255}},
		{3, 0, color.NRGBA{0, 0, 0, 255}},
	} {
		if got := img.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("Pixel %d,%d: got %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestDecompressBC2(t *testing.T) {
	block := make([]byte, 16)
	block[0] = 0xF0
	block[1] = 0x0F
	copy(block[8:], colorBlockRedBlue)

	img := DecompressImageBC2(block, 4, 4)

	for _, c := range []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{255, 0, 0, 0}},
		{1, 0, color.NRGBA{0, 0, 255, 255}},
		{2, 0, color.NRGBA{170, 0, 85, 255}},
		{3, 0, color.NRGBA{85, 0, 170, 0}},
		{0, 1, color.NRGBA{255, 0, 0, 0}},
	} {
		if got := img.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("Pixel %d,%d: got %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestDecompressBC3(t *testing.T) {
	block := make([]byte, 16)
	block[0] = 0xFF
	block[2] = 0x01 // first pixel takes alpha index 1
	copy(block[8:], colorBlockRedBlue)

	img := DecompressImageBC3(block, 4, 4)

	for _, c := range []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{255, 0, 0, 0}},
		{1, 0, color.NRGBA{0, 0, 255, 255}},
		{2, 0, color.NRGBA{170, 0, 85, 255}},
		{3, 3, color.NRGBA{255, 0, 0, 255}},
	} {
		if got := img.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("Pixel %d,%d: got %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestDecompressBC4(t *testing.T) {
	img := DecompressImageBC4([]byte{0xFF, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}, 4, 4)

	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("Pixel 0,0: got %v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Pixel 1,0: got %v", got)
	}
}

func TestDecompressBC5(t *testing.T) {
	block := make([]byte, 16)
	block[0] = 0xFF  // x channel solid 255
	block[9] = 0xFF  // y channel pinned table
	block[10] = 0x01 // first pixel takes y index 1
	img := DecompressImageBC5(block, 4, 4)

	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Pixel 0,0: got %v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{255, 255, 255, 0}) {
		t.Errorf("Pixel 1,0: got %v", got)
	}
}

func TestDecodeA8(t *testing.T) {
	img := DecodeImageA8([]byte{1, 2, 3, 4}, 2, 2)

	for _, c := range []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{1, 1, 1, 255}},
		{1, 0, color.NRGBA{2, 2, 2, 255}},
		{0, 1, color.NRGBA{3, 3, 3, 255}},
		{1, 1, color.NRGBA{4, 4, 4, 255}},
	} {
		if got := img.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("Pixel %d,%d: got %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestBlockPlacement(t *testing.T) {
	solid := func(c0 uint16) []byte {
		return []byte{byte(c0), byte(c0 >> 8), 0, 0, 0, 0, 0, 0}
	}
	data := append(solid(0xF800), solid(0x001F)...) // red, blue
	data = append(data, solid(0x07E0)...)           // green
	data = append(data, solid(0xFFFF)...)           // white

	img := DecompressImageBC1(data, 8, 8)

	if len(img.Pix) != 8*8*4 {
		t.Fatalf("Decoded size mismatch: %d", len(img.Pix))
	}
	for _, c := range []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{255, 0, 0, 255}},
		{3, 3, color.NRGBA{255, 0, 0, 255}},
		{4, 0, color.NRGBA{0, 0, 255, 255}},
		{0, 4, color.NRGBA{0, 255, 0, 255}},
		{7, 7, color.NRGBA{255, 255, 255, 255}},
	} {
		if got := img.NRGBAAt(c.x, c.y); got != c.want {
			t.Errorf("Pixel %d,%d: got %v, want %v", c.x, c.y, got, c.want)
		}
	}
}
