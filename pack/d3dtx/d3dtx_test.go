package d3dtx

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/pack/d3dtx/textureformats"
	"github.com/mogaika/telltale_converter/pack/msv"
	"github.com/mogaika/telltale_converter/utils"
)

func writeLU32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func buildTexture(name string, mipSizes []uint32, width, height, format uint32, payload []byte) []byte {
	var w bytes.Buffer
	writeLU32(&w, msv.MAGIC_MSV5)
	writeLU32(&w, 0) // declared file size
	w.Write(make([]byte, 0x08))
	writeLU32(&w, 0) // param count

	w.Write(make([]byte, 0x14))
	writeLU32(&w, uint32(len(name))+8)
	writeLU32(&w, uint32(len(name)))
	w.WriteString(name)
	w.Write(make([]byte, 0x0C))
	w.WriteByte(0) // no extended header

	writeLU32(&w, uint32(len(mipSizes)))
	writeLU32(&w, width)
	writeLU32(&w, height)
	w.Write(make([]byte, 0x08))
	writeLU32(&w, format)
	w.Write(make([]byte, 0x5C))
	for _, size := range mipSizes {
		w.Write(make([]byte, 0x0C))
		writeLU32(&w, size)
		w.Write(make([]byte, 0x08))
	}
	w.Write(payload)
	return w.Bytes()
}

func TestParseBC1(t *testing.T) {
	// second mip carries red 0xF800, blue 0x001F and index table 0xE4
	payload := append(make([]byte, 8), 0x00, 0xF8, 0x1F, 0x00, 0xE4, 0x00, 0x00, 0x00)
	b := buildTexture("stone_a", []uint32{8, 8}, 4, 4, uint32(FORMAT_BC1), payload)

	tex, err := Parse(b, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tex.Name != "stone_a" || tex.Width != 4 || tex.Height != 4 {
		t.Errorf("Header mismatch: %q %dx%d", tex.Name, tex.Width, tex.Height)
	}
	if tex.Format != FORMAT_BC1 || tex.Layout != textureformats.LAYOUT_RGB {
		t.Errorf("Format mismatch: %v %v", tex.Format, tex.Layout)
	}
	if got := tex.Image.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("Pixel 0,0: got %v", got)
	}
	if got := tex.Image.NRGBAAt(1, 0); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("Pixel 1,0: got %v", got)
	}
}

func TestParseA8(t *testing.T) {
	// mip is larger than the image, the trailing bytes are ignored
	b := buildTexture("mask_a", []uint32{8}, 2, 2, uint32(FORMAT_A8), []byte{9, 30, 200, 255, 1, 2, 3, 4})

	tex, err := Parse(b, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tex.Layout != textureformats.LAYOUT_GRAY {
		t.Errorf("Layout mismatch: %v", tex.Layout)
	}
	if got := tex.Image.NRGBAAt(0, 0); got != (color.NRGBA{9, 9, 9, 255}) {
		t.Errorf("Pixel 0,0: got %v", got)
	}
	if got := tex.Image.NRGBAAt(1, 1); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Pixel 1,1: got %v", got)
	}
}

func TestLayoutTags(t *testing.T) {
	for _, c := range []struct {
		format PixelFormat
		size   uint32
		layout textureformats.Layout
	}{
		{FORMAT_BC1, 8, textureformats.LAYOUT_RGB},
		{FORMAT_BC2, 16, textureformats.LAYOUT_RGBA},
		{FORMAT_BC3, 16, textureformats.LAYOUT_RGBA},
		{FORMAT_BC4, 8, textureformats.LAYOUT_GRAY},
		{FORMAT_BC5, 16, textureformats.LAYOUT_GRAY_ALPHA},
	} {
		b := buildTexture("t", []uint32{c.size}, 4, 4, uint32(c.format), make([]byte, c.size))
		tex, err := Parse(b, nil)
		if err != nil {
			t.Fatalf("Parse %v: %v", c.format, err)
		}
		if tex.Layout != c.layout {
			t.Errorf("Format %v: got layout %v, want %v", c.format, tex.Layout, c.layout)
		}
		if len(tex.Image.Pix) != 4*4*4 {
			t.Errorf("Format %v: decoded size %d", c.format, len(tex.Image.Pix))
		}
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	b := buildTexture("t", []uint32{8}, 4, 4, 99, make([]byte, 8))
	if _, err := Parse(b, nil); !errors.Is(err, ErrUnsupportedPixelFormat) {
		t.Errorf("Got %v, want ErrUnsupportedPixelFormat", err)
	}
}

func TestParseZeroMips(t *testing.T) {
	b := buildTexture("t", nil, 4, 4, uint32(FORMAT_BC1), nil)
	if _, err := Parse(b, nil); !errors.Is(err, ErrCorruptTexture) {
		t.Errorf("Got %v, want ErrCorruptTexture", err)
	}
}

func TestParseNotBlockAligned(t *testing.T) {
	b := buildTexture("t", []uint32{16}, 6, 4, uint32(FORMAT_BC1), make([]byte, 16))
	if _, err := Parse(b, nil); !errors.Is(err, ErrCorruptTexture) {
		t.Errorf("Got %v, want ErrCorruptTexture", err)
	}
}

func TestParseTruncated(t *testing.T) {
	// declared mip is longer than the remaining file
	b := buildTexture("t", []uint32{8}, 4, 4, uint32(FORMAT_BC1), make([]byte, 4))
	if _, err := Parse(b, nil); !errors.Is(err, utils.ErrTruncated) {
		t.Errorf("Got %v, want ErrTruncated", err)
	}

	// cut inside the fixed header
	b = buildTexture("t", []uint32{8}, 4, 4, uint32(FORMAT_BC1), make([]byte, 8))
	if _, err := Parse(b[:0x30], nil); !errors.Is(err, utils.ErrTruncated) {
		t.Errorf("Got %v, want ErrTruncated", err)
	}

	// mip count that cannot fit the remaining payload, the count field
	// sits right behind the name block and the header flag byte
	b = buildTexture("t", []uint32{8}, 4, 4, uint32(FORMAT_BC1), make([]byte, 8))
	binary.LittleEndian.PutUint32(b[0x3E:], 0x10000000)
	if _, err := Parse(b, nil); !errors.Is(err, ErrCorruptTexture) {
		t.Errorf("Got %v, want ErrCorruptTexture", err)
	}
}
