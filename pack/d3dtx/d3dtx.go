package d3dtx

import (
	"fmt"
	"image"

	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/pack/d3dtx/textureformats"
	"github.com/mogaika/telltale_converter/pack/msv"
	"github.com/mogaika/telltale_converter/utils"
)

const FILE_EXTENSION = ".d3dtx"

var (
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrCorruptTexture         = errors.New("corrupt texture")
)

type PixelFormat uint32

const (
	// both a8 tags have been observed carrying plain 8 bit luma
	FORMAT_A8     PixelFormat = 16
	FORMAT_A8_ALT PixelFormat = 17
	FORMAT_BC1    PixelFormat = 64
	FORMAT_BC2    PixelFormat = 65
	FORMAT_BC3    PixelFormat = 66
	FORMAT_BC4    PixelFormat = 67
	FORMAT_BC5    PixelFormat = 68
)

func (f PixelFormat) String() string {
	switch f {
	case FORMAT_A8, FORMAT_A8_ALT:
		return "A8"
	case FORMAT_BC1:
		return "BC1"
	case FORMAT_BC2:
		return "BC2"
	case FORMAT_BC3:
		return "BC3"
	case FORMAT_BC4:
		return "BC4"
	case FORMAT_BC5:
		return "BC5"
	}
	return fmt.Sprintf("0x%x", uint32(f))
}

// blockDataSize is the encoded byte count of one block compressed mip
// level.
func (f PixelFormat) blockDataSize(w, h int) int {
	blocks := (w / 4) * (h / 4)
	if f == FORMAT_BC1 || f == FORMAT_BC4 {
		return blocks * 8
	}
	return blocks * 16
}

type Texture struct {
	Name   string
	Width  int
	Height int
	Format PixelFormat
	Layout textureformats.Layout
	Image  *image.NRGBA
}

// each mip table entry is 0x0C unknown + u32 size + 0x08 unknown
const mipEntrySize = 0x18

func Parse(b []byte, wlog *utils.WorkerLog) (*Texture, error) {
	bs := utils.NewBufStack("d3dtx", b)

	if _, err := msv.ParseHeader(bs); err != nil {
		return nil, err
	}

	bs.Skip(0x14)
	t := &Texture{Name: msv.ReadName(bs)}
	bs.Skip(0x0C)

	if bs.ReadByte() == 0x31 {
		bs.Skip(0x08)
		headerJump := bs.ReadLU32()
		bs.Skip(int(headerJump) - 4)
	}

	mipCount := int(bs.ReadLU32())
	t.Width = int(bs.ReadLU32())
	t.Height = int(bs.ReadLU32())
	bs.Skip(0x08)
	t.Format = PixelFormat(bs.ReadLU32())
	bs.Skip(0x5C)
	if err := bs.Err(); err != nil {
		return nil, err
	}

	if mipCount == 0 {
		return nil, errors.Wrap(ErrCorruptTexture, "No mip levels")
	}
	if mipCount > bs.Remaining()/mipEntrySize {
		return nil, errors.Wrapf(ErrCorruptTexture,
			"mip count %d cannot fit in 0x%x payload bytes", mipCount, bs.Remaining())
	}

	mipSizes := make([]int, mipCount)
	for i := range mipSizes {
		bs.Skip(0x0C)
		mipSizes[i] = int(bs.ReadLU32())
		bs.Skip(0x08)
	}

	// levels are listed and stored smallest first, only the last and
	// largest one is decoded
	for _, size := range mipSizes[:mipCount-1] {
		bs.Skip(size)
	}
	if err := bs.Err(); err != nil {
		return nil, err
	}

	mip := bs.SubBuf("mipdata", bs.Pos()).SetName(t.Name).SetSize(mipSizes[mipCount-1])
	if err := decode(t, mip); err != nil {
		return nil, err
	}

	wlog.Verbosef("Texture %q %dx%d %v (%v) of %d mips:\n%s",
		t.Name, t.Width, t.Height, t.Format, t.Layout, mipCount, bs.StringTree())
	return t, nil
}

func decode(t *Texture, mip *utils.BufStack) error {
	w, h := t.Width, t.Height

	switch t.Format {
	case FORMAT_A8, FORMAT_A8_ALT:
		data := mip.Read(w * h)
		if err := mip.Err(); err != nil {
			return err
		}
		t.Image = textureformats.DecodeImageA8(data, w, h)
		t.Layout = textureformats.LAYOUT_GRAY
		return nil
	case FORMAT_BC1, FORMAT_BC2, FORMAT_BC3, FORMAT_BC4, FORMAT_BC5:
	default:
		return errors.Wrapf(ErrUnsupportedPixelFormat, "0x%x", uint32(t.Format))
	}

	if w%4 != 0 || h%4 != 0 {
		return errors.Wrapf(ErrCorruptTexture,
			"block compressed %dx%d is not 4 pixel aligned", w, h)
	}
	data := mip.Read(t.Format.blockDataSize(w, h))
	if err := mip.Err(); err != nil {
		return err
	}

	switch t.Format {
	case FORMAT_BC1:
		t.Image = textureformats.DecompressImageBC1(data, w, h)
		t.Layout = textureformats.LAYOUT_RGB
	case FORMAT_BC2:
		t.Image = textureformats.DecompressImageBC2(data, w, h)
		t.Layout = textureformats.LAYOUT_RGBA
	case FORMAT_BC3:
		t.Image = textureformats.DecompressImageBC3(data, w, h)
		t.Layout = textureformats.LAYOUT_RGBA
	case FORMAT_BC4:
		t.Image = textureformats.DecompressImageBC4(data, w, h)
		t.Layout = textureformats.LAYOUT_GRAY
	case FORMAT_BC5:
		t.Image = textureformats.DecompressImageBC5(data, w, h)
		t.Layout = textureformats.LAYOUT_GRAY_ALPHA
	}
	return nil
}
