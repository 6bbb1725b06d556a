package msv

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/utils"
)

func writeLU32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func TestParseHeader(t *testing.T) {
	var w bytes.Buffer
	writeLU32(&w, MAGIC_MSV5)
	writeLU32(&w, 0x100) // declared file size
	w.Write(make([]byte, 0x08))
	writeLU32(&w, 2) // param count
	w.Write(make([]byte, 2*0x0C))
	writeLU32(&w, 0xdeadbeef)

	bs := utils.NewBufStack("container", w.Bytes())
	version, err := ParseHeader(bs)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if version != MAGIC_MSV5 {
		t.Errorf("Version: got %v", version)
	}
	if v := bs.ReadLU32(); v != 0xdeadbeef {
		t.Errorf("Cursor not at payload start, read 0x%08x", v)
	}
}

func TestParseHeaderRejects(t *testing.T) {
	for _, magic := range []uint32{MAGIC_MBIN, MAGIC_MTRE, 0x11223344} {
		var w bytes.Buffer
		writeLU32(&w, magic)

		bs := utils.NewBufStack("container", w.Bytes())
		if _, err := ParseHeader(bs); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Magic 0x%08x: expected ErrUnsupportedVersion, got %v", magic, err)
		}
	}
}

func TestParseHeaderTruncated(t *testing.T) {
	var w bytes.Buffer
	writeLU32(&w, MAGIC_MSV6)
	writeLU32(&w, 0x100)
	w.Write(make([]byte, 0x08))
	writeLU32(&w, 100) // param count way past the buffer

	bs := utils.NewBufStack("container", w.Bytes())
	if _, err := ParseHeader(bs); !errors.Is(err, utils.ErrTruncated) {
		t.Errorf("Expected ErrTruncated, got %v", err)
	}
}

func TestReadName(t *testing.T) {
	var w bytes.Buffer
	writeLU32(&w, 13)
	writeLU32(&w, 5)
	w.WriteString("hello")

	bs := utils.NewBufStack("container", w.Bytes())
	if name := ReadName(bs); name != "hello" {
		t.Errorf("ReadName: got %q", name)
	}
}

func TestReadNameSingleLength(t *testing.T) {
	// no separate name length field, the bytes following the outer
	// length are already the name
	var w bytes.Buffer
	writeLU32(&w, 4)
	w.WriteString("abcd")

	bs := utils.NewBufStack("container", w.Bytes())
	if name := ReadName(bs); name != "abcd" {
		t.Errorf("ReadName: got %q", name)
	}
}
