package utils

import (
	"testing"

	"github.com/pkg/errors"
)

func TestBufStackReads(t *testing.T) {
	bs := NewBufStack("test", []byte{
		0x01, 0x02, 0x03, 0x04,
		0x00, 0x00, 0x80, 0x3f,
		0xaa, 0xbb,
	})

	if v := bs.ReadLU32(); v != 0x04030201 {
		t.Errorf("ReadLU32: got 0x%x", v)
	}
	if v := bs.ReadLF(); v != 1.0 {
		t.Errorf("ReadLF: got %v", v)
	}
	if v := bs.ReadBU16(); v != 0xaabb {
		t.Errorf("ReadBU16: got 0x%x", v)
	}
	if err := bs.Err(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestBufStackTruncation(t *testing.T) {
	bs := NewBufStack("test", []byte{1, 2, 3})

	if v := bs.ReadLU32(); v != 0 {
		t.Errorf("Overrunning read should return zero, got 0x%x", v)
	}
	if !errors.Is(bs.Err(), ErrTruncated) {
		t.Errorf("Expected ErrTruncated, got %v", bs.Err())
	}
	if v := bs.ReadByte(); v != 0 {
		t.Errorf("Read after violation should stay zero, got 0x%x", v)
	}
}

func TestBufStackChildBounds(t *testing.T) {
	parent := NewBufStack("file", make([]byte, 0x20))
	section := parent.SubBuf("section", 0x08).SetName("test").SetSize(0x04)

	section.Read(4)
	if err := section.Err(); err != nil {
		t.Errorf("In bounds read failed: %v", err)
	}

	section.Read(1)
	if !errors.Is(section.Err(), ErrTruncated) {
		t.Errorf("Child read past declared size must fail")
	}
	if !errors.Is(parent.Err(), ErrTruncated) {
		t.Errorf("Child failure must latch on the parent")
	}
}

func TestBufStackSeek(t *testing.T) {
	bs := NewBufStack("test", []byte{0x10, 0, 0, 0, 0x20, 0, 0, 0})

	bs.ReadLU32()
	pos := bs.Pos()
	if v := bs.ReadLU32(); v != 0x20 {
		t.Errorf("Lookahead read: got 0x%x", v)
	}

	bs.Seek(pos)
	if v := bs.ReadLU32(); v != 0x20 {
		t.Errorf("Read after seek back: got 0x%x", v)
	}

	bs.Seek(0x100)
	if !errors.Is(bs.Err(), ErrTruncated) {
		t.Errorf("Seek outside buffer must fail")
	}
}
