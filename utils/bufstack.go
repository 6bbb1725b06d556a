package utils

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrTruncated is latched into a BufStack by any read that would leave
// the declared bounds of the buffer.
var ErrTruncated = errors.New("read out of buffer bounds")

// BufStack is a bounds-checked cursor over a byte buffer. Reads never
// touch memory outside the declared size: the first violating read
// latches ErrTruncated (also on all parents) and every later read
// returns zero values, so parsers check Err once per structural
// boundary instead of after every field.
type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	buf            []byte
	relativeOffset int
	absoluteOffset int
	size           int
	pos            int
	kind           string
	name           string
	err            error
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		size: len(b),
		kind: kind,
	}
}

func (bs *BufStack) addChild(childBs *BufStack) {
	if bs.childs == nil {
		bs.childs = []*BufStack{childBs}
	} else {
		index := sort.Search(len(bs.childs), func(i int) bool {
			return bs.childs[i].relativeOffset > childBs.relativeOffset
		})
		bs.childs = append(bs.childs, childBs)
		copy(bs.childs[index+1:], bs.childs[index:])
		bs.childs[index] = childBs
	}
}

func (bs *BufStack) bound() int {
	if bs.size != 0 {
		return bs.size
	}
	return len(bs.buf)
}

func (bs *BufStack) fail(format string, args ...interface{}) {
	if bs.err == nil {
		bs.err = errors.Wrapf(ErrTruncated, "%s in %s", fmt.Sprintf(format, args...), bs.StringChain())
	}
	for p := bs.parent; p != nil; p = p.parent {
		if p.err == nil {
			p.err = bs.err
		}
	}
}

// Err reports the first bounds violation seen by this buffer or any of
// its sub buffers.
func (bs *BufStack) Err() error {
	return bs.err
}

// SubBuf creates a child cursor over [offset:] of this buffer. The
// child is clipped to the parent's declared size and can never read
// past it, whatever SetSize it is given later.
func (bs *BufStack) SubBuf(kind string, offset int) *BufStack {
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
		err:            bs.err,
	}
	if offset < 0 || offset > bs.bound() {
		bs.addChild(childBs)
		childBs.fail("Sub buffer offset 0x%x outside parent", offset)
		return childBs
	}
	childBs.buf = bs.buf[offset:bs.bound()]
	bs.addChild(childBs)
	return childBs
}

func (bs *BufStack) SubBufFollowing(kind string) *BufStack {
	if bs.size == 0 {
		bs.fail("Following unsized buffer")
		return bs.parent.SubBuf(kind, bs.relativeOffset)
	}
	return bs.parent.SubBuf(kind, bs.relativeOffset+bs.size)
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

func (bs *BufStack) SetSize(size int) *BufStack {
	if size < 0 || size > len(bs.buf) {
		bs.fail("Declared size 0x%x exceeds available 0x%x", size, len(bs.buf))
		return bs
	}
	bs.size = size
	return bs
}

func (bs *BufStack) Expand() *BufStack {
	bs.size = len(bs.buf)
	return bs
}

func (bs *BufStack) Name() string {
	return bs.name
}

func (bs *BufStack) Size() int {
	return bs.bound()
}

func (bs *BufStack) Kind() string {
	return bs.kind
}

func (bs *BufStack) Parent() *BufStack {
	return bs.parent
}

func (bs *BufStack) RelativeOffset() int {
	return bs.relativeOffset
}

func (bs *BufStack) AbsoluteOffset() int {
	return bs.absoluteOffset
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += fmt.Sprintf("::%s", bs.parent.String())
	}
	return s
}

func (bs *BufStack) stringTree(pad int) string {
	sPad := ""
	for i := 0; i < pad; i++ {
		sPad += ".  "
	}
	s := sPad + bs.String() + "\n"
	pos := 0
	for i, child := range bs.childs {
		if pos >= 0 && child.relativeOffset > pos {
			s += fmt.Sprintf("%s.  gap [o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]\n",
				sPad, pos, child.relativeOffset-pos, bs.absoluteOffset+pos, child.absoluteOffset)
		}
		s += child.stringTree(pad + 1)
		if child.size != 0 {
			pos = child.relativeOffset + child.size
		} else {
			pos = -1
		}
		if child.size > 0 {
			end := child.relativeOffset + child.size
			if i == len(bs.childs)-1 {
				if bs.size > 0 && end > bs.size {
					s += fmt.Sprintf("%s. [OVERGROW]\n", sPad)
				}
			} else {
				if end > bs.childs[i+1].relativeOffset {
					s += fmt.Sprintf("%s. [OVERLAP]\n", sPad)
				}
			}
		}
	}
	return s
}

// StringTree renders the sub buffer layout, marking gaps and overlaps.
// Used by verbose dumps to show how much of a container was understood.
func (bs *BufStack) StringTree() string {
	return bs.stringTree(0)
}

func (bs *BufStack) Raw() []byte {
	return bs.buf[:bs.bound()]
}

func (bs *BufStack) Pos() int {
	return bs.pos
}

func (bs *BufStack) Remaining() int {
	if bs.err != nil {
		return 0
	}
	return bs.bound() - bs.pos
}

// Seek moves the cursor to an absolute position inside this buffer.
// Seeking backwards is allowed for lookahead fixups.
func (bs *BufStack) Seek(pos int) {
	if bs.err != nil {
		return
	}
	if pos < 0 || pos > bs.bound() {
		bs.fail("Seek to 0x%x", pos)
		return
	}
	bs.pos = pos
}

func (bs *BufStack) Read(amount int) []byte {
	if bs.err == nil && amount >= 0 && bs.pos+amount <= bs.bound() {
		oldPos := bs.pos
		bs.pos += amount
		return bs.buf[oldPos:bs.pos]
	}
	if bs.err == nil {
		bs.fail("Read of 0x%x bytes at 0x%x", amount, bs.pos)
	}
	// failed reads return a small zeroed stand-in, large enough for any
	// fixed width decode, without trusting a corrupt length field
	if amount < 0 || amount > 8 {
		amount = 8
	}
	return make([]byte, amount)
}

func (bs *BufStack) Skip(amount int) {
	if bs.err != nil {
		return
	}
	if bs.pos+amount > bs.bound() || bs.pos+amount < 0 {
		bs.fail("Skip of 0x%x bytes at 0x%x", amount, bs.pos)
		return
	}
	bs.pos += amount
}

func (bs *BufStack) ReadLU64() uint64 {
	return binary.LittleEndian.Uint64(bs.Read(8))
}

func (bs *BufStack) ReadLU32() uint32 {
	return binary.LittleEndian.Uint32(bs.Read(4))
}

func (bs *BufStack) ReadLU16() uint16 {
	return binary.LittleEndian.Uint16(bs.Read(2))
}

func (bs *BufStack) ReadBU64() uint64 {
	return binary.BigEndian.Uint64(bs.Read(8))
}

func (bs *BufStack) ReadBU32() uint32 {
	return binary.BigEndian.Uint32(bs.Read(4))
}

func (bs *BufStack) ReadBU16() uint16 {
	return binary.BigEndian.Uint16(bs.Read(2))
}

func (bs *BufStack) ReadByte() byte {
	return bs.Read(1)[0]
}

func (bs *BufStack) ReadLF() float32 {
	return math.Float32frombits(bs.ReadLU32())
}

func (bs *BufStack) ReadBF() float32 {
	return math.Float32frombits(bs.ReadBU32())
}

func (bs *BufStack) ReadStringBuffer(size int) string {
	return BytesToString(bs.Read(size))
}
