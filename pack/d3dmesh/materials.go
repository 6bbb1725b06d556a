package d3dmesh

import (
	"github.com/mogaika/telltale_converter/hashdb"
	"github.com/mogaika/telltale_converter/utils"
)

// Material carries the texture bindings of one material block. All
// shader parameters are skipped, only texture references matter for
// conversion.
type Material struct {
	Id       uint64
	Textures []TextureRef
}

// materialGroup references a material by id. Draw ranges point at
// groups, not at materials directly.
type materialGroup struct {
	MaterialId uint64
}

// Parameter payload sizes in bytes, all read behind an 8 byte name
// checksum and discarded.
const (
	paramSizeFloat = 8 + 0x04
	paramSizeVec2  = 8 + 0x08
	paramSizeVec3  = 8 + 0x0C
	paramSizeVec4  = 8 + 0x10
	paramSizeBool  = 8 + 0x01
	paramSizeHash  = 8 + 0x08
	paramSizeHash2 = 8 + 0x10
)

const HASH_MATERIAL_TEXTURES = 0x52a09151f1c3f2c7

func parseMaterial(bs *utils.BufStack, wlog *utils.WorkerLog) (Material, error) {
	m := Material{Id: bs.ReadLU64()}
	bs.Skip(0x08) // property set checksum
	headerSize := bs.ReadLU32()
	sectionEnd := bs.Pos() + int(headerSize) - 4

	bs.Skip(0x0C) // two unknowns and an inner header size
	unk3Count := bs.ReadLU32()
	bs.Skip(int(unk3Count) * 0x08)

	paramCount := int(bs.ReadLU32())
paramLoop:
	for i := 0; i < paramCount; i++ {
		if bs.Err() != nil {
			break
		}
		paramHash := bs.ReadLU64()
		count := int(bs.ReadLU32())

		switch paramHash {
		case 0x0000000000000000, 0xa98f0652295de685, 0xfa21e4c88ae64d31,
			0x254edc517b59bb47, 0x7caceebcd26d075c, 0xded5e1937b1689ef,
			0x181afb3ebb8f90ae, 0x8c44858f42cd32d5:
			// no payload
		case 0x264ac2f2544e517c, 0x4e7d91f16f97a3c2, 0xfec9ffdf25b43917:
			// these carry no count field, back up over it
			bs.Seek(bs.Pos() - 0x04)
		case 0x873c2f1835428297:
			bs.Skip(0x08)
		case HASH_MATERIAL_TEXTURES:
			for j := 0; j < count; j++ {
				if bs.Err() != nil {
					break
				}
				ref := parseTextureRef(bs, wlog)
				wlog.Verbosef("Material %v texture: %v/%v %q",
					hashdb.FormatHash(m.Id), ref.Kind, ref.Slot, ref.Name)
				m.Textures = append(m.Textures, ref)
			}
		case 0xbae4cbd77f139a91:
			bs.Skip(count * paramSizeFloat)
		case 0x7bbca244e61f1a07:
			bs.Skip(count * paramSizeVec2)
		case 0x394c43af4ff52c94:
			bs.Skip(count * paramSizeVec3)
		case 0xb76e07d6bb899bfe, 0xc16762f7763d62ab:
			bs.Skip(count * paramSizeVec4)
		case 0x9004c5587575d6c0:
			bs.Skip(count * paramSizeBool)
		case 0x004f023463d89fb0:
			bs.Skip(count * paramSizeHash)
		case 0xe2ba743e952f9338:
			bs.Skip(count * paramSizeHash2)
		default:
			// parameters cannot be sized without knowing their layout,
			// give up on the rest and rely on the section end
			wlog.Printf("Warning: unknown material hash %v", hashdb.FormatHash(paramHash))
			break paramLoop
		}
	}

	bs.Seek(sectionEnd)
	return m, bs.Err()
}

func parseMaterialGroup(bs *utils.BufStack) materialGroup {
	bs.Skip(0x04)
	g := materialGroup{MaterialId: bs.ReadLU64()}
	bs.Skip(0x40)
	return g
}
