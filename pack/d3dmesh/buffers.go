package d3dmesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/utils"
)

// Attribute encodings seen in the wild.
const (
	formatFloat2      = 3  // two f32
	formatFloat3      = 4  // three f32
	formatSShort4Norm = 26 // four i16, renormalized
	formatQuantized4  = 27 // four u16 scaled through clamps
	formatUByte4      = 33
	formatSByte4Norm  = 38 // four i8, renormalized
	formatUByte4B     = 39
	formatPacked10    = 42 // 2:10:10:10 packed u32
	formatSShort2     = 24 // two i16 scaled through clamps
	formatUShort2     = 25 // two u16 scaled through clamps
)

// Position quantization clamps. Quantized formats store fractions of
// the bounding box spanned by min and multiplier. A nonzero
// orientation float marks the axis carrying the two extra precision
// bits of packed positions.
type modelClamps struct {
	min         mgl32.Vec3
	multiplier  mgl32.Vec3
	orientation int
}

const (
	orientationQ = iota
	orientationX
	orientationY
	orientationZ
)

type uvClamps struct {
	multiplier mgl32.Vec2
	start      mgl32.Vec2
}

var defaultUVClamps = uvClamps{multiplier: mgl32.Vec2{1, 1}}

func readVec3(bs *utils.BufStack) mgl32.Vec3 {
	return mgl32.Vec3{bs.ReadLF(), bs.ReadLF(), bs.ReadLF()}
}

func parseModelClamps(bs *utils.BufStack) modelClamps {
	bs.Skip(0x08)
	min := readVec3(bs)
	max := readVec3(bs)
	bs.Skip(0x24)
	orientation := orientationQ
	if bs.ReadLF() != 0 {
		orientation = orientationX
	}
	if bs.ReadLF() != 0 {
		orientation = orientationY
	}
	if bs.ReadLF() != 0 {
		orientation = orientationZ
	}
	bs.Skip(0x18)
	return modelClamps{min: min, multiplier: max.Sub(min), orientation: orientation}
}

// vertexChannel remembers which buffer an attribute lives in and how
// it is encoded. Buffer zero means the attribute is absent.
type vertexChannel struct {
	buffer int
	format int
}

type vertexLayout struct {
	positions vertexChannel
	weights   vertexChannel
	bones     vertexChannel
	normals   vertexChannel
	tangents  vertexChannel
	binormals vertexChannel
	colors    vertexChannel
	colors2   vertexChannel
	uv        [6]vertexChannel
}

func parseVertexLayout(bs *utils.BufStack, descriptorCount int) (vertexLayout, error) {
	var layout vertexLayout
	for i := 0; i < descriptorCount; i++ {
		if bs.Err() != nil {
			break
		}
		// every descriptor field is stored off by one
		attrType := bs.ReadLU32() + 1
		ch := vertexChannel{format: int(bs.ReadLU32()) + 1}
		attrLayer := bs.ReadLU32() + 1
		ch.buffer = int(bs.ReadLU32()) + 1
		bs.Skip(0x04) // offset inside the buffer

		switch {
		case attrType == 1 && attrLayer == 1:
			layout.positions = ch
		case attrType == 2 && attrLayer == 1:
			layout.normals = ch
		case attrType == 2 && attrLayer == 2:
			layout.binormals = ch
		case attrType == 3 && attrLayer == 1:
			layout.tangents = ch
		case attrType == 4 && attrLayer == 1:
			layout.weights = ch
		case attrType == 5 && attrLayer == 1:
			layout.bones = ch
		case attrType == 6 && attrLayer == 1:
			layout.colors = ch
		case attrType == 6 && attrLayer == 2:
			layout.colors2 = ch
		case attrType == 7 && attrLayer >= 1 && attrLayer <= 6:
			layout.uv[attrLayer-1] = ch
		default:
			return layout, errors.Wrapf(ErrCorruptMesh,
				"Unknown vertex buffer combination type=%d layer=%d", attrType, attrLayer)
		}
	}
	return layout, bs.Err()
}

type vertexParams struct {
	faceDataStart int
	vertStart     int
	vertFlags     uint32
	vertCount     int
	clamps        modelClamps
	uvClamps      [6]*uvClamps
	boneIds       []uint64
}

// parseVertexData reads the buffer descriptor table, the face list and
// every present vertex attribute stream into the mesh.
func parseVertexData(bs *utils.BufStack, p *vertexParams, m *Mesh) error {
	bs.Skip(0x08)
	faceBufferCount := int(bs.ReadLU32())
	descriptorCount := int(bs.ReadLU32())
	extraBufferCount := int(bs.ReadLU32())
	if err := bs.Err(); err != nil {
		return err
	}

	layout, err := parseVertexLayout(bs, descriptorCount)
	if err != nil {
		return err
	}

	if faceBufferCount > 2 {
		return errors.Wrapf(ErrCorruptMesh, "Unexpected face buffer count %d", faceBufferCount)
	}
	facePointCount, facePointCountB := 0, 0
	for i := 0; i < faceBufferCount; i++ {
		bs.Skip(0x0C)
		count := int(bs.ReadLU32())
		bs.Skip(0x04) // byte length
		if i == 0 {
			facePointCount = count
		} else {
			facePointCountB = count
		}
	}
	bs.Skip(extraBufferCount * 0x14)

	bs.Seek(p.faceDataStart)
	for i := 0; i < facePointCount/3; i++ {
		if bs.Err() != nil {
			break
		}
		m.Faces = append(m.Faces, [3]uint16{bs.ReadLU16(), bs.ReadLU16(), bs.ReadLU16()})
	}
	// the second face buffer duplicates ranges of the first, skip it
	if faceBufferCount == 2 {
		bs.Skip((facePointCountB / 3) * 0x06)
	}

	var bonesRaw [][4]byte
	switch p.vertFlags {
	case 0x00, 0x01, 0x03, 0x05, 0x09, 0x21:
	case 0x31:
		// positions and bone indices live in a separate block behind
		// the vertex parameter section
		after := bs.Pos()
		bs.Seek(p.vertStart)
		for i := 0; i < p.vertCount; i++ {
			if bs.Err() != nil {
				break
			}
			m.Positions = append(m.Positions, readVec3(bs))
			bonesRaw = append(bonesRaw,
				[4]byte{bs.ReadByte(), bs.ReadByte(), bs.ReadByte(), bs.ReadByte()})
			bs.Skip(0x08)
		}
		bs.Seek(after)
	default:
		return errors.Wrapf(ErrCorruptMesh, "Unknown vertex flags combination 0x%x", p.vertFlags)
	}

	if layout.positions.buffer > 0 {
		switch layout.positions.format {
		case formatFloat3:
			for i := 0; i < p.vertCount; i++ {
				if bs.Err() != nil {
					break
				}
				m.Positions = append(m.Positions, readVec3(bs))
			}
		case formatQuantized4:
			for i := 0; i < p.vertCount; i++ {
				if bs.Err() != nil {
					break
				}
				x := float32(bs.ReadLU16())/65535.0*p.clamps.multiplier[0] + p.clamps.min[0]
				y := float32(bs.ReadLU16())/65535.0*p.clamps.multiplier[1] + p.clamps.min[1]
				z := float32(bs.ReadLU16())/65535.0*p.clamps.multiplier[2] + p.clamps.min[2]
				bs.Skip(0x02)
				m.Positions = append(m.Positions, mgl32.Vec3{x, y, z})
			}
		case formatPacked10:
			for i := 0; i < p.vertCount; i++ {
				if bs.Err() != nil {
					break
				}
				packed := bs.ReadLU32()
				x := float32(packed&0x3FF) / 1023.0
				y := float32((packed>>10)&0x3FF) / 1023.0
				z := float32((packed>>20)&0x3FF) / 1023.0
				switch p.clamps.orientation {
				case orientationX:
					x = x/4 + float32(packed>>30)/4
				case orientationY:
					y = y/4 + float32(packed>>30)/4
				case orientationZ:
					z = z/4 + float32(packed>>30)/4
				}
				m.Positions = append(m.Positions, mgl32.Vec3{
					x*p.clamps.multiplier[0] + p.clamps.min[0],
					y*p.clamps.multiplier[1] + p.clamps.min[1],
					z*p.clamps.multiplier[2] + p.clamps.min[2],
				})
			}
		default:
			return errors.Wrapf(ErrCorruptMesh, "Unknown position format %d", layout.positions.format)
		}
	}

	if layout.weights.buffer > 0 {
		switch layout.weights.format {
		case formatQuantized4:
			for i := 0; i < p.vertCount; i++ {
				if bs.Err() != nil {
					break
				}
				m.Weights = append(m.Weights, mgl32.Vec4{
					float32(bs.ReadLU16()) / 65535.0,
					float32(bs.ReadLU16()) / 65535.0,
					float32(bs.ReadLU16()) / 65535.0,
					float32(bs.ReadLU16()) / 65535.0,
				})
			}
		case formatPacked10:
			// 2:10:10:10 split over the second to fourth weight, the
			// top bits widen the second weight by 0.125 steps and the
			// first weight is whatever remains to one
			for i := 0; i < p.vertCount; i++ {
				if bs.Err() != nil {
					break
				}
				packed := bs.ReadLU32()
				w2 := float32(packed&0x3FF)/1023.0/8.0 + float32(packed>>30)/8.0
				w3 := float32((packed>>10)&0x3FF) / 1023.0 / 3.0
				w4 := float32((packed>>20)&0x3FF) / 1023.0 / 4.0
				m.Weights = append(m.Weights, mgl32.Vec4{1 - w2 - w3 - w4, w2, w3, w4})
			}
		default:
			return errors.Wrapf(ErrCorruptMesh, "Unknown weights format %d", layout.weights.format)
		}
	}

	if layout.bones.buffer > 0 {
		switch layout.bones.format {
		case formatUByte4:
			for i := 0; i < p.vertCount; i++ {
				if bs.Err() != nil {
					break
				}
				bonesRaw = append(bonesRaw,
					[4]byte{bs.ReadByte(), bs.ReadByte(), bs.ReadByte(), bs.ReadByte()})
			}
		default:
			return errors.Wrapf(ErrCorruptMesh, "Unknown bone format %d", layout.bones.format)
		}
	}

	if layout.normals.buffer > 0 {
		switch layout.normals.format {
		case formatSByte4Norm:
			for i := 0; i < p.vertCount; i++ {
				if bs.Err() != nil {
					break
				}
				n := mgl32.Vec3{
					float32(int8(bs.ReadByte())) / 127.0,
					float32(int8(bs.ReadByte())) / 127.0,
					float32(int8(bs.ReadByte())) / 127.0,
				}
				bs.Skip(0x01)
				m.Normals = append(m.Normals, n.Normalize())
			}
		case formatSShort4Norm:
			for i := 0; i < p.vertCount; i++ {
				if bs.Err() != nil {
					break
				}
				n := mgl32.Vec3{
					float32(int16(bs.ReadLU16())) / 32767.0,
					float32(int16(bs.ReadLU16())) / 32767.0,
					float32(int16(bs.ReadLU16())) / 32767.0,
				}
				bs.Skip(0x02)
				m.Normals = append(m.Normals, n.Normalize())
			}
		default:
			return errors.Wrapf(ErrCorruptMesh, "Unknown normal format %d", layout.normals.format)
		}
	}

	if layout.tangents.buffer > 0 {
		if layout.tangents.format != formatSByte4Norm {
			return errors.Wrapf(ErrCorruptMesh, "Unknown tangent format %d", layout.tangents.format)
		}
		bs.Skip(p.vertCount * 0x04)
	}
	if layout.binormals.buffer > 0 {
		if layout.binormals.format != formatSByte4Norm {
			return errors.Wrapf(ErrCorruptMesh, "Unknown binormal format %d", layout.binormals.format)
		}
		bs.Skip(p.vertCount * 0x04)
	}

	var uvLayers [6][]mgl32.Vec2
	readUV := func(layer int) error {
		ch := layout.uv[layer]
		if ch.buffer == 0 {
			return nil
		}
		uvs, err := parseUVList(bs, p.vertCount, ch.format, p.uvClamps[layer])
		if err != nil {
			return err
		}
		uvLayers[layer] = uvs
		return nil
	}
	// the two overflow layers sit in front of the color streams
	for _, layer := range []int{4, 5} {
		if err := readUV(layer); err != nil {
			return err
		}
	}

	for _, ch := range []vertexChannel{layout.colors, layout.colors2} {
		if ch.buffer == 0 {
			continue
		}
		switch ch.format {
		case formatUByte4, formatUByte4B:
			bs.Skip(p.vertCount * 0x04)
		default:
			return errors.Wrapf(ErrCorruptMesh, "Unknown color format %d", ch.format)
		}
	}

	for layer := 0; layer < 4; layer++ {
		if err := readUV(layer); err != nil {
			return err
		}
	}
	for _, uvs := range uvLayers {
		if len(uvs) > 0 {
			m.UVs = append(m.UVs, uvs)
		}
	}

	// rewrite palette indices into bone name checksums
	for _, raw := range bonesRaw {
		var ref [4]uint64
		for i, idx := range raw {
			if int(idx) >= len(p.boneIds) {
				return errors.Wrapf(ErrCorruptMesh,
					"Bone palette index %d out of range (%d entries)", idx, len(p.boneIds))
			}
			ref[i] = p.boneIds[idx]
		}
		m.Bones = append(m.Bones, ref)
	}
	return bs.Err()
}

func parseUVList(bs *utils.BufStack, count, format int, clamps *uvClamps) ([]mgl32.Vec2, error) {
	if clamps == nil {
		clamps = &defaultUVClamps
	}
	var uvs []mgl32.Vec2
	for i := 0; i < count; i++ {
		if bs.Err() != nil {
			break
		}
		var uv mgl32.Vec2
		switch format {
		case formatFloat2:
			uv = mgl32.Vec2{bs.ReadLF(), bs.ReadLF()}
		case formatSShort2:
			uv = mgl32.Vec2{
				float32(int16(bs.ReadLU16()))/32767.0*clamps.multiplier[0] + clamps.start[0],
				float32(int16(bs.ReadLU16()))/32767.0*clamps.multiplier[1] + clamps.start[1],
			}
		case formatUShort2:
			uv = mgl32.Vec2{
				float32(bs.ReadLU16())/65535.0*clamps.multiplier[0] + clamps.start[0],
				float32(bs.ReadLU16())/65535.0*clamps.multiplier[1] + clamps.start[1],
			}
		default:
			return nil, errors.Wrapf(ErrCorruptMesh, "Unknown uv format %d", format)
		}
		uvs = append(uvs, uv)
	}
	return uvs, nil
}
