package d3dmesh

import (
	"github.com/mogaika/telltale_converter/utils"
)

// Polygon describes one draw range inside the shared face list. Face
// offsets count triangles, the raw file counts single face points.
type Polygon struct {
	VertexMin   int
	VertexMax   int
	VertexStart int
	FaceStart   int
	FaceCount   int
	IndexCount  int

	// group index while parsing, rewritten to an index into
	// Mesh.Materials before Parse returns
	Material int
}

// parsePolygons walks the level of detail table. Only the first level
// contributes draw ranges, the rest together with their per level bone
// lists is skipped over.
func parsePolygons(bs *utils.BufStack) []Polygon {
	sectionEnd := bs.Pos() + int(bs.ReadLU32())
	lodCount := int(bs.ReadLU32())

	polygons := []Polygon{}
	for lod := 0; lod < lodCount; lod++ {
		if bs.Err() != nil {
			break
		}
		lodEnd := bs.Pos() + int(bs.ReadLU32())
		polygonTotal := int(bs.ReadLU32())
		for i := 0; i < polygonTotal; i++ {
			if bs.Err() != nil {
				break
			}
			bs.Skip(0x30) // bounding box, header length, unknowns
			p := Polygon{
				VertexMin:   int(bs.ReadLU32()),
				VertexMax:   int(bs.ReadLU32()),
				VertexStart: int(bs.ReadLU32()),
				FaceStart:   int(bs.ReadLU32()) / 3,
				FaceCount:   int(bs.ReadLU32()),
				IndexCount:  int(bs.ReadLU32()),
			}
			if bs.ReadLU32() == 0x10 {
				bs.Skip(0x08)
			}
			bs.Skip(0x04)
			p.Material = int(bs.ReadLU32())
			bs.Skip(0x04)

			if lod == 0 {
				polygons = append(polygons, p)
			}
		}
		bs.Seek(lodEnd)

		// a second range table of the same shape, nothing in it is used
		lodBEnd := bs.Pos() + int(bs.ReadLU32())
		rangeTotal := int(bs.ReadLU32())
		for i := 0; i < rangeTotal; i++ {
			if bs.Err() != nil {
				break
			}
			bs.Skip(0x48)
			if bs.ReadLU32() == 0x10 {
				bs.Skip(0x08)
			}
			bs.Skip(0x0C)
		}
		bs.Seek(lodBEnd)

		bs.Skip(0x5C)

		// per level bone checksum list
		bs.Skip(0x04)
		boneIdTotal := int(bs.ReadLU32())
		bs.Skip(boneIdTotal * 0x08)
	}
	bs.Seek(sectionEnd)
	return polygons
}
