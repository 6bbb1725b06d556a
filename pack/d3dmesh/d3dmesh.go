package d3dmesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/hashdb"
	"github.com/mogaika/telltale_converter/pack/msv"
	"github.com/mogaika/telltale_converter/utils"
)

const FILE_EXTENSION = ".d3dmesh"

// Only this container revision is understood, everything else in the
// game shipped in older archives.
const MESH_VERSION = 55

var ErrCorruptMesh = errors.New("corrupt mesh")

// Mesh is a converted model. All draw ranges share one vertex pool and
// one face list, Polygons carve both into per material pieces.
type Mesh struct {
	Name      string
	Materials []Material
	Polygons  []Polygon
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       [][]mgl32.Vec2
	Weights   []mgl32.Vec4
	// four bone name checksums per vertex, resolved from the palette
	Bones [][4]uint64
	Faces [][3]uint16
}

func Parse(b []byte, wlog *utils.WorkerLog) (*Mesh, error) {
	bs := utils.NewBufStack("d3dmesh", b)
	if _, err := msv.ParseHeader(bs); err != nil {
		return nil, errors.Wrap(err, "Cannot parse container header")
	}

	m := &Mesh{Name: msv.ReadName(bs)}
	version := bs.ReadByte()
	if err := bs.Err(); err != nil {
		return nil, err
	}
	if version != MESH_VERSION {
		return nil, errors.Wrapf(msv.ErrUnsupportedVersion, "Mesh version %d", version)
	}
	wlog.Verbosef("Importing %q (version %d)", m.Name, version)

	bs.Skip(0x14) // model info

	materialCount := int(bs.ReadLU32())
	for i := 0; i < materialCount; i++ {
		if bs.Err() != nil {
			break
		}
		mat, err := parseMaterial(bs, wlog)
		if err != nil {
			return nil, errors.Wrapf(err, "Cannot parse material %d", i)
		}
		m.Materials = append(m.Materials, mat)
	}
	wlog.Verbosef("Materials:\n%v", utils.SDump(m.Materials))
	bs.Skip(0x05)

	// all sections between here and the face data are length prefixed
	faceDataStart := bs.Pos() + int(bs.ReadLU32())

	m.Polygons = parsePolygons(bs)
	wlog.Verbosef("Draw ranges:\n%v", utils.SDump(m.Polygons))

	skipSection(bs) // empty

	groupsEnd := bs.Pos() + int(bs.ReadLU32())
	groupCount := int(bs.ReadLU32())
	var groups []materialGroup
	for i := 0; i < groupCount; i++ {
		if bs.Err() != nil {
			break
		}
		groups = append(groups, parseMaterialGroup(bs))
	}
	bs.Seek(groupsEnd)

	skipSection(bs) // unknown

	// bone palette, vertex bone indices point into this list
	boneIdsEnd := bs.Pos() + int(bs.ReadLU32())
	boneIdCount := int(bs.ReadLU32())
	var boneIds []uint64
	for i := 0; i < boneIdCount; i++ {
		if bs.Err() != nil {
			break
		}
		boneIds = append(boneIds, bs.ReadLU64())
		bs.Skip(0x30)
	}
	bs.Seek(boneIdsEnd)

	skipSection(bs) // empty
	skipSection(bs) // unknown

	clamps := parseModelClamps(bs)

	vertCount := int(bs.ReadLU32())
	vertFlags := bs.ReadLU32()
	bs.Seek(bs.Pos() + int(bs.ReadLU32()))

	uvClampLayers, err := parseUVClamps(bs)
	if err != nil {
		return nil, err
	}

	vertStart := 0
	if vertFlags == 0x31 {
		bs.Skip(0x24)
		vertexParameterStart := bs.Pos() + int(bs.ReadLU32())
		bs.Skip(0x04) // embedded buffer size
		vertStart = bs.Pos()
		bs.Seek(vertexParameterStart)
	}
	if err := bs.Err(); err != nil {
		return nil, err
	}

	err = parseVertexData(bs, &vertexParams{
		faceDataStart: faceDataStart,
		vertStart:     vertStart,
		vertFlags:     vertFlags,
		vertCount:     vertCount,
		clamps:        clamps,
		uvClamps:      uvClampLayers,
		boneIds:       boneIds,
	}, m)
	if err != nil {
		return nil, err
	}

	if err := m.fixMaterialIndices(groups); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	if err := bs.Err(); err != nil {
		return nil, err
	}

	wlog.Verbosef("Parsed mesh %q: %d positions, %d faces, %d materials, %d draw ranges",
		m.Name, len(m.Positions), len(m.Faces), len(m.Materials), len(m.Polygons))
	return m, nil
}

func skipSection(bs *utils.BufStack) {
	bs.Seek(bs.Pos() + int(bs.ReadLU32()))
}

func parseUVClamps(bs *utils.BufStack) ([6]*uvClamps, error) {
	var layers [6]*uvClamps
	layerCount := int(bs.ReadLU32())
	for i := 0; i < layerCount; i++ {
		if bs.Err() != nil {
			break
		}
		layer := int(bs.ReadLU32())
		if layer >= len(layers) {
			return layers, errors.Wrapf(ErrCorruptMesh, "Uv clamp layer %d out of range", layer)
		}
		layers[layer] = &uvClamps{
			multiplier: mgl32.Vec2{bs.ReadLF(), bs.ReadLF()},
			start:      mgl32.Vec2{bs.ReadLF(), bs.ReadLF()},
		}
	}
	return layers, nil
}

// fixMaterialIndices follows the group reference of every draw range
// to its material id and replaces it with the index of the last
// material carrying that id.
func (m *Mesh) fixMaterialIndices(groups []materialGroup) error {
	for i := range m.Polygons {
		groupIndex := m.Polygons[i].Material
		if groupIndex < 0 || groupIndex >= len(groups) {
			return errors.Wrapf(ErrCorruptMesh,
				"Draw range %d references material group %d of %d", i, groupIndex, len(groups))
		}
		materialId := groups[groupIndex].MaterialId
		materialIndex := -1
		for j := range m.Materials {
			if m.Materials[j].Id == materialId {
				materialIndex = j
			}
		}
		if materialIndex < 0 {
			return errors.Wrapf(ErrCorruptMesh,
				"Material group %d references unknown material %v",
				groupIndex, hashdb.FormatHash(materialId))
		}
		m.Polygons[i].Material = materialIndex
	}
	return nil
}

// Export slices the face list by draw range, reject files whose ranges
// or indices leave the parsed buffers.
func (m *Mesh) validate() error {
	for i, p := range m.Polygons {
		if p.FaceCount < 0 || p.FaceStart+p.FaceCount > len(m.Faces) {
			return errors.Wrapf(ErrCorruptMesh,
				"Draw range %d covers faces [%d..%d) of %d",
				i, p.FaceStart, p.FaceStart+p.FaceCount, len(m.Faces))
		}
	}
	for _, f := range m.Faces {
		for _, index := range f {
			if int(index) >= len(m.Positions) {
				return errors.Wrapf(ErrCorruptMesh,
					"Face index %d out of %d positions", index, len(m.Positions))
			}
		}
	}
	return nil
}
