// Package scene assembles glTF documents out of parsed game assets.
// One exporter collects an optional skeleton plus any number of meshes
// and saves them as a JSON document next to a shared geometry buffer.
package scene

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/telltale_converter/hashdb"
	"github.com/mogaika/telltale_converter/pack/d3dmesh"
	"github.com/mogaika/telltale_converter/pack/skl"
	"github.com/mogaika/telltale_converter/utils"
	"github.com/mogaika/telltale_converter/utils/gltfutils"
)

type Exporter struct {
	doc      *gltf.Document
	rootName string
	resolve  TextureResolver
	wlog     *utils.WorkerLog

	skeleton *skl.Skeleton
	skin     *uint32
}

// NewExporter starts an empty document. rootName labels the skin and
// any material that has no diffuse texture to take a name from.
func NewExporter(rootName string, resolve TextureResolver, wlog *utils.WorkerLog) *Exporter {
	return &Exporter{
		doc:      gltfutils.NewDocument(),
		rootName: rootName,
		resolve:  resolve,
		wlog:     wlog,
	}
}

func (e *Exporter) Document() *gltf.Document {
	return e.doc
}

// AddSkeleton converts the rest pose hierarchy into a node tree and a
// skin. Call it before the meshes that should bind to the skin.
func (e *Exporter) AddSkeleton(s *skl.Skeleton) {
	// nodes first, then hierarchy, so children can point forward
	base := uint32(len(e.doc.Nodes))
	for i := range s.Joints {
		joint := &s.Joints[i]
		e.doc.Nodes = append(e.doc.Nodes, &gltf.Node{
			Name:        joint.Id.String(),
			Translation: joint.Translation,
			Rotation:    joint.Rotation.V.Vec4(joint.Rotation.W),
		})
	}
	for i := range s.Joints {
		if p := s.Joints[i].Parent; p >= 0 {
			parent := e.doc.Nodes[base+uint32(p)]
			parent.Children = append(parent.Children, base+uint32(i))
		}
	}

	joints := make([]uint32, len(s.Joints))
	for i := range joints {
		joints[i] = base + uint32(i)
	}
	skin := &gltf.Skin{
		Name:                e.rootName,
		Joints:              joints,
		InverseBindMatrices: gltf.Index(gltfutils.WriteInverseBindMatrices(e.doc, s.InverseBindMatrices)),
	}

	roots := s.Roots()
	for _, root := range roots {
		e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, base+uint32(root))
	}
	if len(roots) == 1 {
		skin.Skeleton = gltf.Index(base + uint32(roots[0]))
	}

	e.doc.Skins = append(e.doc.Skins, skin)
	e.skin = gltf.Index(uint32(len(e.doc.Skins) - 1))
	e.skeleton = s
}

// AddMesh appends one converted mesh under the given name. Draw ranges
// become sibling node and mesh pairs sharing one set of vertex
// accessors, split only by their face lists and materials.
func (e *Exporter) AddMesh(name string, m *d3dmesh.Mesh) error {
	var positionsAccessor, normalsAccessor, uvAccessor, weightsAccessor, jointsAccessor uint32
	var hasNormals, hasUV, skinned bool

	{
		positions := make([][3]float32, len(m.Positions))
		for i := range m.Positions {
			positions[i] = m.Positions[i]
		}
		positionsAccessor = modeler.WritePosition(e.doc, positions)
	}

	if len(m.Normals) == len(m.Positions) && len(m.Normals) != 0 {
		normals := make([][3]float32, len(m.Normals))
		for i := range m.Normals {
			normals[i] = m.Normals[i]
		}
		normalsAccessor = modeler.WriteNormal(e.doc, normals)
		hasNormals = true
	}

	if len(m.UVs) != 0 {
		uvs := make([][2]float32, len(m.UVs[0]))
		for i, uv := range m.UVs[0] {
			uvs[i] = uv
		}
		uvAccessor = modeler.WriteTextureCoord(e.doc, uvs)
		hasUV = true
	}

	if joints := e.resolveJoints(name, m); joints != nil {
		weights := make([][4]float32, len(m.Weights))
		for i := range m.Weights {
			weights[i] = m.Weights[i]
		}
		weightsAccessor = modeler.WriteWeights(e.doc, weights)
		jointsAccessor = modeler.WriteJoints(e.doc, joints)
		skinned = true
	}

	materials := e.addMaterials(name, m)

	for i, polygon := range m.Polygons {
		if polygon.FaceCount == 0 {
			return errors.Wrapf(d3dmesh.ErrCorruptMesh, "Draw range %d of %q has no faces", i, name)
		}
		indices := make([]uint16, 0, polygon.FaceCount*3)
		for _, face := range m.Faces[polygon.FaceStart : polygon.FaceStart+polygon.FaceCount] {
			indices = append(indices, face[0], face[1], face[2])
		}

		attributes := make(map[string]uint32)
		attributes["POSITION"] = positionsAccessor
		if hasNormals {
			attributes["NORMAL"] = normalsAccessor
		}
		if hasUV {
			attributes["TEXCOORD_0"] = uvAccessor
		}
		if skinned {
			attributes["WEIGHTS_0"] = weightsAccessor
			attributes["JOINTS_0"] = jointsAccessor
		}

		gltfMesh := &gltf.Mesh{
			Name: fmt.Sprintf("%s_mesh%d", name, i),
			Primitives: []*gltf.Primitive{
				&gltf.Primitive{
					Indices:    gltf.Index(modeler.WriteIndices(e.doc, indices)),
					Attributes: attributes,
					Material:   gltf.Index(materials[polygon.Material]),
				},
			},
		}
		e.doc.Meshes = append(e.doc.Meshes, gltfMesh)

		// a lone draw range keeps the plain name on its node
		nodeName := name
		if len(m.Polygons) > 1 {
			nodeName = gltfMesh.Name
		}
		node := &gltf.Node{
			Name: nodeName,
			Mesh: gltf.Index(uint32(len(e.doc.Meshes) - 1)),
		}
		if skinned {
			node.Skin = e.skin
		}
		e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, uint32(len(e.doc.Nodes)))
		e.doc.Nodes = append(e.doc.Nodes, node)
	}
	return nil
}

// resolveJoints maps per vertex bone checksums onto skin joint slots.
// A reference the skeleton cannot satisfy drops skinning for the whole
// mesh instead of failing it, the geometry survives in rest pose.
func (e *Exporter) resolveJoints(name string, m *d3dmesh.Mesh) [][4]uint8 {
	if e.skeleton == nil || len(m.Bones) != len(m.Positions) || len(m.Weights) != len(m.Positions) {
		return nil
	}
	joints := make([][4]uint8, len(m.Bones))
	for i := range m.Bones {
		for c, hash := range m.Bones[i] {
			slot := e.skeleton.JointByHash(hash)
			if slot < 0 || slot > 0xFF {
				e.wlog.Printf("Warning: mesh %q references bone %v outside of skeleton %q, dropping skinning",
					name, hashdb.Lookup(hash), e.rootName)
				return nil
			}
			joints[i][c] = uint8(slot)
		}
	}
	return joints
}

// Save writes the document and its geometry buffer side by side.
func (e *Exporter) Save(gltfPath string) error {
	return gltfutils.SaveSplit(gltfPath, e.doc)
}
