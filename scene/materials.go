package scene

import (
	"path"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/mogaika/telltale_converter/pack/d3dmesh"
)

// ConvertedTexture points at an image the texture pass wrote out.
type ConvertedTexture struct {
	// URI is the forward slash path relative to the document
	URI         string
	Translucent bool
}

// TextureResolver reports where a source texture landed after
// conversion. Returning false means it was missing or failed, the
// document then omits the reference instead of pointing at nothing.
type TextureResolver func(name string) (ConvertedTexture, bool)

func (e *Exporter) addMaterials(meshName string, m *d3dmesh.Mesh) []uint32 {
	indices := make([]uint32, len(m.Materials))
	for i := range m.Materials {
		indices[i] = e.addMaterial(meshName, &m.Materials[i])
	}
	return indices
}

func (e *Exporter) addMaterial(meshName string, mat *d3dmesh.Material) uint32 {
	// only the primary map slots feed the export, the later reference
	// of a kind wins like the game picks them
	var diffuseRef, normalRef, specularRef *d3dmesh.TextureRef
	for i := range mat.Textures {
		ref := &mat.Textures[i]
		if ref.Slot != d3dmesh.SLOT_MAP && ref.Slot != d3dmesh.SLOT_MAP_A {
			continue
		}
		switch ref.Kind {
		case d3dmesh.TEXTURE_DIFFUSE:
			diffuseRef = ref
		case d3dmesh.TEXTURE_NORMAL:
			normalRef = ref
		case d3dmesh.TEXTURE_SPECULAR:
			specularRef = ref
		}
	}

	gltfMaterial := &gltf.Material{
		Name:                 e.rootName,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
	}
	if diffuse := e.resolveTexture(meshName, diffuseRef); diffuse != nil {
		gltfMaterial.Name = strings.TrimSuffix(diffuse.URI, path.Ext(diffuse.URI))
		gltfMaterial.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
			Index: e.addImageAndTexture(diffuse.URI),
		}
		if diffuse.Translucent {
			gltfMaterial.AlphaMode = gltf.AlphaBlend
		}
	}
	if normal := e.resolveTexture(meshName, normalRef); normal != nil {
		gltfMaterial.NormalTexture = &gltf.NormalTexture{
			Index: gltf.Index(e.addImageAndTexture(normal.URI)),
		}
	}
	if specular := e.resolveTexture(meshName, specularRef); specular != nil {
		gltfMaterial.PBRMetallicRoughness.MetallicRoughnessTexture = &gltf.TextureInfo{
			Index: e.addImageAndTexture(specular.URI),
		}
	}

	index := uint32(len(e.doc.Materials))
	e.doc.Materials = append(e.doc.Materials, gltfMaterial)
	return index
}

func (e *Exporter) resolveTexture(meshName string, ref *d3dmesh.TextureRef) *ConvertedTexture {
	if ref == nil || ref.Name == "" {
		return nil
	}
	if e.resolve != nil {
		if converted, ok := e.resolve(ref.Name); ok {
			return &converted
		}
	}
	e.wlog.Printf("Warning: mesh %q references missing texture %q", meshName, ref.Name)
	return nil
}

func (e *Exporter) addImageAndTexture(uri string) uint32 {
	e.doc.Images = append(e.doc.Images, &gltf.Image{URI: uri})
	e.doc.Textures = append(e.doc.Textures, &gltf.Texture{
		Source: gltf.Index(uint32(len(e.doc.Images) - 1)),
	})
	return uint32(len(e.doc.Textures) - 1)
}
