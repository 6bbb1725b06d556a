package gltfutils

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// BinName returns the buffer file name referenced by a document saved
// at gltfPath.
func BinName(gltfPath string) string {
	base := filepath.Base(gltfPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".bin"
}

// WriteInverseBindMatrices appends a MAT4 accessor holding the skin
// matrices, column major. The modeler package covers the vector
// accessors, matrices it does not.
func WriteInverseBindMatrices(doc *gltf.Document, matrices []mgl32.Mat4) uint32 {
	buffer := lastBuffer(doc)
	// accessors must start at a component boundary
	if pad := len(buffer.Data) % 4; pad != 0 {
		buffer.Data = append(buffer.Data, make([]byte, 4-pad)...)
	}
	offset := uint32(len(buffer.Data))
	scratch := make([]byte, 4)
	for _, m := range matrices {
		for _, v := range m {
			binary.LittleEndian.PutUint32(scratch, math.Float32bits(v))
			buffer.Data = append(buffer.Data, scratch...)
		}
	}
	buffer.ByteLength = uint32(len(buffer.Data))

	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		ByteOffset: offset,
		ByteLength: uint32(len(matrices)) * 16 * 4,
	})
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(uint32(len(doc.BufferViews) - 1)),
		ComponentType: gltf.ComponentFloat,
		Count:         uint32(len(matrices)),
		Type:          gltf.AccessorMat4,
	})
	return uint32(len(doc.Accessors) - 1)
}

func lastBuffer(doc *gltf.Document) *gltf.Buffer {
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, new(gltf.Buffer))
	}
	return doc.Buffers[len(doc.Buffers)-1]
}

// SaveSplit writes doc as a JSON document next to a .bin file holding
// the buffer payload. Both are assembled in memory first so a failing
// encode cannot leave a half written pair behind.
func SaveSplit(gltfPath string, doc *gltf.Document) error {
	binName := BinName(gltfPath)
	var payload []byte
	if len(doc.Buffers) > 0 {
		buffer := doc.Buffers[0]
		buffer.URI = binName
		buffer.ByteLength = uint32(len(buffer.Data))
		payload = buffer.Data
	}

	var document bytes.Buffer
	encoder := gltf.NewEncoder(&document)
	encoder.AsBinary = false
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrapf(err, "Cannot encode %q", gltfPath)
	}

	if err := os.WriteFile(gltfPath, document.Bytes(), 0666); err != nil {
		return errors.Wrap(err, "Cannot write document")
	}
	binPath := filepath.Join(filepath.Dir(gltfPath), binName)
	if err := os.WriteFile(binPath, payload, 0666); err != nil {
		return errors.Wrap(err, "Cannot write buffer")
	}
	return nil
}
