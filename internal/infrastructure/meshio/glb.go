// Package meshio 网格文件编解码：GLB 与 OBJ
package meshio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"asset-forge/internal/domain/entity"
)

// EncodeGLB 编码为二进制 glTF
func EncodeGLB(m *entity.Mesh) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGLB(&buf, m, "asset"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGLB 写出单网格单节点的 GLB
func WriteGLB(w io.Writer, m *entity.Mesh, name string) error {
	if m.IsEmpty() {
		return fmt.Errorf("encode glb: mesh is empty")
	}
	doc := gltf.NewDocument()

	positions := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
	}
	indices := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}

	attrs := gltf.Attribute{
		gltf.POSITION: modeler.WritePosition(doc, positions),
	}
	if m.HasNormals() {
		normals := make([][3]float32, len(m.Normals))
		for i, n := range m.Normals {
			normals[i] = [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}
		}
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}
	if m.HasUVs() {
		uvs := make([][2]float32, len(m.UVs))
		for i, uv := range m.UVs {
			uvs[i] = [2]float32{float32(uv[0]), float32(uv[1])}
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}

	doc.Meshes = []*gltf.Mesh{{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attrs,
			Mode:       gltf.PrimitiveTriangles,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode glb: %w", err)
	}
	return nil
}

// DecodeGLB 解码 GLB，所有三角形图元合并为一个网格
func DecodeGLB(data []byte) (*entity.Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}
	return meshFromDocument(doc)
}

// ReadGLBFile 读取并解码 GLB 文件
func ReadGLBFile(path string) (*entity.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glb: %w", err)
	}
	return DecodeGLB(data)
}

func meshFromDocument(doc *gltf.Document) (*entity.Mesh, error) {
	out := &entity.Mesh{}
	withNormals, withUVs := true, true
	var normals []entity.Vec3
	var uvs [][2]float64

	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				return nil, fmt.Errorf("decode glb: primitive of mesh %q has no POSITION", gm.Name)
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("decode glb positions: %w", err)
			}
			base := uint32(len(out.Vertices))
			for _, p := range positions {
				out.Vertices = append(out.Vertices, entity.Vec3{float64(p[0]), float64(p[1]), float64(p[2])})
			}

			if idx, ok := prim.Attributes[gltf.NORMAL]; ok && withNormals {
				ns, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
				if err != nil {
					return nil, fmt.Errorf("decode glb normals: %w", err)
				}
				for _, n := range ns {
					normals = append(normals, entity.Vec3{float64(n[0]), float64(n[1]), float64(n[2])})
				}
			} else {
				withNormals = false
			}
			if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok && withUVs {
				ts, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
				if err != nil {
					return nil, fmt.Errorf("decode glb uvs: %w", err)
				}
				for _, t := range ts {
					uvs = append(uvs, [2]float64{float64(t[0]), float64(t[1])})
				}
			} else {
				withUVs = false
			}

			var indices []uint32
			if prim.Indices != nil {
				indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return nil, fmt.Errorf("decode glb indices: %w", err)
				}
			} else {
				indices = make([]uint32, len(positions))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}
			if len(indices)%3 != 0 {
				return nil, fmt.Errorf("decode glb: index count %d is not a multiple of 3", len(indices))
			}
			for i := 0; i < len(indices); i += 3 {
				out.Faces = append(out.Faces, entity.Face{base + indices[i], base + indices[i+1], base + indices[i+2]})
			}
		}
	}
	if withNormals && len(normals) == len(out.Vertices) {
		out.Normals = normals
	}
	if withUVs && len(uvs) == len(out.Vertices) {
		out.UVs = uvs
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}
	return out, nil
}
