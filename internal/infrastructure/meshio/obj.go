package meshio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"asset-forge/internal/domain/entity"
)

// EncodeOBJ 编码为 Wavefront OBJ 文本
func EncodeOBJ(m *entity.Mesh) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m, "asset"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteOBJ 写出 OBJ，面下标从 1 开始
func WriteOBJ(w io.Writer, m *entity.Mesh, name string) error {
	if m.IsEmpty() {
		return fmt.Errorf("encode obj: mesh is empty")
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "o %s\n", name)
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(v[0]), ftoa(v[1]), ftoa(v[2]))
	}
	hasUV, hasN := m.HasUVs(), m.HasNormals()
	if hasUV {
		for _, uv := range m.UVs {
			fmt.Fprintf(bw, "vt %s %s\n", ftoa(uv[0]), ftoa(uv[1]))
		}
	}
	if hasN {
		for _, n := range m.Normals {
			fmt.Fprintf(bw, "vn %s %s %s\n", ftoa(n[0]), ftoa(n[1]), ftoa(n[2]))
		}
	}
	for _, f := range m.Faces {
		bw.WriteString("f")
		for _, idx := range f {
			i := idx + 1
			switch {
			case hasUV && hasN:
				fmt.Fprintf(bw, " %d/%d/%d", i, i, i)
			case hasUV:
				fmt.Fprintf(bw, " %d/%d", i, i)
			case hasN:
				fmt.Fprintf(bw, " %d//%d", i, i)
			default:
				fmt.Fprintf(bw, " %d", i)
			}
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encode obj: %w", err)
	}
	return nil
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
