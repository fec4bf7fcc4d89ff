package meshio

import (
	"fmt"
	"strings"

	"asset-forge/internal/domain/entity"
)

// Format 网格文件格式
type Format string

const (
	FormatGLB Format = "glb"
	FormatOBJ Format = "obj"
)

// ParseFormat 解析格式名称，忽略大小写与前导点
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case FormatGLB, FormatOBJ:
		return f, nil
	}
	return "", fmt.Errorf("unsupported mesh format %q", s)
}

// Encode 按格式编码网格
func Encode(m *entity.Mesh, format Format) ([]byte, error) {
	switch format {
	case FormatGLB:
		return EncodeGLB(m)
	case FormatOBJ:
		return EncodeOBJ(m)
	}
	return nil, fmt.Errorf("unsupported mesh format %q", format)
}

// Codec GLB 编解码器，供指标计算做往返加载检查
type Codec struct{}

func (Codec) Encode(m *entity.Mesh) ([]byte, error) { return EncodeGLB(m) }

func (Codec) Decode(data []byte) (*entity.Mesh, error) { return DecodeGLB(data) }
