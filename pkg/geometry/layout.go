package geometry

import (
	"encoding/binary"
	"fmt"
	stdmath "math"
	"strings"

	"github.com/Faultbox/flexgen/pkg/math"
	"github.com/chewxy/math32"
)

// ElementType is the storage type of one vertex element.
type ElementType uint8

// Element types.
const (
	TypeFloat ElementType = iota
	TypeVec2
	TypeVec3
	TypeVec4
	TypeUByte4
	TypeUByte4Norm
)

// Size returns the byte size of the type.
func (t ElementType) Size() int {
	switch t {
	case TypeFloat, TypeUByte4, TypeUByte4Norm:
		return 4
	case TypeVec2:
		return 8
	case TypeVec3:
		return 12
	case TypeVec4:
		return 16
	default:
		return 0
	}
}

// Components returns the number of float components the type stores.
func (t ElementType) Components() int {
	switch t {
	case TypeFloat:
		return 1
	case TypeVec2:
		return 2
	case TypeVec3:
		return 3
	default:
		return 4
	}
}

func (t ElementType) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeVec2:
		return "vec2"
	case TypeVec3:
		return "vec3"
	case TypeVec4:
		return "vec4"
	case TypeUByte4:
		return "ubyte4"
	case TypeUByte4Norm:
		return "ubyte4_norm"
	default:
		return fmt.Sprintf("ElementType(%d)", t)
	}
}

// Semantic is the meaning of a vertex element.
type Semantic uint8

// Vertex element semantics.
const (
	SemPosition Semantic = iota
	SemNormal
	SemBinormal
	SemTangent
	SemTexCoord
	SemColor
	SemBlendWeights
	SemBlendIndices
)

func (s Semantic) String() string {
	switch s {
	case SemPosition:
		return "position"
	case SemNormal:
		return "normal"
	case SemBinormal:
		return "binormal"
	case SemTangent:
		return "tangent"
	case SemTexCoord:
		return "texcoord"
	case SemColor:
		return "color"
	case SemBlendWeights:
		return "blendweights"
	case SemBlendIndices:
		return "blendindices"
	default:
		return fmt.Sprintf("Semantic(%d)", s)
	}
}

// VertexElement describes one attribute of a vertex.
type VertexElement struct {
	Type     ElementType
	Semantic Semantic
	Index    uint8
	Offset   int
}

// VertexLayout is an immutable list of vertex elements with computed
// offsets and stride.
type VertexLayout struct {
	elements []VertexElement
	stride   int
}

// NewLayout computes offsets for the given elements, packed in order.
// Offsets set by the caller are ignored.
func NewLayout(elements ...VertexElement) *VertexLayout {
	l := &VertexLayout{elements: make([]VertexElement, len(elements))}
	for i, e := range elements {
		e.Offset = l.stride
		l.elements[i] = e
		l.stride += e.Type.Size()
	}
	return l
}

// DefaultLayout returns the layout holding every channel of Vertex.
func DefaultLayout() *VertexLayout {
	return NewLayout(
		VertexElement{Type: TypeVec3, Semantic: SemPosition},
		VertexElement{Type: TypeVec3, Semantic: SemTangent},
		VertexElement{Type: TypeVec3, Semantic: SemBinormal},
		VertexElement{Type: TypeVec3, Semantic: SemNormal, Index: 0},
		VertexElement{Type: TypeVec3, Semantic: SemNormal, Index: 1},
		VertexElement{Type: TypeVec4, Semantic: SemTexCoord, Index: 0},
		VertexElement{Type: TypeVec4, Semantic: SemTexCoord, Index: 1},
		VertexElement{Type: TypeVec4, Semantic: SemTexCoord, Index: 2},
		VertexElement{Type: TypeVec4, Semantic: SemTexCoord, Index: 3},
		VertexElement{Type: TypeVec4, Semantic: SemColor, Index: 0},
		VertexElement{Type: TypeVec4, Semantic: SemColor, Index: 1},
		VertexElement{Type: TypeVec4, Semantic: SemColor, Index: 2},
		VertexElement{Type: TypeVec4, Semantic: SemColor, Index: 3},
		VertexElement{Type: TypeUByte4, Semantic: SemBlendIndices},
		VertexElement{Type: TypeVec4, Semantic: SemBlendWeights},
	)
}

// Stride returns the vertex size in bytes.
func (l *VertexLayout) Stride() int {
	return l.stride
}

// Elements returns a copy of the elements.
func (l *VertexLayout) Elements() []VertexElement {
	return append([]VertexElement(nil), l.elements...)
}

// Find returns the element with the given semantic and index.
func (l *VertexLayout) Find(sem Semantic, index uint8) (VertexElement, bool) {
	for _, e := range l.elements {
		if e.Semantic == sem && e.Index == index {
			return e, true
		}
	}
	return VertexElement{}, false
}

// Equal reports whether both layouts have identical elements.
func (l *VertexLayout) Equal(other *VertexLayout) bool {
	if l.stride != other.stride || len(l.elements) != len(other.elements) {
		return false
	}
	for i := range l.elements {
		if l.elements[i] != other.elements[i] {
			return false
		}
	}
	return true
}

func (l *VertexLayout) String() string {
	parts := make([]string, len(l.elements))
	for i, e := range l.elements {
		parts[i] = fmt.Sprintf("%s%d:%s@%d", e.Semantic, e.Index, e.Type, e.Offset)
	}
	return fmt.Sprintf("[%s] stride=%d", strings.Join(parts, " "), l.stride)
}

// Encode packs vertices into a byte buffer following the layout.
func (l *VertexLayout) Encode(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*l.stride)
	for i := range vertices {
		l.encodeVertex(buf[i*l.stride:], &vertices[i])
	}
	return buf
}

// Decode unpacks a byte buffer written with this layout. Channels absent
// from the layout are left zero.
func (l *VertexLayout) Decode(data []byte) []Vertex {
	if len(data)%l.stride != 0 {
		panic(fmt.Sprintf("geometry: %d bytes is not a multiple of stride %d", len(data), l.stride))
	}
	vertices := make([]Vertex, len(data)/l.stride)
	for i := range vertices {
		l.decodeVertex(data[i*l.stride:], &vertices[i])
	}
	return vertices
}

// ReadPosition reads the position of vertex i from an encoded buffer.
func ReadPosition(data []byte, e VertexElement, stride, i int) math.Vec3 {
	off := i*stride + e.Offset
	return math.Vec3{
		X: readFloat(data[off:]),
		Y: readFloat(data[off+4:]),
		Z: readFloat(data[off+8:]),
	}
}

func (l *VertexLayout) encodeVertex(dst []byte, v *Vertex) {
	for _, e := range l.elements {
		out := dst[e.Offset:]
		if e.Type == TypeUByte4 && e.Semantic == SemBlendIndices {
			copy(out[:4], v.BoneIndices[:])
			continue
		}
		c := channel(v, e.Semantic, e.Index)
		switch e.Type {
		case TypeUByte4, TypeUByte4Norm:
			for k := 0; k < 4; k++ {
				out[k] = uint8(math32.Round(math.Saturate(c[k]) * 255))
			}
		default:
			for k := 0; k < e.Type.Components(); k++ {
				binary.LittleEndian.PutUint32(out[4*k:], stdmath.Float32bits(c[k]))
			}
		}
	}
}

func (l *VertexLayout) decodeVertex(src []byte, v *Vertex) {
	for _, e := range l.elements {
		in := src[e.Offset:]
		if e.Type == TypeUByte4 && e.Semantic == SemBlendIndices {
			copy(v.BoneIndices[:], in[:4])
			continue
		}
		var c [4]float32
		switch e.Type {
		case TypeUByte4, TypeUByte4Norm:
			for k := 0; k < 4; k++ {
				c[k] = float32(in[k]) / 255
			}
		default:
			for k := 0; k < e.Type.Components(); k++ {
				c[k] = readFloat(in[4*k:])
			}
		}
		setChannel(v, e.Semantic, e.Index, c)
	}
}

func readFloat(b []byte) float32 {
	return stdmath.Float32frombits(binary.LittleEndian.Uint32(b))
}

func channel(v *Vertex, sem Semantic, index uint8) [4]float32 {
	vec3 := func(p math.Vec3) [4]float32 { return [4]float32{p.X, p.Y, p.Z, 0} }
	vec4 := func(p math.Vec4) [4]float32 { return [4]float32{p.X, p.Y, p.Z, p.W} }
	switch sem {
	case SemPosition:
		return [4]float32{v.Position.X, v.Position.Y, v.Position.Z, 1}
	case SemNormal:
		if index == 1 {
			return vec3(v.GeometryNormal)
		}
		return vec3(v.Normal)
	case SemBinormal:
		return vec3(v.Binormal)
	case SemTangent:
		return vec4(v.PackedTangent())
	case SemTexCoord:
		if int(index) < MaxUVs {
			return vec4(v.UV[index])
		}
	case SemColor:
		if int(index) < MaxColors {
			return vec4(v.Colors[index])
		}
	case SemBlendWeights:
		return vec4(v.BoneWeights)
	case SemBlendIndices:
		return [4]float32{
			float32(v.BoneIndices[0]), float32(v.BoneIndices[1]),
			float32(v.BoneIndices[2]), float32(v.BoneIndices[3]),
		}
	}
	return [4]float32{}
}

func setChannel(v *Vertex, sem Semantic, index uint8, c [4]float32) {
	vec3 := math.Vec3{X: c[0], Y: c[1], Z: c[2]}
	vec4 := math.Vec4{X: c[0], Y: c[1], Z: c[2], W: c[3]}
	switch sem {
	case SemPosition:
		v.Position = vec3
	case SemNormal:
		if index == 1 {
			v.GeometryNormal = vec3
		} else {
			v.Normal = vec3
		}
	case SemBinormal:
		v.Binormal = vec3
	case SemTangent:
		v.Tangent = vec3
	case SemTexCoord:
		if int(index) < MaxUVs {
			v.UV[index] = vec4
		}
	case SemColor:
		if int(index) < MaxColors {
			v.Colors[index] = vec4
		}
	case SemBlendWeights:
		v.BoneWeights = vec4
	case SemBlendIndices:
		for k := range v.BoneIndices {
			v.BoneIndices[k] = uint8(c[k])
		}
	}
}
