package opengl

import (
	"fmt"

	"github.com/Faultbox/flexgen/pkg/texgen"
)

// Vertex attribute locations.
const (
	attribPosition = 0
	attribUV0      = 1
	attribUV1      = 2
	attribColor    = 3
	attribNormal   = 4
)

const vertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec2 aUV0;
layout(location = 2) in vec2 aUV1;
layout(location = 3) in vec4 aColor;
layout(location = 4) in vec3 aNormal;

uniform mat4 uViewProj;

out vec2 vUV0;
out vec2 vUV1;
out vec4 vColor;
out vec3 vNormal;

void main() {
    vUV0 = aUV0;
    vUV1 = aUV1;
    vColor = aColor;
    vNormal = aNormal;
    gl_Position = uViewProj * vec4(aPosition, 1.0);
}
`

const fragmentHeader = `#version 410 core
in vec2 vUV0;
in vec2 vUV1;
in vec4 vColor;
in vec3 vNormal;

uniform vec4 MatDiffColor;
uniform vec4 InputInvSize;
uniform sampler2D DiffMap;
uniform bool HasDiffMap;

out vec4 FragColor;
`

const unlitFragment = fragmentHeader + `
void main() {
    FragColor = MatDiffColor;
}
`

const diffuseFragment = fragmentHeader + `
void main() {
    vec4 c = MatDiffColor;
    if (HasDiffMap) {
        c *= texture(DiffMap, vUV0);
    }
    FragColor = c;
}
`

const vertexColorFragment = fragmentHeader + `
void main() {
    FragColor = MatDiffColor * vColor;
}
`

// noiseFragment is improved Perlin noise over (u * x, v * y, z) of
// MatDiffColor, remapped to [0, 1].
const noiseFragment = fragmentHeader + `
uniform int Perm[256];

int perm(int i) {
    return Perm[i & 255];
}

float fade(float t) {
    return t * t * t * (t * (t * 6.0 - 15.0) + 10.0);
}

float grad(int hash, float x, float y, float z) {
    int h = hash & 15;
    float u = h < 8 ? x : y;
    float v = h < 4 ? y : (h == 12 || h == 14 ? x : z);
    return ((h & 1) == 0 ? u : -u) + ((h & 2) == 0 ? v : -v);
}

float perlin(vec3 p) {
    vec3 f = floor(p);
    int xi = int(f.x) & 255;
    int yi = int(f.y) & 255;
    int zi = int(f.z) & 255;
    p -= f;
    float u = fade(p.x);
    float v = fade(p.y);
    float w = fade(p.z);

    int a = perm(xi) + yi;
    int aa = perm(a) + zi;
    int ab = perm(a + 1) + zi;
    int b = perm(xi + 1) + yi;
    int ba = perm(b) + zi;
    int bb = perm(b + 1) + zi;

    return mix(
        mix(mix(grad(perm(aa), p.x, p.y, p.z), grad(perm(ba), p.x - 1.0, p.y, p.z), u),
            mix(grad(perm(ab), p.x, p.y - 1.0, p.z), grad(perm(bb), p.x - 1.0, p.y - 1.0, p.z), u), v),
        mix(mix(grad(perm(aa + 1), p.x, p.y, p.z - 1.0), grad(perm(ba + 1), p.x - 1.0, p.y, p.z - 1.0), u),
            mix(grad(perm(ab + 1), p.x, p.y - 1.0, p.z - 1.0), grad(perm(bb + 1), p.x - 1.0, p.y - 1.0, p.z - 1.0), u), v),
        w);
}

void main() {
    float n = clamp(perlin(vec3(vUV0 * MatDiffColor.xy, MatDiffColor.z)) * 0.5 + 0.5, 0.0, 1.0);
    FragColor = vec4(n, n, n, 1.0);
}
`

const fillGapsFragment = fragmentHeader + `
const float GapEpsilon = 0.00005;

void main() {
    vec4 c = texture(DiffMap, vUV0);
    if (c.a > GapEpsilon) {
        FragColor = c;
        return;
    }
    vec4 sum = vec4(0.0);
    for (int y = -1; y <= 1; y++) {
        for (int x = -1; x <= 1; x++) {
            if (x == 0 && y == 0) {
                continue;
            }
            vec4 n = texture(DiffMap, vUV0 + vec2(x, y) * InputInvSize.xy);
            sum += vec4(n.rgb * n.a, n.a);
        }
    }
    FragColor = sum.a <= GapEpsilon ? c : vec4(sum.rgb / sum.a, 1.0);
}
`

var fragmentShaders = map[string]string{
	texgen.ShaderUnlit:       unlitFragment,
	texgen.ShaderDiffuse:     diffuseFragment,
	texgen.ShaderVertexColor: vertexColorFragment,
	texgen.ShaderNoise:       noiseFragment,
	texgen.ShaderFillGaps:    fillGapsFragment,
}

// UnknownShaderError is returned for materials whose shader is not built in.
type UnknownShaderError struct {
	Name string
}

func (e *UnknownShaderError) Error() string {
	return fmt.Sprintf("unknown shader %q", e.Name)
}

func fragmentSource(name string) (string, error) {
	if name == "" {
		name = texgen.ShaderUnlit
	}
	src, ok := fragmentShaders[name]
	if !ok {
		return "", &UnknownShaderError{Name: name}
	}
	return src, nil
}

// permutation is the improved Perlin noise reference table, shared with
// the software backend.
var permutation = [256]int32{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}
