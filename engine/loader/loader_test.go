package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-cull/common"
	"github.com/Carmen-Shannon/oxy-cull/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func packVec3(points ...[3]float32) []byte {
	var buf bytes.Buffer
	for _, p := range points {
		for _, v := range p {
			binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
		}
	}
	return buf.Bytes()
}

// testDocument has a "crate" mesh with explicit min/max, an unnamed mesh whose
// positions must be read from the embedded buffer, and two textures.
func testDocument(bufferURI string, byteLength int) string {
	uri := ""
	if bufferURI != "" {
		uri = `"uri": "` + bufferURI + `",`
	}
	return `{
		"asset": {"version": "2.0"},
		"meshes": [
			{"name": "crate", "primitives": [{"attributes": {"POSITION": 0}}]},
			{"primitives": [{"attributes": {"POSITION": 1, "NORMAL": 1}}]}
		],
		"accessors": [
			{"componentType": 5126, "count": 8, "type": "VEC3", "min": [-1, 0, -1], "max": [1, 2, 1]},
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}
		],
		"bufferViews": [{"buffer": 0, "byteLength": 36}],
		"buffers": [{` + uri + ` "byteLength": ` + strconv.Itoa(byteLength) + `}],
		"textures": [{"name": "checker", "source": 0}, {"source": 1}],
		"images": [{"uri": "checker.png"}, {"uri": "textures/noise.png"}]
	}`
}

var trianglePositions = packVec3(
	[3]float32{-2, 0, 0},
	[3]float32{3, 1, 0},
	[3]float32{0, 4, -5},
)

func TestLoadReader(t *testing.T) {
	c := NewCatalog()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(trianglePositions)

	a, err := c.LoadReader("props", strings.NewReader(testDocument(uri, len(trianglePositions))), false)
	require.NoError(t, err)
	require.Equal(t, []string{"crate", "props#1"}, a.Meshes)
	require.Equal(t, []string{"checker", "noise.png"}, a.Textures)

	id, ok := c.MeshID("crate")
	require.True(t, ok)
	require.Equal(t, uint32(0), id)
	id, ok = c.MeshID("props#1")
	require.True(t, ok)
	require.Equal(t, uint32(1), id)
	id, ok = c.TextureID("noise.png")
	require.True(t, ok)
	require.Equal(t, uint32(1), id)

	ob, ok := c.MeshBounds("crate")
	require.True(t, ok)
	require.Equal(t, mgl32.Vec3{0, 1, 0}, ob.Center)
	require.Equal(t, mgl32.Vec3{1, 1, 1}, ob.Extents)

	ob, ok = c.MeshBounds("props#1")
	require.True(t, ok)
	require.True(t, ob.AABB().Min.ApproxEqual(mgl32.Vec3{-2, 0, -5}))
	require.True(t, ob.AABB().Max.ApproxEqual(mgl32.Vec3{3, 4, 0}))

	require.Equal(t, common.AABB{Min: mgl32.Vec3{-2, 0, -5}, Max: mgl32.Vec3{3, 4, 1}}, a.Bounds)

	_, ok = c.MeshBounds("missing")
	require.False(t, ok)
	cached, ok := c.Asset("props")
	require.True(t, ok)
	require.Equal(t, a, cached)
	require.Len(t, c.Assets(), 1)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), trianglePositions, 0o644))
	path := filepath.Join(dir, "props.gltf")
	require.NoError(t, os.WriteFile(path, []byte(testDocument("tri.bin", len(trianglePositions))), 0o644))

	c := NewCatalog(WithMesh("cube", common.NewAABB(mgl32.Vec3{}, mgl32.Vec3{0.5, 0.5, 0.5})))
	a, err := c.Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"crate", path + "#1"}, a.Meshes)

	id, ok := c.MeshID("crate")
	require.True(t, ok)
	require.Equal(t, uint32(1), id)

	// a second load is served from the cache even if the file is gone
	require.NoError(t, os.Remove(path))
	again, err := c.Load(path)
	require.NoError(t, err)
	require.Equal(t, a, again)
}

func TestLoadGLB(t *testing.T) {
	doc := []byte(testDocument("", len(trianglePositions)))
	for len(doc)%4 != 0 {
		doc = append(doc, ' ')
	}

	var glb bytes.Buffer
	total := glbHeaderSize + 8 + len(doc) + 8 + len(trianglePositions)
	binary.Write(&glb, binary.LittleEndian, []uint32{glbMagic, glbVersion, uint32(total)})
	binary.Write(&glb, binary.LittleEndian, []uint32{uint32(len(doc)), glbChunkJSON})
	glb.Write(doc)
	binary.Write(&glb, binary.LittleEndian, []uint32{uint32(len(trianglePositions)), glbChunkBIN})
	glb.Write(trianglePositions)

	t.Run("stream", func(t *testing.T) {
		c := NewCatalog()
		a, err := c.LoadReader("packed", bytes.NewReader(glb.Bytes()), true)
		require.NoError(t, err)
		require.Len(t, a.Meshes, 2)
		ob, ok := c.MeshBounds("packed#1")
		require.True(t, ok)
		require.True(t, ob.AABB().Max.ApproxEqual(mgl32.Vec3{3, 4, 0}))
	})

	t.Run("file detected by magic", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "packed.bin")
		require.NoError(t, os.WriteFile(path, glb.Bytes(), 0o644))
		_, err := NewCatalog().Load(path)
		require.NoError(t, err)
	})
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		doc   string
		isGLB bool
	}{
		"bad json":      {doc: "{"},
		"wrong version": {doc: `{"asset": {"version": "1.0"}}`},
		"short buffer": {doc: testDocument(
			"data:application/octet-stream;base64,"+base64.StdEncoding.EncodeToString(trianglePositions[:12]),
			len(trianglePositions),
		)},
		"missing buffer source": {doc: testDocument("", len(trianglePositions))},
		"tiny glb":              {doc: "glTF", isGLB: true},
		"bad glb magic":         {doc: "nope nope nope", isGLB: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewCatalog()
			_, err := c.LoadReader(name, strings.NewReader(tc.doc), tc.isGLB)
			require.Error(t, err)
			require.Empty(t, c.Assets())
		})
	}

	_, err := NewCatalog().Load(filepath.Join(t.TempDir(), "absent.gltf"))
	require.Error(t, err)
}

func TestRegisterKeepsFirstID(t *testing.T) {
	c := NewCatalog(WithTexture("checker"))
	require.Equal(t, uint32(0), c.RegisterMesh("cube", common.AABB{}))
	require.Equal(t, uint32(1), c.RegisterMesh("sphere", common.AABB{}))
	require.Equal(t, uint32(0), c.RegisterMesh("cube", common.NewAABB(mgl32.Vec3{}, mgl32.Vec3{9, 9, 9})))
	require.Equal(t, uint32(0), c.RegisterTexture("checker"))
	require.Equal(t, uint32(1), c.RegisterTexture("noise"))

	ob, _ := c.MeshBounds("cube")
	require.Equal(t, mgl32.Vec3{}, ob.Extents)
}

func TestCatalogResolvesSignatures(t *testing.T) {
	c := NewCatalog(WithMesh("cube", common.AABB{}), WithTexture("checker"))
	var lookup scene.ContentLookup = c
	id, ok := lookup.MeshID("cube")
	require.True(t, ok)
	require.Zero(t, id)
	_, ok = lookup.TextureID("noise")
	require.False(t, ok)
}
