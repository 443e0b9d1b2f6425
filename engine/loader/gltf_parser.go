package loader

import (
	"encoding/base64"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// gltfParser decodes a .gltf or .glb document and resolves its buffers.
type gltfParser struct {
	baseDir string
	doc     *gltfDocument
}

// parseFile reads a glTF or GLB file. GLB is detected by extension or by its
// magic number, so a mislabelled binary still parses.
func parseFile(path string) (*gltfParser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading asset failed").WithTag("path", path).Wrap(err)
	}
	p := &gltfParser{baseDir: filepath.Dir(path)}
	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") || hasGLBMagic(data)
	if err := p.parse(data, isGLB); err != nil {
		return nil, errors.New("parsing asset failed").WithTag("path", path).Wrap(err)
	}
	return p, nil
}

// parseReader decodes a document from r. External buffer URIs are resolved
// against baseDir.
func parseReader(r io.Reader, isGLB bool, baseDir string) (*gltfParser, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("reading asset stream failed").Wrap(err)
	}
	p := &gltfParser{baseDir: baseDir}
	if err := p.parse(data, isGLB); err != nil {
		return nil, err
	}
	return p, nil
}

func hasGLBMagic(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic
}

func (p *gltfParser) parse(data []byte, isGLB bool) error {
	var bin []byte
	if isGLB {
		var err error
		if data, bin, err = splitGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.New("decoding glTF JSON failed").Wrap(err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errors.New("unsupported glTF version").WithTag("version", doc.Asset.Version)
	}
	if err := p.loadBuffers(&doc, bin); err != nil {
		return err
	}
	p.doc = &doc
	return nil
}

// splitGLB returns the JSON and optional BIN chunks of a GLB container.
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	if len(data) < glbHeaderSize {
		return nil, nil, errors.New("GLB file too small").WithTag("size", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != glbMagic {
		return nil, nil, errors.New("invalid GLB magic")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != glbVersion {
		return nil, nil, errors.New("unsupported GLB version").WithTag("version", v)
	}

	rest := data[glbHeaderSize:]
	for len(rest) >= 8 {
		length := int(binary.LittleEndian.Uint32(rest[0:4]))
		kind := binary.LittleEndian.Uint32(rest[4:8])
		rest = rest[8:]
		if length > len(rest) {
			return nil, nil, errors.New("truncated GLB chunk").WithTag("length", length)
		}
		switch kind {
		case glbChunkJSON:
			jsonChunk = rest[:length]
		case glbChunkBIN:
			binChunk = rest[:length]
		}
		rest = rest[length:]
	}
	if jsonChunk == nil {
		return nil, nil, errors.New("GLB file has no JSON chunk")
	}
	return jsonChunk, binChunk, nil
}

// loadBuffers fills every buffer from its URI, or buffer 0 from the GLB
// binary chunk when it has no URI.
func (p *gltfParser) loadBuffers(doc *gltfDocument, bin []byte) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		switch {
		case buf.URI == "" && i == 0 && bin != nil:
			buf.Data = bin
		case buf.URI == "":
			return errors.New("buffer has no data source").WithTag("buffer", i)
		default:
			data, err := p.loadURI(buf.URI)
			if err != nil {
				return errors.New("loading buffer failed").WithTag("buffer", i).Wrap(err)
			}
			buf.Data = data
		}
		if len(buf.Data) < buf.ByteLength {
			return errors.New("buffer shorter than declared").
				WithTag("buffer", i).
				WithTag("declared", buf.ByteLength).
				WithTag("actual", len(buf.Data))
		}
	}
	return nil
}

// loadURI reads a base64 data URI or a file relative to the document.
func (p *gltfParser) loadURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return os.ReadFile(filepath.Join(p.baseDir, uri))
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, errors.New("unsupported data URI encoding").WithTag("header", header)
	}
	return base64.StdEncoding.DecodeString(payload)
}

// readVec3 reads a tightly packed or strided VEC3 FLOAT accessor.
func (p *gltfParser) readVec3(index int) ([][3]float32, error) {
	if index < 0 || index >= len(p.doc.Accessors) {
		return nil, errors.New("accessor out of range").WithTag("accessor", index)
	}
	acc := &p.doc.Accessors[index]
	switch {
	case acc.Type != gltfAccessorTypeVec3 || acc.ComponentType != gltfComponentTypeFloat:
		return nil, errors.New("accessor is not VEC3 FLOAT").
			WithTag("accessor", index).
			WithTag("type", acc.Type).
			WithTag("component_type", acc.ComponentType)
	case acc.Sparse != nil:
		return nil, errors.New("sparse accessors are not supported").WithTag("accessor", index)
	case acc.BufferView == nil || *acc.BufferView >= len(p.doc.BufferViews):
		return nil, errors.New("accessor has no buffer view").WithTag("accessor", index)
	}

	bv := &p.doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(p.doc.Buffers) {
		return nil, errors.New("buffer view points past the buffers").WithTag("accessor", index)
	}
	data := p.doc.Buffers[bv.Buffer].Data

	const elemSize = 12
	stride := elemSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	start := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && start+(acc.Count-1)*stride+elemSize > len(data) {
		return nil, errors.New("accessor reads past its buffer").WithTag("accessor", index)
	}

	out := make([][3]float32, acc.Count)
	for i := range out {
		off := start + i*stride
		for c := range 3 {
			out[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+4*c:]))
		}
	}
	return out, nil
}
