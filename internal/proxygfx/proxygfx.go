// Package proxygfx decodes the embedded binary graphic command stream
// carried by proxy entities.
//
// The stream is a sequence of chunks, each with an 8-byte little-endian
// header: total chunk size (including the header) and a command type,
// followed by the command payload. Geometry commands emit primitive
// entities; attribute commands set the styling applied to every entity
// emitted after them. Unknown command types are skipped by size, which is
// what makes the format forward-compatible.
//
// Decoding is strict about structure: a truncated chunk, an impossible
// size or a short payload is a decode error. The caller (the decomposition
// pipeline) converts that error into a reported issue and continues with
// sibling entities.
package proxygfx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
)

// Command types.
const (
	TypeExtents        uint32 = 1
	TypeCircle         uint32 = 2
	TypeCircularArc    uint32 = 4
	TypePolyline       uint32 = 6
	TypePolygon        uint32 = 7
	TypeText           uint32 = 10
	TypeAttributeColor uint32 = 14
)

const headerSize = 8

var typeNames = map[uint32]string{
	TypeExtents:        "EXTENTS",
	TypeCircle:         "CIRCLE",
	TypeCircularArc:    "CIRCULAR_ARC",
	TypePolyline:       "POLYLINE",
	TypePolygon:        "POLYGON",
	TypeText:           "TEXT",
	TypeAttributeColor: "ATTRIBUTE_COLOR",
}

// TypeName returns a readable name for a command type.
func TypeName(t uint32) string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_TYPE_%d", t)
}

// ChunkInfo describes one chunk of the stream without decoding its
// payload.
type ChunkInfo struct {
	Index int // byte offset of the chunk header
	Size  uint32
	Type  uint32
	Name  string
}

// Info scans the stream and returns one entry per chunk. It validates
// chunk framing only, not payload contents.
func Info(data []byte) ([]ChunkInfo, error) {
	var out []ChunkInfo
	index := 0
	for index < len(data) {
		if len(data)-index < headerSize {
			return nil, fmt.Errorf("truncated chunk header at offset %d", index)
		}
		size := binary.LittleEndian.Uint32(data[index:])
		typ := binary.LittleEndian.Uint32(data[index+4:])
		if size < headerSize {
			return nil, fmt.Errorf("chunk at offset %d has impossible size %d", index, size)
		}
		if index+int(size) > len(data) {
			return nil, fmt.Errorf("chunk at offset %d overruns stream: size %d, %d bytes left", index, size, len(data)-index)
		}
		out = append(out, ChunkInfo{Index: index, Size: size, Type: typ, Name: TypeName(typ)})
		index += int(size)
	}
	return out, nil
}

// Parse decodes the stream into primitive entities. The entities carry no
// handle and default to layer "0" with by-layer color unless attribute
// commands say otherwise.
func Parse(data []byte) ([]entity.Entity, error) {
	chunks, err := Info(data)
	if err != nil {
		return nil, err
	}

	common := entity.Common{Layer: entity.DefaultLayer, Linetype: entity.ByLayerLinetype, Color: 256}
	var out []entity.Entity
	for _, c := range chunks {
		payload := data[c.Index+headerSize : c.Index+int(c.Size)]
		switch c.Type {
		case TypeAttributeColor:
			color, err := readUint32(payload)
			if err != nil {
				return nil, fmt.Errorf("chunk at offset %d (%s): %w", c.Index, c.Name, err)
			}
			common.Color = int(color)
		case TypeCircle:
			e, err := parseCircle(payload, common)
			if err != nil {
				return nil, fmt.Errorf("chunk at offset %d (%s): %w", c.Index, c.Name, err)
			}
			out = append(out, e)
		case TypeCircularArc:
			e, err := parseArc(payload, common)
			if err != nil {
				return nil, fmt.Errorf("chunk at offset %d (%s): %w", c.Index, c.Name, err)
			}
			out = append(out, e)
		case TypePolyline, TypePolygon:
			e, err := parsePolyline(payload, common, c.Type == TypePolygon)
			if err != nil {
				return nil, fmt.Errorf("chunk at offset %d (%s): %w", c.Index, c.Name, err)
			}
			out = append(out, e)
		case TypeText:
			e, err := parseText(payload, common)
			if err != nil {
				return nil, fmt.Errorf("chunk at offset %d (%s): %w", c.Index, c.Name, err)
			}
			out = append(out, e)
		default:
			// Extents and unknown commands carry no geometry.
		}
	}
	return out, nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) f64() (float64, error) {
	if r.remaining() < 8 {
		return 0, fmt.Errorf("payload truncated at byte %d", r.off)
	}
	bits := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return math.Float64frombits(bits), nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("payload truncated at byte %d", r.off)
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) vec() (geom.Vec, error) {
	x, err := r.f64()
	if err != nil {
		return geom.Vec{}, err
	}
	y, err := r.f64()
	if err != nil {
		return geom.Vec{}, err
	}
	z, err := r.f64()
	if err != nil {
		return geom.Vec{}, err
	}
	return geom.V3(x, y, z), nil
}

func readUint32(payload []byte) (uint32, error) {
	r := &reader{data: payload}
	return r.u32()
}

func parseCircle(payload []byte, common entity.Common) (entity.Entity, error) {
	r := &reader{data: payload}
	center, err := r.vec()
	if err != nil {
		return nil, err
	}
	radius, err := r.f64()
	if err != nil {
		return nil, err
	}
	return &entity.Circle{Common: common, Center: center, Radius: radius}, nil
}

func parseArc(payload []byte, common entity.Common) (entity.Entity, error) {
	r := &reader{data: payload}
	center, err := r.vec()
	if err != nil {
		return nil, err
	}
	radius, err := r.f64()
	if err != nil {
		return nil, err
	}
	start, err := r.f64()
	if err != nil {
		return nil, err
	}
	end, err := r.f64()
	if err != nil {
		return nil, err
	}
	return &entity.Arc{Common: common, Center: center, Radius: radius, StartAngle: start, EndAngle: end}, nil
}

func parsePolyline(payload []byte, common entity.Common, closed bool) (entity.Entity, error) {
	r := &reader{data: payload}
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	if int(count)*24 != r.remaining() {
		return nil, fmt.Errorf("vertex count %d does not match %d payload bytes", count, r.remaining())
	}
	p := &entity.Polyline{Common: common, Closed: closed}
	for i := 0; i < int(count); i++ {
		v, err := r.vec()
		if err != nil {
			return nil, err
		}
		p.Vertices = append(p.Vertices, entity.Vertex{Location: v, Layer: common.Layer})
	}
	return p, nil
}

func parseText(payload []byte, common entity.Common) (entity.Entity, error) {
	r := &reader{data: payload}
	insert, err := r.vec()
	if err != nil {
		return nil, err
	}
	height, err := r.f64()
	if err != nil {
		return nil, err
	}
	rotation, err := r.f64()
	if err != nil {
		return nil, err
	}
	length, err := r.u32()
	if err != nil {
		return nil, err
	}
	if int(length) != r.remaining() {
		return nil, fmt.Errorf("text length %d does not match %d payload bytes", length, r.remaining())
	}
	value := string(payload[r.off:])
	return &entity.Text{
		Common: common,
		Style:  entity.StandardStyle,
		Value:  value,
		Insert: insert,
		Height: height, Rotation: rotation,
	}, nil
}
