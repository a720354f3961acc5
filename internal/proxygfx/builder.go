package proxygfx

import (
	"encoding/binary"
	"math"

	"github.com/tracedraft/vellum/internal/geom"
)

// Builder assembles a graphic command stream. The encoder side of the
// format lives outside this core; the builder exists for tests and for
// synthesizing proxy payloads in fixtures.
type Builder struct {
	buf []byte
}

func (b *Builder) chunk(typ uint32, payload []byte) {
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(headerSize+len(payload)))
	binary.LittleEndian.PutUint32(header[4:], typ)
	b.buf = append(b.buf, header[:]...)
	b.buf = append(b.buf, payload...)
}

func appendF64(p []byte, v float64) []byte {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], math.Float64bits(v))
	return append(p, raw[:]...)
}

func appendVec(p []byte, v geom.Vec) []byte {
	p = appendF64(p, v.X)
	p = appendF64(p, v.Y)
	return appendF64(p, v.Z)
}

func appendU32(p []byte, v uint32) []byte {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], v)
	return append(p, raw[:]...)
}

// Color appends an attribute command setting the current ACI color.
func (b *Builder) Color(aci int) *Builder {
	b.chunk(TypeAttributeColor, appendU32(nil, uint32(aci)))
	return b
}

// Circle appends a circle command.
func (b *Builder) Circle(center geom.Vec, radius float64) *Builder {
	payload := appendVec(nil, center)
	payload = appendF64(payload, radius)
	b.chunk(TypeCircle, payload)
	return b
}

// Arc appends a circular arc command. Angles in radians.
func (b *Builder) Arc(center geom.Vec, radius, startAngle, endAngle float64) *Builder {
	payload := appendVec(nil, center)
	payload = appendF64(payload, radius)
	payload = appendF64(payload, startAngle)
	payload = appendF64(payload, endAngle)
	b.chunk(TypeCircularArc, payload)
	return b
}

// Polyline appends an open polyline command.
func (b *Builder) Polyline(points ...geom.Vec) *Builder {
	return b.points(TypePolyline, points)
}

// Polygon appends a closed polyline command.
func (b *Builder) Polygon(points ...geom.Vec) *Builder {
	return b.points(TypePolygon, points)
}

func (b *Builder) points(typ uint32, points []geom.Vec) *Builder {
	payload := appendU32(nil, uint32(len(points)))
	for _, p := range points {
		payload = appendVec(payload, p)
	}
	b.chunk(typ, payload)
	return b
}

// Text appends a text command.
func (b *Builder) Text(insert geom.Vec, height, rotation float64, value string) *Builder {
	payload := appendVec(nil, insert)
	payload = appendF64(payload, height)
	payload = appendF64(payload, rotation)
	payload = appendU32(payload, uint32(len(value)))
	payload = append(payload, value...)
	b.chunk(TypeText, payload)
	return b
}

// Raw appends an arbitrary chunk, for exercising unknown-type skipping.
func (b *Builder) Raw(typ uint32, payload []byte) *Builder {
	b.chunk(typ, payload)
	return b
}

// Bytes returns the assembled stream.
func (b *Builder) Bytes() []byte {
	return b.buf
}
