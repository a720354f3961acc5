package entity

import "github.com/tracedraft/vellum/internal/geom"

// Handle is the stable identity of an entity, independent of storage
// location. The zero value means "no handle": virtual entities produced by
// decomposition are never registered in a document and carry no handle.
type Handle string

// NoHandle is the zero handle carried by virtual entities.
const NoHandle Handle = ""

// Kind identifies an entity variant.
type Kind string

// The closed set of entity kinds.
const (
	KindLine      Kind = "LINE"
	KindPoint     Kind = "POINT"
	KindArc       Kind = "ARC"
	KindCircle    Kind = "CIRCLE"
	KindEllipse   Kind = "ELLIPSE"
	KindSpline    Kind = "SPLINE"
	KindText      Kind = "TEXT"
	KindMText     Kind = "MTEXT"
	KindPolyline  Kind = "LWPOLYLINE"
	KindInsert    Kind = "INSERT"
	KindDimension Kind = "DIMENSION"
	KindLeader    Kind = "LEADER"
	KindProxy     Kind = "ACAD_PROXY_ENTITY"
)

// Entity is the sealed interface implemented by every entity variant.
type Entity interface {
	Kind() Kind
	// Base returns the common attribute set shared by all variants.
	Base() *Common
	sealed()
}

// Common holds the attributes shared by every entity variant.
type Common struct {
	Handle   Handle
	Layer    string
	Linetype string
	// Color is an ACI color index; 256 means "by layer".
	Color int
}

// Base returns the common attribute set. It also provides the receiver
// half of the Entity interface for every embedding variant.
func (c *Common) Base() *Common { return c }

func (c *Common) sealed() {}

// Line is a straight segment between two points.
type Line struct {
	Common
	Start geom.Vec
	End   geom.Vec
}

func (*Line) Kind() Kind { return KindLine }

// Point is a single location marker.
type Point struct {
	Common
	Location geom.Vec
}

func (*Point) Kind() Kind { return KindPoint }

// Arc is a circular arc. Angles are in radians, measured counter-clockwise
// from the positive X axis; the arc is always drawn counter-clockwise from
// StartAngle to EndAngle.
type Arc struct {
	Common
	Center     geom.Vec
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

func (*Arc) Kind() Kind { return KindArc }

// Circle is a full circle.
type Circle struct {
	Common
	Center geom.Vec
	Radius float64
}

func (*Circle) Kind() Kind { return KindCircle }

// Ellipse is an elliptical arc. MajorAxis is the vector from the center to
// the major axis endpoint; Ratio is minor/major axis length in (0, 1].
// StartParam and EndParam are curve parameters in radians, measured from
// the major axis; a full ellipse spans 0 to 2*pi.
type Ellipse struct {
	Common
	Center     geom.Vec
	MajorAxis  geom.Vec
	Ratio      float64
	StartParam float64
	EndParam   float64
}

func (*Ellipse) Kind() Kind { return KindEllipse }

// Spline is a non-rational B-spline curve.
type Spline struct {
	Common
	Degree        int
	ControlPoints []geom.Vec
	Knots         []float64
	Closed        bool
}

func (*Spline) Kind() Kind { return KindSpline }

// Text is a single-line text entity. Content and styling pass through
// decomposition unmeasured; glyph metrics are the renderer's concern.
type Text struct {
	Common
	Style    string
	Value    string
	Insert   geom.Vec
	Height   float64
	Rotation float64 // radians
}

func (*Text) Kind() Kind { return KindText }

// MText is a multi-line text entity with a layout box.
type MText struct {
	Common
	Style      string
	Value      string
	Insert     geom.Vec
	CharHeight float64
	Width      float64 // layout box width, 0 = unbounded
	Rotation   float64 // radians
}

func (*MText) Kind() Kind { return KindMText }

// Vertex is a polyline vertex. It is owned by exactly one polyline and its
// Layer must equal the owning polyline's layer; the audit engine repairs
// violations of that invariant.
type Vertex struct {
	Location geom.Vec
	Bulge    float64
	Layer    string
}

// Polyline is a polyline with optional per-vertex bulges.
type Polyline struct {
	Common
	Vertices []Vertex
	Closed   bool
}

func (*Polyline) Kind() Kind { return KindPolyline }

// Insert places a block definition. Rotation is in radians; a zero scale
// component is normalized to 1 by the document loader. RowCount/ColCount
// above 1 make this a grid array of placements.
type Insert struct {
	Common
	BlockName  string
	Position   geom.Vec
	Rotation   float64
	ScaleX     float64
	ScaleY     float64
	ScaleZ     float64
	RowCount   int
	ColCount   int
	RowSpacing float64
	ColSpacing float64
}

func (*Insert) Kind() Kind { return KindInsert }

// Rows returns the effective row count (minimum 1).
func (i *Insert) Rows() int {
	if i.RowCount < 1 {
		return 1
	}
	return i.RowCount
}

// Cols returns the effective column count (minimum 1).
func (i *Insert) Cols() int {
	if i.ColCount < 1 {
		return 1
	}
	return i.ColCount
}

// DimKind identifies the dimension sub-kind.
type DimKind string

// Dimension sub-kinds. Angular and ordinate dimensions require live
// geometric reconstruction from their defining points, which the
// decomposition pipeline does not implement; they decompose only through
// their pre-built geometry block.
const (
	DimLinear   DimKind = "linear"
	DimAligned  DimKind = "aligned"
	DimAngular  DimKind = "angular"
	DimOrdinate DimKind = "ordinate"
	DimRadius   DimKind = "radius"
	DimDiameter DimKind = "diameter"
)

// Dimension is a dimension entity. GeometryBlock names the anonymous block
// holding its pre-built measurement geometry (lines, arrows, text); an
// empty name means no cached geometry exists.
type Dimension struct {
	Common
	SubKind       DimKind
	DimStyle      string
	GeometryBlock string
	DefPoint      geom.Vec
	TextOverride  string
	// Style overrides. A nil pointer means "not overridden"; an empty
	// string override is meaningful (the format's default arrow).
	ArrowBlockOverride *string
	TextStyleOverride  *string
}

func (*Dimension) Kind() Kind { return KindDimension }

// Leader path types.
const (
	LeaderPathStraight = 0
	LeaderPathSpline   = 1
)

// Leader is a leader line annotation. A leader with fewer than two
// vertices is invalid and deleted by the audit engine.
type Leader struct {
	Common
	DimStyle     string
	Vertices     []geom.Vec
	PathType     int
	HasArrowhead bool
}

func (*Leader) Kind() Kind { return KindLeader }

// Proxy is a proxy entity carrying an embedded binary graphic command
// stream in place of native geometry.
type Proxy struct {
	Common
	Graphic []byte
}

func (*Proxy) Kind() Kind { return KindProxy }
