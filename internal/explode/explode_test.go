package explode_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/explode"
	"github.com/tracedraft/vellum/internal/geom"
	"github.com/tracedraft/vellum/internal/graph"
	"github.com/tracedraft/vellum/internal/proxygfx"
	"github.com/tracedraft/vellum/internal/testutil"
)

const tol = 1e-9

func assertVec(t *testing.T, want, got geom.Vec) {
	t.Helper()
	assert.True(t, want.NearEqual(got, tol), "want %v, got %v", want, got)
}

func decompose(t *testing.T, doc *graph.Document, e entity.Entity, opts explode.Options) []entity.Entity {
	t.Helper()
	out, issues, err := explode.VirtualEntities(doc, e, opts)
	require.NoError(t, err)
	require.Empty(t, issues)
	return out
}

func TestPolyline_FlatEdges(t *testing.T) {
	doc := graph.New()
	p := &entity.Polyline{
		Vertices: []entity.Vertex{
			{Location: geom.V(0, 0)},
			{Location: geom.V(4, 0)},
			{Location: geom.V(4, 3)},
		},
	}

	out := decompose(t, doc, p, explode.Options{})
	require.Len(t, out, 2)

	p.Closed = true
	out = decompose(t, doc, p, explode.Options{})
	require.Len(t, out, 3)

	closing := out[2].(*entity.Line)
	assertVec(t, geom.V(4, 3), closing.Start)
	assertVec(t, geom.V(0, 0), closing.End)
	assert.Equal(t, entity.NoHandle, closing.Handle, "virtual entities carry no handle")
}

func TestPolyline_BulgeTargets(t *testing.T) {
	doc := graph.New()
	// A semicircle above the X axis: bulge 1 from (0,0) to (1,0).
	p := &entity.Polyline{
		Vertices: []entity.Vertex{
			{Location: geom.V(0, 0), Bulge: 1},
			{Location: geom.V(1, 0)},
		},
	}

	t.Run("arc", func(t *testing.T) {
		out := decompose(t, doc, p, explode.Options{Target: explode.TargetArc})
		require.Len(t, out, 1)
		arc := out[0].(*entity.Arc)
		assertVec(t, geom.V(0.5, 0), arc.Center)
		assert.InDelta(t, 0.5, arc.Radius, tol)
		assert.InDelta(t, math.Pi, arc.StartAngle, tol)
		assert.InDelta(t, 2*math.Pi, arc.EndAngle, tol)
	})

	t.Run("ellipse", func(t *testing.T) {
		out := decompose(t, doc, p, explode.Options{Target: explode.TargetEllipse})
		require.Len(t, out, 1)
		el := out[0].(*entity.Ellipse)
		assertVec(t, geom.V(0.5, 0), el.Center)
		assert.InDelta(t, 0.5, el.MajorAxis.Length(), tol)
		assert.InDelta(t, 1.0, el.Ratio, tol, "a circular arc keeps ratio 1")
		assert.InDelta(t, math.Pi, el.StartParam, tol)
		assert.InDelta(t, 2*math.Pi, el.EndParam, tol)
	})

	t.Run("spline", func(t *testing.T) {
		out := decompose(t, doc, p, explode.Options{Target: explode.TargetSpline})
		require.Len(t, out, 1)
		s := out[0].(*entity.Spline)
		assert.Equal(t, 3, s.Degree)
		// Two quarter-turn Bezier segments: 7 control points, 11 knots.
		require.Len(t, s.ControlPoints, 7)
		require.Len(t, s.Knots, 11)
		assertVec(t, geom.V(0, 0), s.ControlPoints[0])
		assertVec(t, geom.V(1, 0), s.ControlPoints[6])
	})
}

func TestPolyline_Degenerate(t *testing.T) {
	doc := graph.New()

	_, _, err := explode.VirtualEntities(doc, &entity.Polyline{
		Vertices: []entity.Vertex{{Location: geom.V(0, 0)}},
	}, explode.Options{})
	assert.True(t, explode.IsCode(err, explode.CodeDegenerate))

	_, _, err = explode.VirtualEntities(doc, &entity.Polyline{
		Vertices: []entity.Vertex{
			{Location: geom.V(1, 1), Bulge: 0.5},
			{Location: geom.V(1, 1)},
		},
	}, explode.Options{})
	assert.True(t, explode.IsCode(err, explode.CodeDegenerate), "bulged edge between coincident vertices")

	// Coincident vertices on a flat edge are skipped, not fatal.
	out := decompose(t, doc, &entity.Polyline{
		Vertices: []entity.Vertex{
			{Location: geom.V(0, 0)},
			{Location: geom.V(0, 0)},
			{Location: geom.V(2, 0)},
		},
	}, explode.Options{})
	assert.Len(t, out, 1)
}

func TestPrimitive_NonUniformScale(t *testing.T) {
	doc := graph.New()
	out := decompose(t, doc, &entity.Circle{Center: geom.V(0, 0), Radius: 1}, explode.Options{
		Transform: geom.Scale(2, 1, 1),
	})
	require.Len(t, out, 1)

	el := out[0].(*entity.Ellipse)
	assertVec(t, geom.V(2, 0), el.MajorAxis)
	assert.InDelta(t, 0.5, el.Ratio, tol)
	assert.InDelta(t, 0.0, el.StartParam, tol)
	assert.InDelta(t, 2*math.Pi, el.EndParam, tol, "a full circle keeps its full span")
}

func TestPrimitive_ConformalArc(t *testing.T) {
	doc := graph.New()
	arc := &entity.Arc{Center: geom.V(1, 0), Radius: 2, StartAngle: 0, EndAngle: math.Pi / 2}

	out := decompose(t, doc, arc, explode.Options{
		Transform: geom.Translate(0, 5, 0).Mul(geom.RotateZ(math.Pi / 2)).Mul(geom.Scale(3, 3, 3)),
	})
	require.Len(t, out, 1)

	got := out[0].(*entity.Arc)
	assertVec(t, geom.V(0, 8), got.Center)
	assert.InDelta(t, 6, got.Radius, tol)
	assert.InDelta(t, math.Pi/2, got.StartAngle, tol)
	assert.InDelta(t, math.Pi, got.EndAngle, tol)
}

func TestInsert_RotationAndTranslation(t *testing.T) {
	doc := graph.New()
	testutil.UnitLineBlock(t, doc, "Part")

	ins := &entity.Insert{
		BlockName: "Part",
		Position:  geom.V(10, 0),
		Rotation:  math.Pi / 2,
		ScaleX:    1, ScaleY: 1, ScaleZ: 1,
	}
	out := decompose(t, doc, ins, explode.Options{})
	require.Len(t, out, 1)

	line := out[0].(*entity.Line)
	assertVec(t, geom.V(10, 0), line.Start)
	assertVec(t, geom.V(10, 1), line.End)
}

func TestInsert_BasePointOffset(t *testing.T) {
	doc := graph.New()
	testutil.AddBlock(t, doc, entity.BlockDef{Name: "Anchor", BasePoint: geom.V(1, 0)})
	testutil.AddTo(t, doc, "Anchor", &entity.Line{Start: geom.V(1, 0), End: geom.V(2, 0)})

	out := decompose(t, doc, &entity.Insert{
		BlockName: "Anchor",
		Position:  geom.V(5, 5),
	}, explode.Options{})
	require.Len(t, out, 1)

	line := out[0].(*entity.Line)
	assertVec(t, geom.V(5, 5), line.Start)
	assertVec(t, geom.V(6, 5), line.End)
}

func TestInsert_ZeroScaleNormalizes(t *testing.T) {
	doc := graph.New()
	testutil.UnitLineBlock(t, doc, "Part")

	out := decompose(t, doc, &entity.Insert{BlockName: "Part"}, explode.Options{})
	require.Len(t, out, 1)
	line := out[0].(*entity.Line)
	assertVec(t, geom.V(1, 0), line.End)
}

func TestInsert_Array(t *testing.T) {
	doc := graph.New()
	testutil.UnitLineBlock(t, doc, "Part")

	out := decompose(t, doc, &entity.Insert{
		BlockName: "Part",
		ScaleX:    1, ScaleY: 1, ScaleZ: 1,
		RowCount: 2, ColCount: 3,
		RowSpacing: 10, ColSpacing: 5,
	}, explode.Options{})
	require.Len(t, out, 6)

	// Cells expand row-major: the last cell sits at column 2, row 1.
	last := out[5].(*entity.Line)
	assertVec(t, geom.V(10, 10), last.Start)
	assertVec(t, geom.V(11, 10), last.End)
}

func TestInsert_ArrayOffsetsRotateWithInsertion(t *testing.T) {
	doc := graph.New()
	testutil.UnitLineBlock(t, doc, "Part")

	out := decompose(t, doc, &entity.Insert{
		BlockName: "Part",
		Rotation:  math.Pi / 2,
		ScaleX:    2, ScaleY: 2, ScaleZ: 1,
		ColCount:  2, ColSpacing: 5,
	}, explode.Options{})
	require.Len(t, out, 2)

	// The column offset rotates with the insertion but never scales:
	// (5,0) becomes (0,5) regardless of the doubled block scale.
	second := out[1].(*entity.Line)
	assertVec(t, geom.V(0, 5), second.Start)
	assertVec(t, geom.V(0, 7), second.End)
}

func TestInsert_Nested(t *testing.T) {
	doc := graph.New()
	testutil.AddBlock(t, doc, entity.BlockDef{Name: "Inner"})
	testutil.AddTo(t, doc, "Inner", &entity.Line{Start: geom.V(0, 0), End: geom.V(1, 0)})
	testutil.AddBlock(t, doc, entity.BlockDef{Name: "Outer"})
	testutil.AddTo(t, doc, "Outer", &entity.Insert{
		BlockName: "Inner",
		Position:  geom.V(1, 0),
		ScaleX:    1, ScaleY: 1, ScaleZ: 1,
	})

	out := decompose(t, doc, &entity.Insert{
		BlockName: "Outer",
		Position:  geom.V(10, 0),
		Rotation:  math.Pi / 2,
		ScaleX:    1, ScaleY: 1, ScaleZ: 1,
	}, explode.Options{})
	require.Len(t, out, 1)

	line := out[0].(*entity.Line)
	assertVec(t, geom.V(10, 1), line.Start)
	assertVec(t, geom.V(10, 2), line.End)
}

func TestInsert_MissingBlock(t *testing.T) {
	doc := graph.New()
	_, _, err := explode.VirtualEntities(doc, &entity.Insert{BlockName: "Ghost"}, explode.Options{})
	assert.True(t, explode.IsCode(err, explode.CodeMissingBlock))
}

func TestInsert_CycleFailsDeterministically(t *testing.T) {
	doc := graph.New()
	testutil.AddBlock(t, doc, entity.BlockDef{Name: "Loop"})
	testutil.AddTo(t, doc, "Loop", &entity.Insert{
		BlockName: "Loop",
		ScaleX:    1, ScaleY: 1, ScaleZ: 1,
	})

	_, _, err := explode.VirtualEntities(doc, &entity.Insert{BlockName: "Loop"}, explode.Options{MaxDepth: 8})
	require.True(t, explode.IsCode(err, explode.CodeDepthExceeded))

	var e *explode.Error
	require.ErrorAs(t, err, &e)
	require.NotEmpty(t, e.Chain)
	for _, name := range e.Chain {
		assert.Equal(t, "Loop", name)
	}
}

func TestInsert_ChildDefectsBecomeIssues(t *testing.T) {
	doc := graph.New()
	testutil.AddBlock(t, doc, entity.BlockDef{Name: "Annotated"})
	testutil.AddTo(t, doc, "Annotated", &entity.Leader{Vertices: []geom.Vec{geom.V(0, 0)}})
	testutil.AddTo(t, doc, "Annotated", &entity.Line{Start: geom.V(0, 0), End: geom.V(1, 1)})

	out, issues, err := explode.VirtualEntities(doc, &entity.Insert{BlockName: "Annotated"}, explode.Options{})
	require.NoError(t, err, "a local defect never fails the whole call")
	assert.Len(t, out, 1, "siblings of the defective entity survive")
	require.Len(t, issues, 1)
	assert.Equal(t, explode.CodeDegenerate, issues[0].Code)
}

func TestDimension_ReplaysGeometryBlock(t *testing.T) {
	doc := graph.New()
	testutil.AddBlock(t, doc, entity.BlockDef{Name: "*D1", Anonymous: true})
	testutil.AddTo(t, doc, "*D1", &entity.Line{Start: geom.V(0, 0), End: geom.V(10, 0)})
	testutil.AddTo(t, doc, "*D1", &entity.Text{Value: "10.0", Insert: geom.V(5, 1), Height: 0.25})

	out := decompose(t, doc, &entity.Dimension{
		SubKind:       entity.DimLinear,
		GeometryBlock: "*D1",
	}, explode.Options{})
	require.Len(t, out, 2)
	assert.Equal(t, entity.KindLine, out[0].Kind())
	assert.Equal(t, entity.KindText, out[1].Kind())
}

func TestDimension_Failures(t *testing.T) {
	doc := graph.New()

	_, _, err := explode.VirtualEntities(doc, &entity.Dimension{SubKind: entity.DimAngular}, explode.Options{})
	assert.True(t, explode.IsCode(err, explode.CodeNotImplemented), "no cached geometry means no decomposition")

	_, _, err = explode.VirtualEntities(doc, &entity.Dimension{
		SubKind:       entity.DimLinear,
		GeometryBlock: "*Gone",
	}, explode.Options{})
	assert.True(t, explode.IsCode(err, explode.CodeMissingBlock))
}

func TestLeader(t *testing.T) {
	doc := graph.New()
	vertices := []geom.Vec{geom.V(0, 0), geom.V(2, 2), geom.V(5, 2)}

	t.Run("straight path", func(t *testing.T) {
		out := decompose(t, doc, &entity.Leader{Vertices: vertices}, explode.Options{})
		require.Len(t, out, 2)
		first := out[0].(*entity.Line)
		assertVec(t, geom.V(2, 2), first.End)
	})

	t.Run("spline path", func(t *testing.T) {
		out := decompose(t, doc, &entity.Leader{
			Vertices: vertices,
			PathType: entity.LeaderPathSpline,
		}, explode.Options{})
		require.Len(t, out, 1)
		s := out[0].(*entity.Spline)
		assert.Equal(t, 2, s.Degree, "degree clamps to vertex count - 1")
		assert.Len(t, s.Knots, 6)
	})

	t.Run("too few vertices", func(t *testing.T) {
		_, _, err := explode.VirtualEntities(doc, &entity.Leader{Vertices: vertices[:1]}, explode.Options{})
		assert.True(t, explode.IsCode(err, explode.CodeDegenerate))
	})
}

func TestLeader_Arrowhead(t *testing.T) {
	doc := graph.New()
	require.NoError(t, doc.AddDimStyle(entity.DimStyle{Name: "Arch", ArrowBlock: "Tip", ArrowSize: 2}))
	testutil.UnitLineBlock(t, doc, "Tip")

	leader := &entity.Leader{
		DimStyle:     "Arch",
		Vertices:     []geom.Vec{geom.V(10, 0), geom.V(0, 0)},
		HasArrowhead: true,
	}
	out := decompose(t, doc, leader, explode.Options{})
	require.Len(t, out, 2)

	// The arrow block's unit line scales to the style's arrow size and
	// points outward along the first segment.
	arrow := out[0].(*entity.Line)
	assertVec(t, geom.V(10, 0), arrow.Start)
	assertVec(t, geom.V(12, 0), arrow.End)

	path := out[1].(*entity.Line)
	assertVec(t, geom.V(10, 0), path.Start)
	assertVec(t, geom.V(0, 0), path.End)

	leader.HasArrowhead = false
	out = decompose(t, doc, leader, explode.Options{})
	assert.Len(t, out, 1, "no arrow geometry when the arrowhead is off")
}

func TestLeader_ArrowheadWithoutBlockGeometry(t *testing.T) {
	doc := graph.New()
	require.NoError(t, doc.AddDimStyle(entity.DimStyle{Name: "Arch", ArrowBlock: "Gone"}))

	// A missing arrow block means the built-in default arrow: the path
	// still decomposes, with nothing extra to replay.
	out := decompose(t, doc, &entity.Leader{
		DimStyle:     "Arch",
		Vertices:     []geom.Vec{geom.V(0, 0), geom.V(5, 0)},
		HasArrowhead: true,
	}, explode.Options{})
	assert.Len(t, out, 1)
}

func TestProxy(t *testing.T) {
	doc := graph.New()

	var b proxygfx.Builder
	graphic := b.Color(5).Circle(geom.V(3, 4), 2).Bytes()

	out := decompose(t, doc, &entity.Proxy{Graphic: graphic}, explode.Options{
		Transform: geom.Translate(1, 0, 0),
	})
	require.Len(t, out, 1)
	circle := out[0].(*entity.Circle)
	assertVec(t, geom.V(4, 4), circle.Center)
	assert.Equal(t, 5, circle.Color)

	out, issues, err := explode.VirtualEntities(doc, &entity.Proxy{}, explode.Options{})
	require.NoError(t, err, "an empty graphic stream is a recorded issue, not an error")
	assert.Empty(t, out)
	require.Len(t, issues, 1)
	assert.Equal(t, explode.CodeProxyDecode, issues[0].Code)

	out, issues, err = explode.VirtualEntities(doc, &entity.Proxy{Graphic: graphic[:5]}, explode.Options{})
	require.NoError(t, err, "a truncated graphic stream is a recorded issue, not an error")
	assert.Empty(t, out)
	require.Len(t, issues, 1)
	assert.Equal(t, explode.CodeProxyDecode, issues[0].Code)
}

func TestProxy_NestedDecodeFailureIsLocal(t *testing.T) {
	doc := graph.New()
	testutil.AddBlock(t, doc, entity.BlockDef{Name: "Mixed"})
	testutil.AddTo(t, doc, "Mixed", &entity.Proxy{Graphic: []byte{1, 2, 3}})
	testutil.AddTo(t, doc, "Mixed", &entity.Line{Start: geom.V(0, 0), End: geom.V(1, 0)})

	out, issues, err := explode.VirtualEntities(doc, &entity.Insert{BlockName: "Mixed"}, explode.Options{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	require.Len(t, issues, 1)
	assert.Equal(t, explode.CodeProxyDecode, issues[0].Code)
}

func TestVirtualEntities_DoesNotMutateDocument(t *testing.T) {
	doc := graph.New()
	testutil.UnitLineBlock(t, doc, "Part")
	before := len(doc.Entities())

	_ = decompose(t, doc, &entity.Insert{BlockName: "Part"}, explode.Options{})
	assert.Equal(t, before, len(doc.Entities()))
}
