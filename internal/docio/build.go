package docio

import (
	"encoding/base64"
	"fmt"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
	"github.com/tracedraft/vellum/internal/graph"
)

// Raw decode targets for the CUE-validated document. One superset struct
// per entity covers the whole union; the schema guarantees each kind
// carries its required fields.

type rawVec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v rawVec) vec() geom.Vec { return geom.V3(v.X, v.Y, v.Z) }

// rawVertex decodes both vertex shapes: polyline vertices carry a nested
// location with bulge and layer, leader vertices are bare coordinates.
type rawVertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	Location rawVec  `json:"location"`
	Bulge    float64 `json:"bulge"`
	Layer    string  `json:"layer"`
}

type rawEntity struct {
	Kind     string `json:"kind"`
	Handle   string `json:"handle"`
	Layer    string `json:"layer"`
	Linetype string `json:"linetype"`
	Color    *int   `json:"color"`

	Start    rawVec `json:"start"`
	End      rawVec `json:"end"`
	Location rawVec `json:"location"`

	Center     rawVec  `json:"center"`
	Radius     float64 `json:"radius"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`

	MajorAxis  rawVec  `json:"major_axis"`
	Ratio      float64 `json:"ratio"`
	StartParam float64 `json:"start_param"`
	EndParam   float64 `json:"end_param"`

	Degree        int       `json:"degree"`
	ControlPoints []rawVec  `json:"control_points"`
	Knots         []float64 `json:"knots"`
	Closed        bool      `json:"closed"`

	Style      string  `json:"style"`
	Value      string  `json:"value"`
	Insert     rawVec  `json:"insert"`
	Height     float64 `json:"height"`
	CharHeight float64 `json:"char_height"`
	Width      float64 `json:"width"`
	Rotation   float64 `json:"rotation"`

	Vertices []rawVertex `json:"vertices"`

	Block      string  `json:"block"`
	Position   rawVec  `json:"position"`
	ScaleX     float64 `json:"scale_x"`
	ScaleY     float64 `json:"scale_y"`
	ScaleZ     float64 `json:"scale_z"`
	RowCount   int     `json:"row_count"`
	ColCount   int     `json:"col_count"`
	RowSpacing float64 `json:"row_spacing"`
	ColSpacing float64 `json:"col_spacing"`

	SubKind            string  `json:"sub_kind"`
	DimStyle           string  `json:"dim_style"`
	GeometryBlock      string  `json:"geometry_block"`
	DefPoint           rawVec  `json:"def_point"`
	TextOverride       string  `json:"text_override"`
	ArrowBlockOverride *string `json:"arrow_block_override"`
	TextStyleOverride  *string `json:"text_style_override"`

	PathType  int   `json:"path_type"`
	Arrowhead *bool `json:"arrowhead"`

	Graphic string `json:"graphic"`
}

type rawLayer struct {
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Linetype string `json:"linetype"`
	Frozen   bool   `json:"frozen"`
}

type rawTextStyle struct {
	Name        string  `json:"name"`
	Font        string  `json:"font"`
	FixedHeight float64 `json:"fixed_height"`
	WidthFactor float64 `json:"width_factor"`
}

type rawDimStyle struct {
	Name       string  `json:"name"`
	ArrowBlock string  `json:"arrow_block"`
	TextStyle  string  `json:"text_style"`
	TextHeight float64 `json:"text_height"`
	ArrowSize  float64 `json:"arrow_size"`
}

type rawLinetype struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Pattern     []float64 `json:"pattern"`
}

type rawBlock struct {
	Name      string      `json:"name"`
	BasePoint rawVec      `json:"base_point"`
	Anonymous bool        `json:"anonymous"`
	Entities  []rawEntity `json:"entities"`
}

type rawDocument struct {
	Layers     []rawLayer    `json:"layers"`
	TextStyles []rawTextStyle `json:"text_styles"`
	DimStyles  []rawDimStyle `json:"dim_styles"`
	Linetypes  []rawLinetype `json:"linetypes"`
	Blocks     []rawBlock    `json:"blocks"`
	ModelSpace []rawEntity   `json:"model_space"`
	PaperSpace []rawEntity   `json:"paper_space"`
}

// buildDocument constructs the entity graph from a validated raw
// document. Records that collide with the seeded defaults (layer "0",
// the Standard styles, BYLAYER) are skipped: the defaults are part of
// every document and re-stating them is tolerated, not an error.
func buildDocument(raw *rawDocument, mode LoadMode) (*graph.Document, []error) {
	doc := graph.New()
	var errs []error

	fail := func(err error) bool {
		errs = append(errs, &LoadError{Code: ErrCodeGraph, Message: err.Error()})
		return mode == LoadModeFailFast
	}

	for _, l := range raw.Layers {
		if _, exists := doc.ResolveLayer(l.Name); exists {
			continue
		}
		if err := doc.AddLayer(entity.Layer{Name: l.Name, Color: l.Color, Linetype: l.Linetype, Frozen: l.Frozen}); err != nil {
			if fail(err) {
				return nil, errs
			}
		}
	}
	for _, s := range raw.TextStyles {
		if _, exists := doc.ResolveTextStyle(s.Name); exists {
			continue
		}
		if err := doc.AddTextStyle(entity.TextStyle{Name: s.Name, Font: s.Font, FixedHeight: s.FixedHeight, WidthFactor: s.WidthFactor}); err != nil {
			if fail(err) {
				return nil, errs
			}
		}
	}
	for _, s := range raw.DimStyles {
		if _, exists := doc.ResolveDimStyle(s.Name); exists {
			continue
		}
		if err := doc.AddDimStyle(entity.DimStyle{Name: s.Name, ArrowBlock: s.ArrowBlock, TextStyle: s.TextStyle, TextHeight: s.TextHeight, ArrowSize: s.ArrowSize}); err != nil {
			if fail(err) {
				return nil, errs
			}
		}
	}
	for _, lt := range raw.Linetypes {
		if _, exists := doc.ResolveLinetype(lt.Name); exists {
			continue
		}
		if err := doc.AddLinetype(entity.Linetype{Name: lt.Name, Description: lt.Description, Pattern: lt.Pattern}); err != nil {
			if fail(err) {
				return nil, errs
			}
		}
	}

	// Register every block before placing entities so insertions can
	// reference blocks declared later in the file.
	for _, b := range raw.Blocks {
		if err := doc.AddBlock(entity.BlockDef{Name: b.Name, BasePoint: b.BasePoint.vec(), Anonymous: b.Anonymous}); err != nil {
			if fail(err) {
				return nil, errs
			}
		}
	}

	place := func(block string, raws []rawEntity) bool {
		for i := range raws {
			e, err := convertEntity(&raws[i])
			if err != nil {
				if fail(err) {
					return false
				}
				continue
			}
			if _, err := doc.AddEntity(block, e); err != nil {
				if fail(err) {
					return false
				}
			}
		}
		return true
	}

	for _, b := range raw.Blocks {
		if !place(b.Name, b.Entities) {
			return nil, errs
		}
	}
	if !place(entity.ModelSpaceBlock, raw.ModelSpace) {
		return nil, errs
	}
	if !place(entity.PaperSpaceBlock, raw.PaperSpace) {
		return nil, errs
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

func convertEntity(r *rawEntity) (entity.Entity, error) {
	common := entity.Common{
		Handle:   entity.Handle(r.Handle),
		Layer:    r.Layer,
		Linetype: r.Linetype,
		Color:    256,
	}
	if r.Color != nil {
		common.Color = *r.Color
	}

	switch entity.Kind(r.Kind) {
	case entity.KindLine:
		return &entity.Line{Common: common, Start: r.Start.vec(), End: r.End.vec()}, nil
	case entity.KindPoint:
		return &entity.Point{Common: common, Location: r.Location.vec()}, nil
	case entity.KindArc:
		return &entity.Arc{Common: common, Center: r.Center.vec(), Radius: r.Radius, StartAngle: r.StartAngle, EndAngle: r.EndAngle}, nil
	case entity.KindCircle:
		return &entity.Circle{Common: common, Center: r.Center.vec(), Radius: r.Radius}, nil
	case entity.KindEllipse:
		return &entity.Ellipse{Common: common, Center: r.Center.vec(), MajorAxis: r.MajorAxis.vec(), Ratio: r.Ratio, StartParam: r.StartParam, EndParam: r.EndParam}, nil
	case entity.KindSpline:
		s := &entity.Spline{Common: common, Degree: r.Degree, Knots: r.Knots, Closed: r.Closed}
		for _, p := range r.ControlPoints {
			s.ControlPoints = append(s.ControlPoints, p.vec())
		}
		return s, nil
	case entity.KindText:
		return &entity.Text{Common: common, Style: r.Style, Value: r.Value, Insert: r.Insert.vec(), Height: r.Height, Rotation: r.Rotation}, nil
	case entity.KindMText:
		return &entity.MText{Common: common, Style: r.Style, Value: r.Value, Insert: r.Insert.vec(), CharHeight: r.CharHeight, Width: r.Width, Rotation: r.Rotation}, nil
	case entity.KindPolyline:
		p := &entity.Polyline{Common: common, Closed: r.Closed}
		for _, v := range r.Vertices {
			layer := v.Layer
			if layer == "" {
				layer = common.Layer
			}
			p.Vertices = append(p.Vertices, entity.Vertex{Location: v.Location.vec(), Bulge: v.Bulge, Layer: layer})
		}
		return p, nil
	case entity.KindInsert:
		return &entity.Insert{
			Common:    common,
			BlockName: r.Block,
			Position:  r.Position.vec(),
			Rotation:  r.Rotation,
			ScaleX:    r.ScaleX, ScaleY: r.ScaleY, ScaleZ: r.ScaleZ,
			RowCount: r.RowCount, ColCount: r.ColCount,
			RowSpacing: r.RowSpacing, ColSpacing: r.ColSpacing,
		}, nil
	case entity.KindDimension:
		return &entity.Dimension{
			Common:             common,
			SubKind:            entity.DimKind(r.SubKind),
			DimStyle:           r.DimStyle,
			GeometryBlock:      r.GeometryBlock,
			DefPoint:           r.DefPoint.vec(),
			TextOverride:       r.TextOverride,
			ArrowBlockOverride: r.ArrowBlockOverride,
			TextStyleOverride:  r.TextStyleOverride,
		}, nil
	case entity.KindLeader:
		l := &entity.Leader{Common: common, DimStyle: r.DimStyle, PathType: r.PathType, HasArrowhead: true}
		if r.Arrowhead != nil {
			l.HasArrowhead = *r.Arrowhead
		}
		for _, v := range r.Vertices {
			l.Vertices = append(l.Vertices, geom.V3(v.X, v.Y, v.Z))
		}
		return l, nil
	case entity.KindProxy:
		p := &entity.Proxy{Common: common}
		if r.Graphic != "" {
			graphic, err := base64.StdEncoding.DecodeString(r.Graphic)
			if err != nil {
				return nil, fmt.Errorf("entity %q: decoding proxy graphic: %w", r.Handle, err)
			}
			p.Graphic = graphic
		}
		return p, nil
	default:
		return nil, fmt.Errorf("entity %q: unknown kind %q", r.Handle, r.Kind)
	}
}
