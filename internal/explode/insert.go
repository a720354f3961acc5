package explode

import (
	"fmt"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
)

// insert replays a block insertion, expanding every cell of the row/column
// array. The placement transform composes translation, rotation and
// per-axis scaling with the block's base point offset; array cell offsets
// rotate with the insertion but never scale.
func (w *walker) insert(ins *entity.Insert, m geom.Matrix, out *[]entity.Entity) error {
	def, ok := w.doc.ResolveBlock(ins.BlockName)
	if !ok {
		return &Error{
			Code:    CodeMissingBlock,
			Message: fmt.Sprintf("insert %s references missing block %q", ins.Handle, ins.BlockName),
			Chain:   append([]string(nil), w.chain...),
		}
	}
	if len(w.chain) >= w.opts.MaxDepth {
		return &Error{
			Code:    CodeDepthExceeded,
			Message: fmt.Sprintf("insertion nesting exceeds %d levels", w.opts.MaxDepth),
			Chain:   append(append([]string(nil), w.chain...), def.Name),
		}
	}

	place := geom.RotateZ(ins.Rotation).
		Mul(geom.Scale(scaleOr1(ins.ScaleX), scaleOr1(ins.ScaleY), scaleOr1(ins.ScaleZ))).
		Mul(geom.Translate(-def.BasePoint.X, -def.BasePoint.Y, -def.BasePoint.Z))

	children := w.doc.EntitiesIn(def.Name)
	w.chain = append(w.chain, def.Name)
	defer func() { w.chain = w.chain[:len(w.chain)-1] }()

	for row := 0; row < ins.Rows(); row++ {
		for col := 0; col < ins.Cols(); col++ {
			offset := geom.V(float64(col)*ins.ColSpacing, float64(row)*ins.RowSpacing).Rotate(ins.Rotation)
			cell := m.
				Mul(geom.Translate(ins.Position.X+offset.X, ins.Position.Y+offset.Y, ins.Position.Z)).
				Mul(place)
			for _, child := range children {
				if err := w.walkChild(child, cell, out); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func scaleOr1(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}
