package graph

import (
	"sort"

	"github.com/tracedraft/vellum/internal/entity"
)

// NameKey returns the normalized lookup key for a table name. Two names
// reference the same record exactly when their keys are equal.
func NameKey(name string) string { return tableKey(name) }

// Layers returns copies of all layer records, sorted by name.
func (d *Document) Layers() []entity.Layer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.Layer, 0, len(d.layers))
	for _, l := range d.layers {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TextStyles returns copies of all text style records, sorted by name.
func (d *Document) TextStyles() []entity.TextStyle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.TextStyle, 0, len(d.textStyles))
	for _, s := range d.textStyles {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DimStyles returns copies of all dimension style records, sorted by name.
func (d *Document) DimStyles() []entity.DimStyle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.DimStyle, 0, len(d.dimStyles))
	for _, s := range d.dimStyles {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Linetypes returns copies of all linetype records, sorted by name.
func (d *Document) Linetypes() []entity.Linetype {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.Linetype, 0, len(d.linetypes))
	for _, lt := range d.linetypes {
		out = append(out, *lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
