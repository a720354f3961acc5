package graph

import "github.com/tracedraft/vellum/internal/entity"

// Reference resolution. A missing record is a normal outcome: the audit
// engine flags it and style consumers fall back to the Standard defaults.
// Resolution never errors and is safe for concurrent use.

// ResolveLayer looks up a layer record by name.
func (d *Document) ResolveLayer(name string) (entity.Layer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.layers[tableKey(name)]
	if !ok {
		return entity.Layer{}, false
	}
	return *l, true
}

// ResolveTextStyle looks up a text style record by name. An empty name
// resolves to the Standard style.
func (d *Document) ResolveTextStyle(name string) (entity.TextStyle, bool) {
	if name == "" {
		name = entity.StandardStyle
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.textStyles[tableKey(name)]
	if !ok {
		return entity.TextStyle{}, false
	}
	return *s, true
}

// ResolveDimStyle looks up a dimension style record by name. An empty name
// resolves to the Standard style.
func (d *Document) ResolveDimStyle(name string) (entity.DimStyle, bool) {
	if name == "" {
		name = entity.StandardStyle
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.dimStyles[tableKey(name)]
	if !ok {
		return entity.DimStyle{}, false
	}
	return *s, true
}

// ResolveLinetype looks up a linetype record by name.
func (d *Document) ResolveLinetype(name string) (entity.Linetype, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	lt, ok := d.linetypes[tableKey(name)]
	if !ok {
		return entity.Linetype{}, false
	}
	return *lt, true
}

// ResolveBlock looks up a block definition by name. The returned
// definition is live; callers must treat it as read-only.
func (d *Document) ResolveBlock(name string) (*entity.BlockDef, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	def, ok := d.blocks[tableKey(name)]
	return def, ok
}
