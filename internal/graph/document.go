package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/tracedraft/vellum/internal/entity"
)

// Document owns all entities and table records of one drawing.
//
// Entities live in an arena keyed by handle; block definitions and the
// model/paper space containers reference them by handle only. Secondary
// indexes are maintained incrementally on every mutation.
type Document struct {
	mu sync.RWMutex

	entities map[entity.Handle]entity.Entity
	order    []entity.Handle // insertion order for deterministic iteration

	layers     map[string]*entity.Layer
	textStyles map[string]*entity.TextStyle
	dimStyles  map[string]*entity.DimStyle
	linetypes  map[string]*entity.Linetype
	blocks     map[string]*entity.BlockDef
	blockOrder []string

	// Secondary indexes, rebuilt incrementally on mutation.
	byLayer        map[string]map[entity.Handle]struct{}
	insertsByBlock map[string]map[entity.Handle]struct{}
	owner          map[entity.Handle]string // entity -> owning block key

	nextHandle uint64
}

// tableKey normalizes a table name for lookup: NFC normalization plus
// case folding, per the format's case-insensitive table semantics.
func tableKey(name string) string {
	return strings.ToLower(norm.NFC.String(name))
}

// New creates an empty document seeded with the records every drawing
// carries: layer "0", the Standard text and dimension styles, the BYLAYER
// linetype and the model/paper space layout blocks.
func New() *Document {
	d := &Document{
		entities:       make(map[entity.Handle]entity.Entity),
		layers:         make(map[string]*entity.Layer),
		textStyles:     make(map[string]*entity.TextStyle),
		dimStyles:      make(map[string]*entity.DimStyle),
		linetypes:      make(map[string]*entity.Linetype),
		blocks:         make(map[string]*entity.BlockDef),
		byLayer:        make(map[string]map[entity.Handle]struct{}),
		insertsByBlock: make(map[string]map[entity.Handle]struct{}),
		owner:          make(map[entity.Handle]string),
		nextHandle:     0x100,
	}
	d.layers[tableKey(entity.DefaultLayer)] = &entity.Layer{Name: entity.DefaultLayer, Color: 7, Linetype: entity.ByLayerLinetype}
	d.textStyles[tableKey(entity.StandardStyle)] = &entity.TextStyle{Name: entity.StandardStyle, Font: "txt", WidthFactor: 1}
	d.dimStyles[tableKey(entity.StandardStyle)] = &entity.DimStyle{Name: entity.StandardStyle, TextStyle: entity.StandardStyle, TextHeight: 2.5, ArrowSize: 2.5}
	d.linetypes[tableKey(entity.ByLayerLinetype)] = &entity.Linetype{Name: entity.ByLayerLinetype}
	for _, name := range []string{entity.ModelSpaceBlock, entity.PaperSpaceBlock} {
		d.blocks[tableKey(name)] = &entity.BlockDef{Name: name, Layout: true}
		d.blockOrder = append(d.blockOrder, tableKey(name))
	}
	return d
}

// AddLayer registers a layer table record.
func (d *Document) AddLayer(l entity.Layer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := tableKey(l.Name)
	if _, ok := d.layers[key]; ok {
		return fmt.Errorf("layer %q already exists", l.Name)
	}
	d.layers[key] = &l
	return nil
}

// AddTextStyle registers a text style table record.
func (d *Document) AddTextStyle(s entity.TextStyle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := tableKey(s.Name)
	if _, ok := d.textStyles[key]; ok {
		return fmt.Errorf("text style %q already exists", s.Name)
	}
	d.textStyles[key] = &s
	return nil
}

// AddDimStyle registers a dimension style table record.
func (d *Document) AddDimStyle(s entity.DimStyle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := tableKey(s.Name)
	if _, ok := d.dimStyles[key]; ok {
		return fmt.Errorf("dimension style %q already exists", s.Name)
	}
	d.dimStyles[key] = &s
	return nil
}

// AddLinetype registers a linetype table record.
func (d *Document) AddLinetype(lt entity.Linetype) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := tableKey(lt.Name)
	if _, ok := d.linetypes[key]; ok {
		return fmt.Errorf("linetype %q already exists", lt.Name)
	}
	d.linetypes[key] = &lt
	return nil
}

// AddBlock registers a block definition. The definition starts empty;
// populate it with AddEntity.
func (d *Document) AddBlock(def entity.BlockDef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := tableKey(def.Name)
	if _, ok := d.blocks[key]; ok {
		return fmt.Errorf("block %q already exists", def.Name)
	}
	def.Entities = nil
	d.blocks[key] = &def
	d.blockOrder = append(d.blockOrder, key)
	return nil
}

// AddEntity adds an entity to the named block's sub-graph. An empty block
// name targets model space. A handle is assigned when the entity carries
// none; a duplicate handle is an error.
func (d *Document) AddEntity(block string, e entity.Entity) (entity.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if block == "" {
		block = entity.ModelSpaceBlock
	}
	blockKey := tableKey(block)
	def, ok := d.blocks[blockKey]
	if !ok {
		return entity.NoHandle, fmt.Errorf("block %q does not exist", block)
	}

	base := e.Base()
	if base.Handle == entity.NoHandle {
		base.Handle = d.allocHandleLocked()
	} else if _, dup := d.entities[base.Handle]; dup {
		return entity.NoHandle, fmt.Errorf("handle %q already in use", base.Handle)
	}
	if base.Layer == "" {
		base.Layer = entity.DefaultLayer
	}
	if base.Linetype == "" {
		base.Linetype = entity.ByLayerLinetype
	}

	h := base.Handle
	d.entities[h] = e
	d.order = append(d.order, h)
	d.owner[h] = blockKey
	def.Entities = append(def.Entities, h)
	d.indexAddLocked(h, e)
	return h, nil
}

// allocHandleLocked returns the next free handle in hex notation.
func (d *Document) allocHandleLocked() entity.Handle {
	for {
		h := entity.Handle(fmt.Sprintf("%X", d.nextHandle))
		d.nextHandle++
		if _, taken := d.entities[h]; !taken {
			return h
		}
	}
}

func (d *Document) indexAddLocked(h entity.Handle, e entity.Entity) {
	layerKey := tableKey(e.Base().Layer)
	if d.byLayer[layerKey] == nil {
		d.byLayer[layerKey] = make(map[entity.Handle]struct{})
	}
	d.byLayer[layerKey][h] = struct{}{}

	if ins, ok := e.(*entity.Insert); ok {
		blockKey := tableKey(ins.BlockName)
		if d.insertsByBlock[blockKey] == nil {
			d.insertsByBlock[blockKey] = make(map[entity.Handle]struct{})
		}
		d.insertsByBlock[blockKey][h] = struct{}{}
	}
}

func (d *Document) indexRemoveLocked(h entity.Handle, e entity.Entity) {
	layerKey := tableKey(e.Base().Layer)
	delete(d.byLayer[layerKey], h)
	if ins, ok := e.(*entity.Insert); ok {
		delete(d.insertsByBlock[tableKey(ins.BlockName)], h)
	}
}

// DeleteEntity removes an entity from the arena, its owning block and all
// indexes. Returns false if the handle is unknown (already deleted).
func (d *Document) DeleteEntity(h entity.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleteEntityLocked(h)
}

func (d *Document) deleteEntityLocked(h entity.Handle) bool {
	e, ok := d.entities[h]
	if !ok {
		return false
	}
	d.indexRemoveLocked(h, e)
	delete(d.entities, h)

	if blockKey, owned := d.owner[h]; owned {
		if def, ok := d.blocks[blockKey]; ok {
			def.Entities = removeHandle(def.Entities, h)
		}
		delete(d.owner, h)
	}
	d.order = removeHandle(d.order, h)
	return true
}

// DeleteBlock removes a block definition and its owned sub-graph
// transitively. Layout blocks are never deletable.
func (d *Document) DeleteBlock(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := tableKey(name)
	def, ok := d.blocks[key]
	if !ok {
		return fmt.Errorf("block %q does not exist", name)
	}
	if def.Layout {
		return fmt.Errorf("block %q is a layout and cannot be deleted", name)
	}

	// Owned entities may include insertions of other blocks; deleting
	// them updates the insertion index and can render further blocks
	// unused. The audit engine re-scans to a fixpoint for that reason.
	for _, h := range append([]entity.Handle(nil), def.Entities...) {
		d.deleteEntityLocked(h)
	}
	delete(d.blocks, key)
	for i, k := range d.blockOrder {
		if k == key {
			d.blockOrder = append(d.blockOrder[:i], d.blockOrder[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateEntity runs fn on the entity under the write lock. fn may mutate
// attribute fields in place. Returns an error if the entity is gone.
func (d *Document) UpdateEntity(h entity.Handle, fn func(entity.Entity) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entities[h]
	if !ok {
		return fmt.Errorf("entity %q does not exist", h)
	}
	oldLayer := e.Base().Layer
	if err := fn(e); err != nil {
		return err
	}
	// Keep the layer index consistent if fn rebound the layer.
	if e.Base().Layer != oldLayer {
		delete(d.byLayer[tableKey(oldLayer)], h)
		layerKey := tableKey(e.Base().Layer)
		if d.byLayer[layerKey] == nil {
			d.byLayer[layerKey] = make(map[entity.Handle]struct{})
		}
		d.byLayer[layerKey][h] = struct{}{}
	}
	return nil
}

// UpdateDimStyle runs fn on the dimension style record under the write
// lock. Returns an error if the style is gone.
func (d *Document) UpdateDimStyle(name string, fn func(*entity.DimStyle) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.dimStyles[tableKey(name)]
	if !ok {
		return fmt.Errorf("dimension style %q does not exist", name)
	}
	return fn(s)
}

// Entity returns the entity with the given handle.
func (d *Document) Entity(h entity.Handle) (entity.Entity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entities[h]
	return e, ok
}

// Entities returns all entities in insertion order, across all blocks.
func (d *Document) Entities() []entity.Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.Entity, 0, len(d.order))
	for _, h := range d.order {
		out = append(out, d.entities[h])
	}
	return out
}

// ModelSpace returns the entities owned by the model space layout block,
// in insertion order.
func (d *Document) ModelSpace() []entity.Entity {
	return d.EntitiesIn(entity.ModelSpaceBlock)
}

// EntitiesIn returns the entities owned by the named block, in insertion
// order. Unknown blocks yield nil.
func (d *Document) EntitiesIn(block string) []entity.Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	def, ok := d.blocks[tableKey(block)]
	if !ok {
		return nil
	}
	out := make([]entity.Entity, 0, len(def.Entities))
	for _, h := range def.Entities {
		if e, ok := d.entities[h]; ok {
			out = append(out, e)
		}
	}
	return out
}

// EntitiesOnLayer returns the handles of all entities on the named layer,
// sorted for determinism.
func (d *Document) EntitiesOnLayer(layer string) []entity.Handle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedHandles(d.byLayer[tableKey(layer)])
}

// InsertsReferencing returns the handles of all INSERT entities that
// reference the named block, sorted for determinism.
func (d *Document) InsertsReferencing(block string) []entity.Handle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedHandles(d.insertsByBlock[tableKey(block)])
}

// Blocks returns all block definitions in registration order.
func (d *Document) Blocks() []*entity.BlockDef {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*entity.BlockDef, 0, len(d.blockOrder))
	for _, key := range d.blockOrder {
		if def, ok := d.blocks[key]; ok {
			out = append(out, def)
		}
	}
	return out
}

func sortedHandles(set map[entity.Handle]struct{}) []entity.Handle {
	if len(set) == 0 {
		return nil
	}
	out := make([]entity.Handle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func removeHandle(s []entity.Handle, h entity.Handle) []entity.Handle {
	for i, v := range s {
		if v == h {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
