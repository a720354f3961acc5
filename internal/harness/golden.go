package harness

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/geom"
)

// Snapshot renders entities as canonical fixed-point JSON: one sorted-key
// object per entity, every coordinate formatted with four decimals. The
// format is stable across platforms and terse enough to write golden
// files by hand.
func Snapshot(entities []entity.Entity) ([]byte, error) {
	records, err := SnapshotRecords(entities)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// SnapshotRecords returns the per-entity key/value records behind
// Snapshot, for callers embedding them in their own output.
func SnapshotRecords(entities []entity.Entity) ([]map[string]string, error) {
	records := make([]map[string]string, 0, len(entities))
	for _, e := range entities {
		rec, err := snapshotEntity(e)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// AssertGolden compares the entity snapshot against
// testdata/golden/<name>.golden. Regenerate with go test -update.
func AssertGolden(t *testing.T, name string, entities []entity.Entity) {
	t.Helper()

	data, err := Snapshot(entities)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

func snapshotEntity(e entity.Entity) (map[string]string, error) {
	rec := map[string]string{"kind": string(e.Kind())}
	if layer := e.Base().Layer; layer != "" {
		rec["layer"] = layer
	}

	switch v := e.(type) {
	case *entity.Line:
		rec["start"] = fixedVec(v.Start)
		rec["end"] = fixedVec(v.End)
	case *entity.Point:
		rec["location"] = fixedVec(v.Location)
	case *entity.Arc:
		rec["center"] = fixedVec(v.Center)
		rec["radius"] = fixed(v.Radius)
		rec["start_angle"] = fixed(v.StartAngle)
		rec["end_angle"] = fixed(v.EndAngle)
	case *entity.Circle:
		rec["center"] = fixedVec(v.Center)
		rec["radius"] = fixed(v.Radius)
	case *entity.Ellipse:
		rec["center"] = fixedVec(v.Center)
		rec["major_axis"] = fixedVec(v.MajorAxis)
		rec["ratio"] = fixed(v.Ratio)
		rec["start_param"] = fixed(v.StartParam)
		rec["end_param"] = fixed(v.EndParam)
	case *entity.Spline:
		rec["degree"] = fmt.Sprintf("%d", v.Degree)
		rec["control_points"] = fixedVecs(v.ControlPoints)
		rec["knots"] = fixedList(v.Knots)
	case *entity.Text:
		rec["value"] = v.Value
		rec["insert"] = fixedVec(v.Insert)
		rec["height"] = fixed(v.Height)
		rec["rotation"] = fixed(v.Rotation)
	case *entity.MText:
		rec["value"] = v.Value
		rec["insert"] = fixedVec(v.Insert)
		rec["char_height"] = fixed(v.CharHeight)
		rec["rotation"] = fixed(v.Rotation)
	default:
		return nil, fmt.Errorf("no snapshot form for entity kind %s", e.Kind())
	}
	return rec, nil
}

// fixed formats a coordinate with four decimals, normalizing the negative
// zero that rounding can produce.
func fixed(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	if s == "-0.0000" {
		return "0.0000"
	}
	return s
}

func fixedVec(v geom.Vec) string {
	return fixed(v.X) + "," + fixed(v.Y) + "," + fixed(v.Z)
}

func fixedVecs(vs []geom.Vec) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = "(" + fixedVec(v) + ")"
	}
	return strings.Join(parts, " ")
}

func fixedList(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fixed(v)
	}
	return strings.Join(parts, " ")
}
