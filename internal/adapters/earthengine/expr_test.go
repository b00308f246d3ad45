package earthengine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

type node struct {
	ConstantValue           any    `json:"constantValue"`
	ValueReference          string `json:"valueReference"`
	FunctionInvocationValue *struct {
		FunctionName string          `json:"functionName"`
		Arguments    map[string]node `json:"arguments"`
	} `json:"functionInvocationValue"`
}

func decodeValues(t *testing.T, e *Expression) map[string]node {
	t.Helper()
	out := make(map[string]node, len(e.Values))
	for k, raw := range e.Values {
		var n node
		if err := json.Unmarshal(raw, &n); err != nil {
			t.Fatalf("value %s: %v", k, err)
		}
		out[k] = n
	}
	return out
}

func TestSerialize_SharesIdenticalInvocations(t *testing.T) {
	coll := loadCollection(domain.CollectionMODISLandCover)
	a := size(coll)
	b := size(loadCollection(domain.CollectionMODISLandCover))
	root := Invoke("Number.add", map[string]*Expr{"left": a, "right": b})

	expr, err := Serialize(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// load, size, add
	if len(expr.Values) != 3 {
		t.Fatalf("expected 3 stored values, got %d: %v", len(expr.Values), expr.Values)
	}

	vals := decodeValues(t, expr)
	top := vals[expr.Result].FunctionInvocationValue
	if top == nil || top.FunctionName != "Number.add" {
		t.Fatalf("unexpected root: %+v", vals[expr.Result])
	}
	if top.Arguments["left"].ValueReference != top.Arguments["right"].ValueReference {
		t.Errorf("expected both arguments to share one reference, got %+v", top.Arguments)
	}
}

func TestSerialize_ConstantRoot(t *testing.T) {
	expr, err := Serialize(Constant(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expr.Values) != 1 || !strings.Contains(string(expr.Values[expr.Result]), `"constantValue":42`) {
		t.Errorf("unexpected expression: %+v", expr)
	}
}

func TestSerialize_DropsNilArguments(t *testing.T) {
	expr, err := Serialize(Invoke("Image.select", map[string]*Expr{
		"input":         loadCollection("X"),
		"bandSelectors": Constant([]string{"b"}),
		"newNames":      nil,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(expr.Values[expr.Result]), "newNames") {
		t.Errorf("nil argument was serialized: %s", expr.Values[expr.Result])
	}
}

func TestSerialize_ArraysAndDicts(t *testing.T) {
	expr, err := Serialize(Dict(map[string]*Expr{
		"xs": Array(Constant(1), Constant("a")),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := string(expr.Values[expr.Result])
	want := `{"dictionaryValue":{"values":{"xs":{"arrayValue":{"values":[{"constantValue":1},{"constantValue":"a"}]}}}}}`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func functionNames(t *testing.T, e *Expression) map[string]int {
	t.Helper()
	names := map[string]int{}
	for _, n := range decodeValues(t, e) {
		if n.FunctionInvocationValue != nil {
			names[n.FunctionInvocationValue.FunctionName]++
		}
	}
	return names
}

func TestBestSample_WindGraph(t *testing.T) {
	tr := domain.TimeRange{Start: "2019-01-01", End: "2020-01-01"}
	b := domain.Bounds{LonMin: -3.2, LatMin: 42.9, LonMax: -2.6, LatMax: 43.4}
	model := domain.SuitabilityModel{
		PlantType: domain.PlantWind,
		Value: domain.Layer{
			Name:   domain.LayerWindSpeed,
			Source: domain.DatasetQuery{Collection: domain.CollectionERA5Daily, Time: &tr},
			Reduce: domain.ReduceMean,
			Op:     domain.Magnitude{U: domain.BandWindU, V: domain.BandWindV},
		},
		Penalties: []domain.Layer{{
			Name:   domain.LayerUrbanDistance,
			Source: domain.DatasetQuery{Collection: domain.CollectionWorldCover},
			Reduce: domain.ReduceFirst,
			Op:     domain.ClassPenalty{Band: domain.BandWorldMap, Class: 30, Weight: 10000},
		}},
	}

	e, err := bestSample(model, domain.SamplingPlan{Region: b, Scale: 5000, NumPixels: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expr, err := Serialize(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := functionNames(t, expr)
	for _, fn := range []string{
		"ImageCollection.load", "Filter.dateRangeContains", "ImageCollection.mean",
		"Image.pow", "Image.sqrt", "Image.eq", "Image.multiply", "Image.subtract",
		"Image.addBands", "Image.sample", "Collection.limit",
	} {
		if names[fn] == 0 {
			t.Errorf("expected %s in graph, got %v", fn, names)
		}
	}
	// The squared exponent is one shared node.
	if names["Image.constant"] != 3 {
		t.Errorf("expected 3 distinct constants (2, 30, 10000), got %d", names["Image.constant"])
	}

	vals := decodeValues(t, expr)
	root := vals[expr.Result].FunctionInvocationValue
	if root == nil || root.FunctionName != "Collection.first" {
		t.Fatalf("expected Collection.first at the root, got %+v", vals[expr.Result])
	}
}

func TestLayerImage_UnknownReduction(t *testing.T) {
	_, err := layerImage(domain.Layer{
		Name:   "x",
		Source: domain.DatasetQuery{Collection: "X"},
		Reduce: "median",
		Op:     domain.SelectBand{Band: "b"},
	})
	if err == nil {
		t.Error("expected error for unsupported reduction")
	}
}
