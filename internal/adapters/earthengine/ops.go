package earthengine

import (
	"fmt"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

// Thin constructors for the server-side algorithms this service uses.

func loadCollection(id string) *Expr {
	return Invoke("ImageCollection.load", map[string]*Expr{"id": Constant(id)})
}

func rectangle(b domain.Bounds) *Expr {
	ring := [][]float64{
		{b.LonMin, b.LatMin},
		{b.LonMax, b.LatMin},
		{b.LonMax, b.LatMax},
		{b.LonMin, b.LatMax},
		{b.LonMin, b.LatMin},
	}
	return Invoke("GeometryConstructors.Polygon", map[string]*Expr{
		"coordinates": Constant([][][]float64{ring}),
		"geodesic":    Constant(false),
		"evenOdd":     Constant(true),
	})
}

func filterDate(coll *Expr, t domain.TimeRange) *Expr {
	return Invoke("Collection.filter", map[string]*Expr{
		"collection": coll,
		"filter": Invoke("Filter.dateRangeContains", map[string]*Expr{
			"leftValue": Invoke("DateRange", map[string]*Expr{
				"start": Constant(t.Start),
				"end":   Constant(t.End),
			}),
			"rightField": Constant("system:time_start"),
		}),
	})
}

func filterBounds(coll *Expr, b domain.Bounds) *Expr {
	return Invoke("Collection.filter", map[string]*Expr{
		"collection": coll,
		"filter": Invoke("Filter.intersects", map[string]*Expr{
			"leftField":  Constant(".all"),
			"rightValue": rectangle(b),
		}),
	})
}

// collection applies q's filters in the order date, then bounds.
func collection(q domain.DatasetQuery) *Expr {
	c := loadCollection(q.Collection)
	if q.Time != nil {
		c = filterDate(c, *q.Time)
	}
	if q.Region != nil {
		c = filterBounds(c, *q.Region)
	}
	return c
}

func reduce(coll *Expr, r domain.Reduction) (*Expr, error) {
	switch r {
	case domain.ReduceMean:
		return Invoke("ImageCollection.mean", map[string]*Expr{"collection": coll}), nil
	case domain.ReduceFirst:
		return Invoke("Collection.first", map[string]*Expr{"collection": coll}), nil
	default:
		return nil, fmt.Errorf("unsupported reduction %q", r)
	}
}

func size(coll *Expr) *Expr {
	return Invoke("Collection.size", map[string]*Expr{"collection": coll})
}

func bandNames(img *Expr) *Expr {
	return Invoke("Image.bandNames", map[string]*Expr{"image": img})
}

func selectBand(img *Expr, band string) *Expr {
	return Invoke("Image.select", map[string]*Expr{
		"input":         img,
		"bandSelectors": Constant([]string{band}),
	})
}

func rename(img *Expr, name string) *Expr {
	return Invoke("Image.rename", map[string]*Expr{
		"input": img,
		"names": Constant([]string{name}),
	})
}

func imageConstant(v float64) *Expr {
	return Invoke("Image.constant", map[string]*Expr{"value": Constant(v)})
}

func binary(fn string, a, b *Expr) *Expr {
	return Invoke(fn, map[string]*Expr{"image1": a, "image2": b})
}

func sqrt(img *Expr) *Expr {
	return Invoke("Image.sqrt", map[string]*Expr{"value": img})
}

func addBands(dst, src *Expr) *Expr {
	return Invoke("Image.addBands", map[string]*Expr{"dstImg": dst, "srcImg": src})
}

func sample(img *Expr, p domain.SamplingPlan) *Expr {
	return Invoke("Image.sample", map[string]*Expr{
		"image":      img,
		"region":     rectangle(p.Region),
		"scale":      Constant(p.Scale),
		"numPixels":  Constant(p.NumPixels),
		"geometries": Constant(true),
	})
}

func sortDescending(coll *Expr, key string) *Expr {
	return Invoke("Collection.limit", map[string]*Expr{
		"collection": coll,
		"key":        Constant(key),
		"ascending":  Constant(false),
	})
}

func first(coll *Expr) *Expr {
	return Invoke("Collection.first", map[string]*Expr{"collection": coll})
}

// layerImage builds the single-band image for l, named l.Name.
func layerImage(l domain.Layer) (*Expr, error) {
	src, err := reduce(collection(l.Source), l.Reduce)
	if err != nil {
		return nil, err
	}

	var img *Expr
	switch op := l.Op.(type) {
	case domain.SelectBand:
		img = selectBand(src, op.Band)
	case domain.Magnitude:
		u := selectBand(src, op.U)
		v := selectBand(src, op.V)
		two := imageConstant(2)
		img = sqrt(binary("Image.add", binary("Image.pow", u, two), binary("Image.pow", v, two)))
	case domain.ClassPenalty:
		mask := binary("Image.eq", selectBand(src, op.Band), imageConstant(float64(op.Class)))
		img = binary("Image.multiply", mask, imageConstant(op.Weight))
	default:
		return nil, fmt.Errorf("layer %s: unsupported op %T", l.Name, l.Op)
	}
	return rename(img, l.Name), nil
}

// combinedImage stacks every layer of m and appends the score band.
func combinedImage(m domain.SuitabilityModel) (*Expr, error) {
	value, err := layerImage(m.Value)
	if err != nil {
		return nil, err
	}

	combined := value
	score := value
	for _, p := range m.Penalties {
		img, err := layerImage(p)
		if err != nil {
			return nil, err
		}
		combined = addBands(combined, img)
		score = binary("Image.subtract", score, img)
	}
	return addBands(combined, rename(score, domain.LayerScore)), nil
}

// bestSample is the first feature of the combined image's samples sorted
// by score, highest first.
func bestSample(m domain.SuitabilityModel, p domain.SamplingPlan) (*Expr, error) {
	img, err := combinedImage(m)
	if err != nil {
		return nil, err
	}
	return first(sortDescending(sample(img, p), domain.LayerScore)), nil
}
