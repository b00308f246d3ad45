package domain

// Remote collection identifiers and the bands read from them.
const (
	CollectionMODISLandCover = "MODIS/006/MCD12Q1"
	CollectionERA5Daily      = "ECMWF/ERA5/DAILY"
	CollectionWorldCover     = "ESA/WorldCover/v100"
	CollectionMERRA2         = "NASA/GEOS-5/MERRA2"

	BandLandCover = "LC_Type1"
	BandWindU     = "u_component_of_wind_10m"
	BandWindV     = "v_component_of_wind_10m"
	BandWorldMap  = "Map"
	BandSWGDN     = "SWGDN"
)

// Names of the bands in the combined score image.
const (
	LayerVegetation    = "vegetation"
	LayerWindSpeed     = "wind_speed"
	LayerUrbanDistance = "urban_distance"
	LayerSolarValue    = "solar_value"
	LayerScore         = "score"
)

// WorldCover class 30 is built-up land; pixels in it are penalised so heavily
// that no urban sample can win.
const (
	WorldCoverBuiltUp = 30
	UrbanPenalty      = 10000
)

// DatasetQuery names a remote image collection and how it is narrowed.
// Nil Time or Region means the filter is not applied.
type DatasetQuery struct {
	Collection string     `json:"collection"`
	Time       *TimeRange `json:"time,omitempty"`
	Region     *Bounds    `json:"region,omitempty"`
}

// Reduction turns a filtered collection into one image.
type Reduction string

const (
	ReduceMean  Reduction = "mean"
	ReduceFirst Reduction = "first"
)

// LayerOp derives a layer's pixels from its reduced source image.
type LayerOp interface {
	layerOp()
}

// SelectBand copies one band unchanged.
type SelectBand struct {
	Band string
}

// Magnitude computes sqrt(u² + v²) from two component bands.
type Magnitude struct {
	U, V string
}

// ClassPenalty yields Weight where Band equals Class and zero elsewhere.
type ClassPenalty struct {
	Band   string
	Class  int
	Weight float64
}

func (SelectBand) layerOp()   {}
func (Magnitude) layerOp()    {}
func (ClassPenalty) layerOp() {}

// Layer is one named band of the combined image.
type Layer struct {
	Name   string
	Source DatasetQuery
	Reduce Reduction
	Op     LayerOp
}

// SuitabilityModel scores each pixel as Value minus the sum of Penalties.
type SuitabilityModel struct {
	PlantType PlantType
	Value     Layer
	Penalties []Layer
}

// Layers returns every input layer, Value first.
func (m SuitabilityModel) Layers() []Layer {
	return append([]Layer{m.Value}, m.Penalties...)
}

// Requirement is an availability check run before any band math. Band
// checks apply to the reduced image; an empty Bands only checks the size.
type Requirement struct {
	Source         DatasetQuery
	Reduce         Reduction
	Bands          []string
	EmptyMessage   string
	MissingMessage string
}

// SamplingPlan controls how candidate points are drawn from the region.
type SamplingPlan struct {
	Region    Bounds
	Scale     float64
	NumPixels int
}
