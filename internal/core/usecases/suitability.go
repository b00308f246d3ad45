package usecases

import (
	"github.com/samirrijal/sitescout/internal/core/domain"
)

// vegetationLayer is the land-cover class layer shared by every model.
func vegetationLayer(req domain.SiteRequest) (domain.Layer, domain.Requirement) {
	src := domain.DatasetQuery{
		Collection: domain.CollectionMODISLandCover,
		Time:       &req.Time,
	}
	layer := domain.Layer{
		Name:   domain.LayerVegetation,
		Source: src,
		Reduce: domain.ReduceMean,
		Op:     domain.SelectBand{Band: domain.BandLandCover},
	}
	reqmt := domain.Requirement{
		Source:         src,
		Reduce:         domain.ReduceMean,
		Bands:          []string{domain.BandLandCover},
		EmptyMessage:   "No MODIS images found for the specified time range.",
		MissingMessage: "MODIS dataset does not contain band 'LC_Type1'.",
	}
	return layer, reqmt
}

// windModel: score = wind_speed - vegetation - urban_distance.
func windModel(req domain.SiteRequest, vegetation domain.Layer) (domain.SuitabilityModel, []domain.Requirement) {
	era5 := domain.DatasetQuery{
		Collection: domain.CollectionERA5Daily,
		Time:       &req.Time,
	}
	worldCover := domain.DatasetQuery{
		Collection: domain.CollectionWorldCover,
		Region:     &req.Boundary,
	}

	model := domain.SuitabilityModel{
		PlantType: domain.PlantWind,
		Value: domain.Layer{
			Name:   domain.LayerWindSpeed,
			Source: era5,
			Reduce: domain.ReduceMean,
			Op:     domain.Magnitude{U: domain.BandWindU, V: domain.BandWindV},
		},
		Penalties: []domain.Layer{
			vegetation,
			{
				Name:   domain.LayerUrbanDistance,
				Source: worldCover,
				Reduce: domain.ReduceFirst,
				Op: domain.ClassPenalty{
					Band:   domain.BandWorldMap,
					Class:  domain.WorldCoverBuiltUp,
					Weight: domain.UrbanPenalty,
				},
			},
		},
	}

	reqs := []domain.Requirement{
		{
			Source:         era5,
			Reduce:         domain.ReduceMean,
			Bands:          []string{domain.BandWindU, domain.BandWindV},
			EmptyMessage:   "No ERA5 images found for the specified time range.",
			MissingMessage: "ERA5 dataset does not contain the 10m wind components.",
		},
		{
			Source:       worldCover,
			Reduce:       domain.ReduceFirst,
			EmptyMessage: "No ESA WorldCover image found for the specified region.",
		},
	}
	return model, reqs
}

// solarModel: score = solar_value - vegetation.
func solarModel(req domain.SiteRequest, vegetation domain.Layer) (domain.SuitabilityModel, []domain.Requirement) {
	merra := domain.DatasetQuery{
		Collection: domain.CollectionMERRA2,
		Time:       &req.Time,
		Region:     &req.Boundary,
	}

	model := domain.SuitabilityModel{
		PlantType: domain.PlantSolar,
		Value: domain.Layer{
			Name:   domain.LayerSolarValue,
			Source: merra,
			Reduce: domain.ReduceMean,
			Op:     domain.SelectBand{Band: domain.BandSWGDN},
		},
		Penalties: []domain.Layer{vegetation},
	}

	reqs := []domain.Requirement{{
		Source:         merra,
		Reduce:         domain.ReduceMean,
		Bands:          []string{domain.BandSWGDN},
		EmptyMessage:   "No MERRA2 images found for the specified time range and region.",
		MissingMessage: "MERRA2 dataset does not contain 'SWGDN'.",
	}}
	return model, reqs
}

// BuildModel returns the scoring model for the request's plant type and the
// availability checks that must pass first, in reporting order.
func BuildModel(req domain.SiteRequest) (domain.SuitabilityModel, []domain.Requirement, error) {
	vegetation, vegReq := vegetationLayer(req)

	var (
		model domain.SuitabilityModel
		reqs  []domain.Requirement
	)
	switch req.PlantType {
	case domain.PlantWind:
		model, reqs = windModel(req, vegetation)
	case domain.PlantSolar:
		model, reqs = solarModel(req, vegetation)
	default:
		return domain.SuitabilityModel{}, nil, &domain.ValidationError{Field: "plant_type", Message: domain.MsgInvalidPlantType}
	}

	return model, append([]domain.Requirement{vegReq}, reqs...), nil
}
