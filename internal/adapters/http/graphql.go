package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BoundsInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lonMin": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"latMin": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lonMax": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"latMax": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	siteResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SiteResult",
		Fields: graphql.Fields{
			"optimalPoint": &graphql.Field{Type: geoPointType, Resolve: resultField(func(r *domain.SiteResult) any { return r.OptimalPoint })},
			"value":        &graphql.Field{Type: graphql.Float, Resolve: resultField(func(r *domain.SiteResult) any { return r.Value })},
			"vegetation":   &graphql.Field{Type: graphql.Float, Resolve: resultField(func(r *domain.SiteResult) any { return r.Vegetation })},
			"score":        &graphql.Field{Type: graphql.Float, Resolve: resultField(func(r *domain.SiteResult) any { return r.Score })},
			"center":       &graphql.Field{Type: geoPointType, Resolve: resultField(func(r *domain.SiteResult) any { return r.Center })},
			"plantType":    &graphql.Field{Type: graphql.String, Resolve: resultField(func(r *domain.SiteResult) any { return string(r.PlantType) })},
			"distanceToCenterM": &graphql.Field{Type: graphql.Float, Resolve: resultField(func(r *domain.SiteResult) any {
				return r.DistanceToCenterM
			})},
		},
	})

	analysisType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Analysis",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"status":    &graphql.Field{Type: graphql.String, Resolve: analysisField(func(a *domain.Analysis) any { return string(a.Status) })},
			"plantType": &graphql.Field{Type: graphql.String, Resolve: analysisField(func(a *domain.Analysis) any { return string(a.Request.PlantType) })},
			"result":    &graphql.Field{Type: siteResultType, Resolve: analysisField(func(a *domain.Analysis) any { return a.Result })},
			"error":     &graphql.Field{Type: graphql.String},
			"errorKind": &graphql.Field{Type: graphql.String, Resolve: analysisField(func(a *domain.Analysis) any { return a.ErrorKind })},
			"createdAt": &graphql.Field{Type: graphql.DateTime, Resolve: analysisField(func(a *domain.Analysis) any { return a.CreatedAt })},
			"completedAt": &graphql.Field{Type: graphql.DateTime, Resolve: analysisField(func(a *domain.Analysis) any {
				if a.CompletedAt == nil {
					return nil
				}
				return *a.CompletedAt
			})},
		},
	})

	analysisPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AnalysisPage",
		Fields: graphql.Fields{
			"items": &graphql.Field{Type: graphql.NewList(analysisType)},
			"total": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"optimalLocation": &graphql.Field{
				Type:        siteResultType,
				Description: "Find the best site for a plant inside a boundary",
				Args: graphql.FieldConfigArgument{
					"boundary":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(boundsInput)},
					"start":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"end":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"plantType": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Sites == nil {
						return nil, errors.New("site service not available")
					}
					b, _ := p.Args["boundary"].(map[string]interface{})
					plant, err := domain.ParsePlantType(p.Args["plantType"].(string))
					if err != nil {
						return nil, err
					}
					req := domain.SiteRequest{
						Boundary: domain.Bounds{
							LonMin: toFloat(b["lonMin"]),
							LatMin: toFloat(b["latMin"]),
							LonMax: toFloat(b["lonMax"]),
							LatMax: toFloat(b["latMax"]),
						},
						Time:      domain.TimeRange{Start: p.Args["start"].(string), End: p.Args["end"].(string)},
						PlantType: plant,
					}
					return deps.Sites.Locate(p.Context, req)
				},
			},
			"analysis": &graphql.Field{
				Type:        analysisType,
				Description: "Get a recorded analysis by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Analyses == nil {
						return nil, nil
					}
					a, err := deps.Analyses.Get(p.Context, p.Args["id"].(string))
					if errors.Is(err, domain.ErrAnalysisNotFound) {
						return nil, nil
					}
					return a, err
				},
			},
			"analyses": &graphql.Field{
				Type:        analysisPageType,
				Description: "List recorded analyses, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					page := map[string]interface{}{"items": []domain.Analysis{}, "total": 0}
					if deps.Analyses == nil {
						return page, nil
					}
					items, total, err := deps.Analyses.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					ptrs := make([]*domain.Analysis, len(items))
					for i := range items {
						ptrs[i] = &items[i]
					}
					page["items"] = ptrs
					page["total"] = total
					return page, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func resultField(get func(*domain.SiteResult) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		r, ok := p.Source.(*domain.SiteResult)
		if !ok || r == nil {
			return nil, nil
		}
		return get(r), nil
	}
}

func analysisField(get func(*domain.Analysis) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		a, ok := p.Source.(*domain.Analysis)
		if !ok || a == nil {
			return nil, nil
		}
		return get(a), nil
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid GraphQL request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
