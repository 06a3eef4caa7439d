package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	buildingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Building",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.Int},
			"address":   &graphql.Field{Type: graphql.String},
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	// Activity refers to itself through children, so its fields are a thunk.
	var activityType *graphql.Object
	activityType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Activity",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":       &graphql.Field{Type: graphql.Int},
				"name":     &graphql.Field{Type: graphql.String},
				"children": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(activityType))},
			}
		}),
	})

	organizationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Organization",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.Int},
			"name":          &graphql.Field{Type: graphql.String},
			"phone_numbers": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"building":      &graphql.Field{Type: buildingType},
			"activities":    &graphql.Field{Type: graphql.NewList(activityType)},
			"distance_km":   &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"buildings": &graphql.Field{
				Type:        graphql.NewList(buildingType),
				Description: "List buildings",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					buildings, _, err := deps.Buildings.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					return buildings, err
				},
			},
			"building": &graphql.Field{
				Type:        buildingType,
				Description: "Get a building by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Buildings.GetByID(p.Context, int64(p.Args["id"].(int)))
				},
			},
			"activities": &graphql.Field{
				Type:        graphql.NewList(activityType),
				Description: "List activity trees",
				Args: graphql.FieldConfigArgument{
					"depth":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"roots_only": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"offset":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					trees, _, err := deps.Activities.ListTrees(p.Context,
						p.Args["depth"].(int), p.Args["roots_only"].(bool),
						p.Args["offset"].(int), p.Args["limit"].(int))
					return trees, err
				},
			},
			"activity": &graphql.Field{
				Type:        activityType,
				Description: "Get an activity subtree",
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"depth": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Activities.GetTree(p.Context, int64(p.Args["id"].(int)), p.Args["depth"].(int))
				},
			},
			"organizations": &graphql.Field{
				Type:        graphql.NewList(organizationType),
				Description: "List organizations, optionally filtered",
				Args: graphql.FieldConfigArgument{
					"name":        &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"activity_id": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"building_id": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"offset":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":       &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					orgs, _, err := deps.Organizations.List(p.Context, domain.OrganizationFilter{
						Name:       p.Args["name"].(string),
						ActivityID: int64(p.Args["activity_id"].(int)),
						BuildingID: int64(p.Args["building_id"].(int)),
						Offset:     p.Args["offset"].(int),
						Limit:      p.Args["limit"].(int),
					})
					return orgs, err
				},
			},
			"organization": &graphql.Field{
				Type:        organizationType,
				Description: "Get an organization by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Organizations.GetByID(p.Context, int64(p.Args["id"].(int)))
				},
			},
			"searchOrganizations": &graphql.Field{
				Type:        graphql.NewList(organizationType),
				Description: "Search organizations by bounding box, radius or city",
				Args: graphql.FieldConfigArgument{
					"city":      &graphql.ArgumentConfig{Type: graphql.String},
					"base_lat":  &graphql.ArgumentConfig{Type: graphql.Float},
					"base_lon":  &graphql.ArgumentConfig{Type: graphql.Float},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float},
					"min_lat":   &graphql.ArgumentConfig{Type: graphql.Float},
					"max_lat":   &graphql.ArgumentConfig{Type: graphql.Float},
					"min_lon":   &graphql.ArgumentConfig{Type: graphql.Float},
					"max_lon":   &graphql.ArgumentConfig{Type: graphql.Float},
					"geocode":   &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Organizations.Search(p.Context, searchQueryFromArgs(p.Args))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// searchQueryFromArgs applies the same grouping rules as the REST search:
// a group takes part only when every member argument is present.
func searchQueryFromArgs(args map[string]interface{}) domain.SearchQuery {
	f := func(name string) *float64 {
		v, ok := args[name].(float64)
		if !ok {
			return nil
		}
		return &v
	}

	q := domain.SearchQuery{
		RadiusKm: f("radius_km"),
		Geocode:  args["geocode"].(bool),
		Limit:    args["limit"].(int),
	}
	if city, ok := args["city"].(string); ok {
		q.City = city
	}
	if lat, lon := f("base_lat"), f("base_lon"); lat != nil && lon != nil {
		q.Base = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	minLat, maxLat, minLon, maxLon := f("min_lat"), f("max_lat"), f("min_lon"), f("max_lon")
	if minLat != nil && maxLat != nil && minLon != nil && maxLon != nil {
		q.Bounds = &domain.Bounds{MinLat: *minLat, MaxLat: *maxLat, MinLon: *minLon, MaxLon: *maxLon}
	}
	return q
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
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
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
