package http

import (
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/usecases"
)

// StatsHandler returns directory row counts.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Stats == nil {
			return errInternal(c, "database not available")
		}
		stats, err := deps.Stats.Get(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ---- Buildings ----

// CreateBuildingHandler stores a building, geocoding the address when
// coordinates are omitted.
func CreateBuildingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.BuildingInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		b, err := deps.Buildings.Create(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		c.Set("Location", "/v1/buildings/"+strconv.FormatInt(b.ID, 10))
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// ListBuildingsHandler returns a page of buildings.
func ListBuildingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := parsePage(c)
		buildings, total, err := deps.Buildings.List(c.UserContext(), offset, limit)
		if err != nil {
			return serviceError(c, err)
		}
		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: buildings, Pagination: pg})
	}
}

// GetBuildingHandler returns a single building.
func GetBuildingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		b, err := deps.Buildings.GetByID(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(b)
	}
}

// BuildingOrganizationsHandler lists organizations located in a building.
func BuildingOrganizationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		offset, limit := parsePage(c)
		orgs, total, err := deps.Organizations.ListByBuilding(c.UserContext(), id, offset, limit)
		if err != nil {
			return serviceError(c, err)
		}
		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: orgs, Pagination: pg})
	}
}

// ---- Activities ----

// CreateActivityHandler stores an activity under an optional existing parent.
func CreateActivityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.ActivityInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		node, err := deps.Activities.Create(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		c.Set("Location", "/v1/activities/"+strconv.FormatInt(node.ID, 10))
		return c.Status(fiber.StatusCreated).JSON(node)
	}
}

// ListActivitiesHandler returns a page of activity trees. ?roots_only=true
// restricts the page to top-level activities.
func ListActivitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		depth, err := parseDepth(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		offset, limit := parsePage(c)
		trees, total, err := deps.Activities.ListTrees(c.UserContext(), depth, c.QueryBool("roots_only", false), offset, limit)
		if err != nil {
			return serviceError(c, err)
		}
		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: trees, Pagination: pg})
	}
}

// GetActivityHandler returns one activity rendered as a tree.
func GetActivityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		depth, err := parseDepth(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		node, err := deps.Activities.GetTree(c.UserContext(), id, depth)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(node)
	}
}

// ---- Organizations ----

// CreateOrganizationHandler stores an organization with its activity links.
func CreateOrganizationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.OrganizationInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		org, err := deps.Organizations.Create(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		c.Set("Location", "/v1/organizations/"+strconv.FormatInt(org.ID, 10))
		return c.Status(fiber.StatusCreated).JSON(org)
	}
}

// ListOrganizationsHandler returns a filtered page of organizations.
func ListOrganizationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		activityID, err := optionalID(c, "activity_id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		buildingID, err := optionalID(c, "building_id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		name := c.Query("name")
		if len(name) > 200 {
			return errBadRequest(c, "name too long (max 200 characters)")
		}

		offset, limit := parsePage(c)
		orgs, total, err := deps.Organizations.List(c.UserContext(), domain.OrganizationFilter{
			Name:       name,
			ActivityID: activityID,
			BuildingID: buildingID,
			Offset:     offset,
			Limit:      limit,
		})
		if err != nil {
			return serviceError(c, err)
		}
		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: orgs, Pagination: pg})
	}
}

// GetOrganizationHandler returns a single organization.
func GetOrganizationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		org, err := deps.Organizations.GetByID(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(org)
	}
}

// SearchOrganizationsHandler searches by bounding box, radius and city.
// Only complete parameter groups take part in the search.
func SearchOrganizationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			q    domain.SearchQuery
			vals = map[string]*float64{}
		)
		for _, name := range []string{"base_lat", "base_lon", "radius_km", "min_lat", "max_lat", "min_lon", "max_lon"} {
			v, err := optionalFloat(c, name)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			vals[name] = v
		}

		q.City = c.Query("city")
		if len(q.City) > 200 {
			return errBadRequest(c, "city too long (max 200 characters)")
		}
		if vals["base_lat"] != nil && vals["base_lon"] != nil {
			q.Base = &domain.GeoPoint{Lat: *vals["base_lat"], Lon: *vals["base_lon"]}
		}
		q.RadiusKm = vals["radius_km"]
		if vals["min_lat"] != nil && vals["max_lat"] != nil && vals["min_lon"] != nil && vals["max_lon"] != nil {
			q.Bounds = &domain.Bounds{
				MinLat: *vals["min_lat"], MaxLat: *vals["max_lat"],
				MinLon: *vals["min_lon"], MaxLon: *vals["max_lon"],
			}
		}
		q.Geocode = c.QueryBool("geocode", false)
		q.Limit = c.QueryInt("limit", 0)

		orgs, err := deps.Organizations.Search(c.UserContext(), q)
		if err != nil {
			return serviceError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(orgs)
	}
}

// ---- Parameter parsing ----

func parseID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

func optionalID(c *fiber.Ctx, name string) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

func optionalFloat(c *fiber.Ctx, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fiber.NewError(fiber.StatusBadRequest, name+" must be a finite number")
	}
	return &f, nil
}

func parseDepth(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("depth"))
	if raw == "" {
		return 0, nil
	}
	d, err := strconv.Atoi(raw)
	if err != nil || d < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "depth must be a positive integer")
	}
	return d, nil
}
