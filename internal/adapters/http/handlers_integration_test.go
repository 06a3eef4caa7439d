//go:build integration

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/orgdirectory/internal/adapters/http"
	"github.com/samirrijal/orgdirectory/internal/adapters/postgres"
	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/usecases"
	"github.com/samirrijal/orgdirectory/internal/pkg/config"
	"github.com/samirrijal/orgdirectory/migrations"
)

// setupTestDB connects to the configured database, applies the schema and
// empties every directory table.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("orgdirectory-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 10*time.Second)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := migrations.Up(ctx, db.Pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, `TRUNCATE organization_activities, organizations, activities, buildings RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies with real DB and repos, no cache.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	buildings := postgres.NewBuildingRepo(db)
	activities := usecases.NewActivityService(postgres.NewActivityRepo(db), nil, nil, usecases.DepthPolicy{Default: 3, Max: 10})
	return &handler.Dependencies{
		Buildings:     usecases.NewBuildingService(buildings, nil, nil, nil),
		Activities:    activities,
		Organizations: usecases.NewOrganizationService(postgres.NewOrganizationRepo(db), buildings, activities, nil, nil, 25),
		Stats:         usecases.NewStatsService(postgres.NewStatsRepo(db)),
		DB:            db,
	}
}

func postJSON(t *testing.T, app *fiber.App, path, body string, out interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("POST %s: expected 201, got %d: %s", path, resp.StatusCode, readBody(t, resp.Body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
}

func getJSON(t *testing.T, app *fiber.App, path string, out interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("GET %s: expected 200, got %d: %s", path, resp.StatusCode, readBody(t, resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}

func TestIntegration_DirectoryFlow(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	var moscow, spb domain.Building
	postJSON(t, app, "/v1/buildings", `{"address":"Moscow, Lenina 1","latitude":55.7558,"longitude":37.6173}`, &moscow)
	postJSON(t, app, "/v1/buildings", `{"address":"Saint Petersburg, Nevsky 10","latitude":59.9343,"longitude":30.3351}`, &spb)

	var food, meat, beef, cars domain.ActivityNode
	postJSON(t, app, "/v1/activities", `{"name":"Food"}`, &food)
	postJSON(t, app, "/v1/activities", fmt.Sprintf(`{"name":"Meat","parent_id":%d}`, food.ID), &meat)
	postJSON(t, app, "/v1/activities", fmt.Sprintf(`{"name":"Beef","parent_id":%d}`, meat.ID), &beef)
	postJSON(t, app, "/v1/activities", `{"name":"Cars"}`, &cars)

	var hooves, garage domain.Organization
	postJSON(t, app, "/v1/organizations", fmt.Sprintf(
		`{"name":"Horns and Hooves","phone_numbers":["2-222-222","3-333-333"],"building_id":%d,"activity_ids":[%d]}`,
		moscow.ID, food.ID), &hooves)
	postJSON(t, app, "/v1/organizations", fmt.Sprintf(
		`{"name":"Nevsky Garage","building_id":%d,"activity_ids":[%d]}`, spb.ID, cars.ID), &garage)

	// Organization carries its building and the full Food tree.
	var got domain.Organization
	getJSON(t, app, fmt.Sprintf("/v1/organizations/%d", hooves.ID), &got)
	if got.Building == nil || got.Building.ID != moscow.ID {
		t.Errorf("expected Moscow building, got %+v", got.Building)
	}
	if len(got.PhoneNumbers) != 2 {
		t.Errorf("expected 2 phones, got %v", got.PhoneNumbers)
	}
	if len(got.Activities) != 1 || len(got.Activities[0].Children) != 1 || got.Activities[0].Children[0].Children[0].Name != "Beef" {
		t.Errorf("unexpected activity tree %+v", got.Activities)
	}

	// Filter by activity.
	var page struct {
		Data       []domain.Organization `json:"data"`
		Pagination handler.Pagination    `json:"pagination"`
	}
	getJSON(t, app, fmt.Sprintf("/v1/organizations?activity_id=%d", cars.ID), &page)
	if page.Pagination.Total != 1 || page.Data[0].ID != garage.ID {
		t.Errorf("expected only the garage, got %+v", page)
	}

	// Radius around Moscow excludes Saint Petersburg (about 634 km away).
	var near []domain.Organization
	getJSON(t, app, "/v1/organizations/search?base_lat=55.7558&base_lon=37.6173&radius_km=600", &near)
	if len(near) != 1 || near[0].ID != hooves.ID {
		t.Errorf("expected only Moscow org within 600 km, got %+v", near)
	}
	getJSON(t, app, "/v1/organizations/search?base_lat=55.7558&base_lon=37.6173&radius_km=700", &near)
	if len(near) != 2 || near[1].ID != garage.ID {
		t.Errorf("expected both orgs ordered by distance within 700 km, got %+v", near)
	}

	// City substring, case-insensitive.
	var byCity []domain.Organization
	getJSON(t, app, "/v1/organizations/search?city=saint", &byCity)
	if len(byCity) != 1 || byCity[0].ID != garage.ID {
		t.Errorf("expected garage by city, got %+v", byCity)
	}

	var stats domain.DirectoryStats
	getJSON(t, app, "/v1/stats", &stats)
	if stats.Buildings != 2 || stats.Activities != 4 || stats.Organizations != 2 || stats.Links != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestIntegration_ReadyWithDB(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	var ready struct {
		Checks map[string]string `json:"checks"`
	}
	getJSON(t, app, "/v1/ready", &ready)
	if ready.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %q", ready.Checks["database"])
	}
}
