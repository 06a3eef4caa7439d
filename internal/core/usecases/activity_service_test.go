package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/orgdirectory/internal/core/domain"
	"github.com/samirrijal/orgdirectory/internal/core/ports"
	"github.com/samirrijal/orgdirectory/internal/core/usecases"
)

func seedActivities() *mockActivityRepo {
	return newMockActivityRepo(
		domain.Activity{ID: 1, Name: "Еда"},
		domain.Activity{ID: 2, Name: "Мясная продукция", ParentID: ptr(int64(1))},
		domain.Activity{ID: 3, Name: "Молочная продукция", ParentID: ptr(int64(1))},
		domain.Activity{ID: 4, Name: "Автомобили"},
		domain.Activity{ID: 5, Name: "Грузовые", ParentID: ptr(int64(4))},
		domain.Activity{ID: 6, Name: "Легковые", ParentID: ptr(int64(4))},
	)
}

func newActivityService(repo *mockActivityRepo, cache ports.CacheService) *usecases.ActivityService {
	return usecases.NewActivityService(repo, cache, nil, usecases.DepthPolicy{Default: 3, Max: 10})
}

func TestDepthPolicy_Resolve(t *testing.T) {
	p := usecases.DepthPolicy{Default: 3, Max: 5}
	cases := map[int]int{0: 3, -1: 3, 1: 1, 4: 4, 99: 5}
	for in, want := range cases {
		if got := p.Resolve(in); got != want {
			t.Errorf("Resolve(%d) = %d, want %d", in, got, want)
		}
	}
	if got := (usecases.DepthPolicy{}).Resolve(0); got != domain.DefaultActivityDepth {
		t.Errorf("zero policy should fall back to %d, got %d", domain.DefaultActivityDepth, got)
	}
}

func TestActivityService_Create_Root(t *testing.T) {
	repo := newMockActivityRepo()
	events := &mockPublisher{}
	svc := usecases.NewActivityService(repo, nil, events, usecases.DepthPolicy{Default: 3})

	node, err := svc.Create(context.Background(), usecases.ActivityInput{Name: " Еда "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.ID != 1 || node.Name != "Еда" {
		t.Errorf("unexpected node %+v", node)
	}
	if node.Children == nil {
		t.Error("expected non-nil children")
	}
	if len(events.events) != 1 || events.events[0].Type != domain.EventActivityCreated {
		t.Errorf("expected one activity.created event, got %+v", events.events)
	}
}

func TestActivityService_Create_Validation(t *testing.T) {
	svc := newActivityService(seedActivities(), nil)

	cases := []struct {
		name string
		in   usecases.ActivityInput
	}{
		{"empty name", usecases.ActivityInput{Name: "  "}},
		{"zero parent", usecases.ActivityInput{Name: "x", ParentID: ptr(int64(0))}},
		{"negative parent", usecases.ActivityInput{Name: "x", ParentID: ptr(int64(-2))}},
		{"missing parent", usecases.ActivityInput{Name: "x", ParentID: ptr(int64(99))}},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.in)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestActivityService_Create_InvalidatesCatalog(t *testing.T) {
	repo := seedActivities()
	cache := newMemCache()
	svc := newActivityService(repo, cache)
	ctx := context.Background()

	if _, err := svc.GetTree(ctx, 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node, err := svc.Create(ctx, usecases.ActivityInput{Name: "Сыры", ParentID: ptr(int64(3))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree, err := svc.GetTree(ctx, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dairy := tree.Children[1]
	if len(dairy.Children) != 1 || dairy.Children[0].ID != node.ID {
		t.Errorf("expected new child under dairy after invalidation, got %+v", dairy)
	}
	if repo.listAllN != 2 {
		t.Errorf("expected catalog to be reloaded once, got %d loads", repo.listAllN)
	}
}

func TestActivityService_CreateDuringCatalogLoad(t *testing.T) {
	repo := seedActivities()
	cache := newMemCache()
	svc := newActivityService(repo, cache)
	ctx := context.Background()

	var created *domain.ActivityNode
	repo.afterSnapshot = func() {
		var err error
		created, err = svc.Create(ctx, usecases.ActivityInput{Name: "Сыры", ParentID: ptr(int64(3))})
		if err != nil {
			t.Errorf("create during load: %v", err)
		}
	}

	if _, err := svc.GetTree(ctx, 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.Get(ctx, "activities:all"); err == nil {
		t.Fatal("catalog loaded before the create must not be cached")
	}

	node, err := svc.GetTree(ctx, created.ID, 0)
	if err != nil {
		t.Fatalf("new activity not visible: %v", err)
	}
	if node.Name != "Сыры" {
		t.Errorf("unexpected node %+v", node)
	}
}

func TestActivityService_StaleSharedCatalogIsReloaded(t *testing.T) {
	repo := seedActivities()
	cache := newMemCache()
	reader := newActivityService(repo, cache)
	writer := newActivityService(repo, cache)
	ctx := context.Background()

	// Another instance creates an activity while this one is loading.
	var created *domain.ActivityNode
	repo.afterSnapshot = func() {
		created, _ = writer.Create(ctx, usecases.ActivityInput{Name: "Мотоциклы", ParentID: ptr(int64(4))})
	}
	if _, err := reader.GetTree(ctx, 4, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected activity to be created")
	}

	node, err := reader.GetTree(ctx, created.ID, 0)
	if err != nil {
		t.Fatalf("expected reload on a catalog miss, got %v", err)
	}
	if node.ID != created.ID {
		t.Errorf("unexpected node %+v", node)
	}

	tree, _ := reader.GetTree(ctx, 4, 0)
	if len(tree.Children) != 3 {
		t.Errorf("expected refreshed catalog to be cached, got %+v", tree)
	}
}

func TestActivityService_GetTree(t *testing.T) {
	svc := newActivityService(seedActivities(), nil)

	tree, err := svc.GetTree(context.Background(), 4, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 2 || tree.Children[0].Name != "Грузовые" {
		t.Errorf("unexpected tree %+v", tree)
	}

	shallow, _ := svc.GetTree(context.Background(), 4, 1)
	if len(shallow.Children) != 0 {
		t.Errorf("depth 1 should have no children, got %d", len(shallow.Children))
	}

	_, err = svc.GetTree(context.Background(), 42, 0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActivityService_ListTrees(t *testing.T) {
	svc := newActivityService(seedActivities(), nil)
	ctx := context.Background()

	roots, total, err := svc.ListTrees(ctx, 0, true, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d (total %d)", len(roots), total)
	}

	page, total, _ := svc.ListTrees(ctx, 0, false, 4, 10)
	if total != 6 || len(page) != 2 {
		t.Fatalf("expected last 2 of 6, got %d (total %d)", len(page), total)
	}
	if page[0].ID != 5 {
		t.Errorf("expected id 5 first, got %d", page[0].ID)
	}

	empty, _, _ := svc.ListTrees(ctx, 0, false, 100, 10)
	if len(empty) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(empty))
	}
}
