package service

import (
	"context"
	"testing"

	"github.com/motion-granted/engine/internal/domain/order"
	"github.com/motion-granted/engine/internal/domain/phase"
)

func TestSearchRanksAndFilters(t *testing.T) {
	a := testOrder("ord-s1", order.StatusProcessing, phase.Outline, 1)
	a.OrderNumber = "MG-2024-0101"
	a.MotionType = "Motion for Summary Judgment"
	b := testOrder("ord-s2", order.StatusProcessing, phase.Outline, 1)
	b.OrderNumber = "MG-2024-0102"
	b.MotionType = "Motion to Compel Discovery"
	c := testOrder("ord-s3", order.StatusCompleted, phase.Delivery, 5)
	c.OrderNumber = "AB-1111-XYZQ"
	c.MotionType = "Ex Parte Application"

	svc := NewSearchService(newMockStore(a, b, c), nil)

	matches, err := svc.Search(context.Background(), "MG-2024-0101", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) < 1 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Order.ID != "ord-s1" || matches[0].Score != 1 {
		t.Errorf("expected exact match first, got %+v", matches[0])
	}
	for _, m := range matches {
		if m.Order.ID == "ord-s3" {
			t.Errorf("weak match leaked past the cutoff: %+v", m)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted: %v then %v", matches[i-1].Score, matches[i].Score)
		}
	}
}

func TestSearchMatchesMotionType(t *testing.T) {
	a := testOrder("ord-s4", order.StatusProcessing, phase.Outline, 1)
	a.OrderNumber = "MG-2024-0201"
	a.MotionType = "Motion for Summary Judgment"

	svc := NewSearchService(newMockStore(a), nil)
	matches, err := svc.Search(context.Background(), "motion for summary judgment", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 1 {
		t.Errorf("expected case-insensitive motion-type match, got %+v", matches)
	}
}

func TestSearchLimit(t *testing.T) {
	store := newMockStore()
	for _, id := range []string{"ord-s5", "ord-s6", "ord-s7"} {
		o := testOrder(id, order.StatusProcessing, phase.Outline, 1)
		o.OrderNumber = "MG-2024-0300"
		_ = store.CreateOrder(context.Background(), o)
	}

	svc := NewSearchService(store, nil)
	matches, err := svc.Search(context.Background(), "MG-2024-0300", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected limit 2, got %d", len(matches))
	}
}

func TestSearchSnapshotIsCached(t *testing.T) {
	a := testOrder("ord-s8", order.StatusProcessing, phase.Outline, 1)
	a.OrderNumber = "MG-2024-0400"
	store := newMockStore(a)
	cache := newMockCache()
	svc := NewSearchService(store, cache)
	ctx := context.Background()

	if _, err := svc.Search(ctx, "MG-2024-0400", 10); err != nil {
		t.Fatalf("Search: %v", err)
	}

	// A new order within the snapshot TTL is invisible to search.
	late := testOrder("ord-s9", order.StatusProcessing, phase.Outline, 1)
	late.OrderNumber = "MG-2024-0400"
	_ = store.CreateOrder(ctx, late)

	matches, err := svc.Search(ctx, "MG-2024-0400", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected snapshot to hide the late order, got %d matches", len(matches))
	}
}
