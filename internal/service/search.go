package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/motion-granted/engine/internal/domain/citation"
	"github.com/motion-granted/engine/internal/domain/order"
	"github.com/motion-granted/engine/internal/port/cache"
	"github.com/motion-granted/engine/internal/port/database"
)

const (
	searchSnapshotKey = "orders:search_snapshot"
	searchSnapshotTTL = 15 * time.Second

	// searchMinScore cuts off matches too weak to be useful.
	searchMinScore = 0.4
)

// SearchService runs fuzzy free-text search over orders, matching the
// query against order number and motion type. A short-lived snapshot of
// the order list is cached so bursts of admin searches don't each hit the
// database.
type SearchService struct {
	store database.Store
	cache cache.Cache
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(store database.Store, c cache.Cache) *SearchService {
	return &SearchService{store: store, cache: c}
}

// Match is one search hit with its similarity score.
type Match struct {
	Order order.Order `json:"order"`
	Score float64     `json:"score"`
}

// Search scores every order against the query and returns matches above
// the cutoff, best first, at most limit.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 20
	}
	orders, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(orders))
	for _, o := range orders {
		score := citation.Similarity(query, o.OrderNumber)
		if mt := citation.Similarity(query, o.MotionType); mt > score {
			score = mt
		}
		if score >= searchMinScore {
			matches = append(matches, Match{Order: o, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *SearchService) snapshot(ctx context.Context) ([]order.Order, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, searchSnapshotKey); err == nil && ok {
			var orders []order.Order
			if err := json.Unmarshal(data, &orders); err == nil {
				return orders, nil
			}
		}
	}

	orders, err := s.store.ListOrders(ctx, nil)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if data, err := json.Marshal(orders); err == nil {
			_ = s.cache.Set(ctx, searchSnapshotKey, data, searchSnapshotTTL)
		}
	}
	return orders, nil
}
