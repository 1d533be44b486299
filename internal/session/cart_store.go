package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/storage"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// CartStorageKey is the persisted cart record within a session namespace.
const CartStorageKey = "digitalghar-cart"

// ErrCartPersist wraps backend failures while saving a mutation. The cart is unchanged.
var ErrCartPersist = errors.New("cart could not be saved")

// CartState is the persisted and observable form of a cart.
type CartState struct {
	Items []model.CartItem `json:"items"`
	Total decimal.Decimal  `json:"total"`
}

// CartObserver receives every committed cart state.
// It runs with the cart locked and must not call back into the store.
type CartObserver func(state CartState)

// CartSyncer reconciles the local cart with a server-side cart.
type CartSyncer interface {
	PullCart(ctx context.Context) ([]model.CartItem, error)
	PushCart(ctx context.Context, items []model.CartItem) error
}

// CartStore is the authoritative record of one session's pending purchase set.
type CartStore struct {
	mu       sync.Mutex
	backend  storage.Backend
	state    CartState
	observer CartObserver

	checkingOut atomic.Bool
}

func NewCartStore(backend storage.Backend) *CartStore {
	return &CartStore{
		backend: backend,
		state:   newCartState(nil),
	}
}

// SetObserver installs the observer notified after each committed mutation.
func (s *CartStore) SetObserver(observer CartObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Hydrate loads the persisted cart. A missing or unreadable record yields an empty cart;
// only backend failures are returned.
func (s *CartStore) Hydrate(ctx context.Context) error {
	raw, err := s.backend.Get(ctx, CartStorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	var persisted CartState
	if err := json.Unmarshal(raw, &persisted); err != nil {
		logger.Warn("Discarding unreadable cart record", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// the stored total is never trusted
	s.state = newCartState(persisted.Items)
	return nil
}

// AddToCart appends a snapshot of product. Adding a product already in the cart is a no-op.
func (s *CartStore) AddToCart(ctx context.Context, product model.Product) error {
	return s.mutate(ctx, func(state CartState) (CartState, bool) {
		return addItem(state, model.NewCartItem(product))
	})
}

// RemoveFromCart removes the item with productID. Absent ids are a no-op.
func (s *CartStore) RemoveFromCart(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(state CartState) (CartState, bool) {
		return removeItem(state, productID)
	})
}

// ClearCart empties the cart.
func (s *CartStore) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func(CartState) (CartState, bool) {
		return newCartState(nil), true
	})
}

// RemoveItems drops every listed id in one mutation. Ids not in the cart are ignored.
func (s *CartStore) RemoveItems(ctx context.Context, ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return s.mutate(ctx, func(state CartState) (CartState, bool) {
		kept := make([]model.CartItem, 0, len(state.Items))
		for _, item := range state.Items {
			if _, ok := drop[item.ID]; !ok {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(state.Items) {
			return state, false
		}
		return newCartState(kept), true
	})
}

// BeginCheckout marks the cart as being ordered. It reports false while another
// checkout holds it; otherwise release must be called once the order settles.
func (s *CartStore) BeginCheckout() (release func(), ok bool) {
	if !s.checkingOut.CompareAndSwap(false, true) {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { s.checkingOut.Store(false) }) }, true
}

func (s *CartStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Total
}

// ItemCount is the number of distinct items.
func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Items)
}

func (s *CartStore) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.state.Items, productID) >= 0
}

// Snapshot returns a copy that later mutations do not affect.
func (s *CartStore) Snapshot() CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// SyncWithServer merges the server cart into the local one and pushes the result back.
// A nil syncer is a no-op. The merge keeps local order, appends remote-only items
// and collapses duplicates, so running it twice changes nothing.
func (s *CartStore) SyncWithServer(ctx context.Context, syncer CartSyncer) error {
	if syncer == nil {
		return nil
	}

	remote, err := syncer.PullCart(ctx)
	if err != nil {
		return fmt.Errorf("pull server cart: %w", err)
	}

	if err := s.mutate(ctx, func(state CartState) (CartState, bool) {
		return mergeItems(state, remote)
	}); err != nil {
		return err
	}

	if err := syncer.PushCart(ctx, s.Snapshot().Items); err != nil {
		return fmt.Errorf("push merged cart: %w", err)
	}
	return nil
}

// mutate applies reducer, persists the result and only then commits it.
func (s *CartStore) mutate(ctx context.Context, reducer func(CartState) (CartState, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := reducer(s.state)
	if !changed {
		return nil
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.backend.Set(ctx, CartStorageKey, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrCartPersist, err)
	}

	s.state = next
	if s.observer != nil {
		s.observer(next.clone())
	}
	return nil
}

// newCartState drops duplicate ids (first wins) and derives the total.
func newCartState(items []model.CartItem) CartState {
	out := make([]model.CartItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return CartState{Items: out, Total: sumPrices(out)}
}

func addItem(state CartState, item model.CartItem) (CartState, bool) {
	if indexOf(state.Items, item.ID) >= 0 {
		return state, false
	}
	items := make([]model.CartItem, 0, len(state.Items)+1)
	items = append(items, state.Items...)
	items = append(items, item)
	return CartState{Items: items, Total: sumPrices(items)}, true
}

func removeItem(state CartState, productID string) (CartState, bool) {
	idx := indexOf(state.Items, productID)
	if idx < 0 {
		return state, false
	}
	items := make([]model.CartItem, 0, len(state.Items)-1)
	items = append(items, state.Items[:idx]...)
	items = append(items, state.Items[idx+1:]...)
	return CartState{Items: items, Total: sumPrices(items)}, true
}

func mergeItems(state CartState, remote []model.CartItem) (CartState, bool) {
	merged := make([]model.CartItem, 0, len(state.Items)+len(remote))
	merged = append(merged, state.Items...)
	merged = append(merged, remote...)
	next := newCartState(merged)
	return next, len(next.Items) != len(state.Items)
}

func sumPrices(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}

func indexOf(items []model.CartItem, productID string) int {
	for i, item := range items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func (c CartState) clone() CartState {
	items := make([]model.CartItem, len(c.Items))
	copy(items, c.Items)
	return CartState{Items: items, Total: c.Total}
}
