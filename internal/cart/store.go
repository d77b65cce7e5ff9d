package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/apiclient"
	"storefront/internal/logging"
	"storefront/internal/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrInvalidItem     = errors.New("cart item id is required")
)

// API is the slice of the commerce API the store needs.
type API interface {
	GetCart(ctx context.Context) ([]models.CartItem, error)
	AddToCart(ctx context.Context, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, id string, quantity int) error
	RemoveFromCart(ctx context.Context, id string) error
	ClearCart(ctx context.Context) error
}

// Error is a failed cart mutation with a message fit for the shopper.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func mutationError(op string, err error, fallback string) *Error {
	return &Error{Op: op, Message: apiclient.MessageOr(err, fallback), Err: err}
}

// Store is the only writer of a shopper's cart. Readers get copies through
// Snapshot and learn about changes through Subscribe.
type Store struct {
	api    API
	logger *zap.Logger

	mu       sync.RWMutex
	items    []models.CartItem
	inflight int
	// applied is the sequence of the newest fetch (or local change) the
	// items reflect; older fetch results are discarded.
	applied uint64

	fetches  singleflight.Group
	fetchSeq atomic.Uint64
	lines    lineLocks

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewStore(api API, logger *zap.Logger) *Store {
	return &Store{
		api:    api,
		logger: logging.Component(logger, "cart"),
		subs:   make(map[int]func(Snapshot)),
	}
}

const fetchKey = "cart"

type fetchResult struct {
	items []models.CartItem
	seq   uint64
}

// FetchCart replaces the local items with the server's cart. On failure the
// previous items stay in place and the error is only logged.
func (s *Store) FetchCart(ctx context.Context) {
	s.fetch(ctx, false)
}

// fetch loads the server cart. Concurrent fetches for the same shopper share
// one round trip unless fresh is set, in which case a flight that started
// earlier is not joined.
func (s *Store) fetch(ctx context.Context, fresh bool) {
	s.beginLoading()
	defer s.endLoading()

	if fresh {
		s.fetches.Forget(fetchKey)
	}
	v, err, _ := s.fetches.Do(fetchKey, func() (interface{}, error) {
		seq := s.fetchSeq.Add(1)
		items, err := s.api.GetCart(ctx)
		return fetchResult{items: items, seq: seq}, err
	})
	if err != nil {
		s.logger.Warn("fetch cart failed, keeping last known cart", zap.Error(err))
		return
	}

	res := v.(fetchResult)
	s.mu.Lock()
	if res.seq <= s.applied {
		s.mu.Unlock()
		return
	}
	s.applied = res.seq
	s.items = cloneItems(res.items)
	s.mu.Unlock()
	s.notify()
}

// supersedeFetchesLocked makes every fetch already in flight stale so it
// cannot overwrite a local change. Callers hold s.mu.
func (s *Store) supersedeFetchesLocked() {
	s.applied = s.fetchSeq.Add(1)
}

// AddToCart resynchronizes from the server instead of appending locally:
// the server decides stock, merging and row ids, so a full refetch is the
// only way to show what was actually added.
func (s *Store) AddToCart(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if err := s.api.AddToCart(ctx, productID, quantity); err != nil {
		s.logger.Info("add to cart rejected", zap.String("product_id", productID), zap.Error(err))
		return mutationError("add to cart", err, "Failed to add to cart")
	}

	s.fetch(ctx, true)
	return nil
}

// UpdateQuantity patches the single line locally once the server accepts
// the change. Stock clamping is the caller's job (MaxQuantityReached), so
// no refetch is needed. A quantity of 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity == 0 {
		return s.RemoveItem(ctx, itemID)
	}
	if itemID == "" {
		return ErrInvalidItem
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	unlock := s.lines.lock(itemID)
	defer unlock()

	if err := s.api.UpdateCartItem(ctx, itemID, quantity); err != nil {
		s.logger.Info("update cart item rejected", zap.String("item_id", itemID), zap.Error(err))
		return mutationError("update cart", err, "Failed to update cart")
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
		}
	}
	s.supersedeFetchesLocked()
	s.mu.Unlock()
	s.notify()
	return nil
}

// RemoveItem drops the line locally once the server confirms the removal.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	if itemID == "" {
		return ErrInvalidItem
	}

	unlock := s.lines.lock(itemID)
	defer unlock()

	if err := s.api.RemoveFromCart(ctx, itemID); err != nil {
		s.logger.Info("remove cart item rejected", zap.String("item_id", itemID), zap.Error(err))
		return mutationError("remove item", err, "Failed to remove item")
	}

	s.mu.Lock()
	kept := make([]models.CartItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.supersedeFetchesLocked()
	s.mu.Unlock()
	s.notify()
	return nil
}

// ClearCart empties the cart. A failed clear is logged and the local items
// are kept; it must not block navigation.
func (s *Store) ClearCart(ctx context.Context) {
	if err := s.api.ClearCart(ctx); err != nil {
		s.logger.Warn("clear cart failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.items = nil
	s.supersedeFetchesLocked()
	s.mu.Unlock()
	s.notify()
}

// Reset drops the local items without calling the API, e.g. after the
// shopper signs out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = nil
	s.supersedeFetchesLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) GetCartTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Total(s.items)
}

func (s *Store) GetItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ItemCount(s.items)
}

func (s *Store) Items() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Item looks up a line by its cart row id.
func (s *Store) Item(itemID string) (models.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == itemID {
			return cloneItem(item), true
		}
	}
	return models.CartItem{}, false
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newSnapshot(s.items)
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) beginLoading() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Store) endLoading() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}
