package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/storecart/internal/catalog"
	"github.com/noah-isme/storecart/internal/client"
	"github.com/noah-isme/storecart/internal/obs"
	"github.com/noah-isme/storecart/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrLimitReached is returned when a client already holds the maximum number of carts.
var ErrLimitReached = errors.New("cart limit reached")

// ItemResolver maps a SKU to a catalog item.
type ItemResolver interface {
	Lookup(sku string) (*pricing.Item, error)
}

// Service keeps carts in memory keyed by UUID. Carts idle for longer than TTL
// are treated as gone. MaxPerClient caps the live carts created by one client;
// zero disables the cap.
type Service struct {
	Catalog      ItemResolver
	TTL          time.Duration
	MaxPerClient int
	Now          func() time.Time
	Logger       zerolog.Logger

	mu    sync.RWMutex
	carts map[string]*entry
}

// entry is one stored cart. mu serializes cart mutations with the lines
// index; touched is guarded by Service.mu.
type entry struct {
	mu      sync.Mutex
	cart    *pricing.Cart
	lines   map[string]*pricing.Item // sku -> item currently in the cart
	owner   string
	touched time.Time
}

func newEntry(owner string, now time.Time) *entry {
	return &entry{cart: pricing.NewCart(), lines: make(map[string]*pricing.Item), owner: owner, touched: now}
}

// put applies order under sku. A line left behind by an earlier catalog
// version of the same SKU is dropped first, so each SKU maps to at most one line.
func (e *entry) put(sku string, order *pricing.Order) (pricing.AddResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item := order.Item()
	stale := false
	if prev, ok := e.lines[sku]; ok && !prev.Equal(item) {
		drop, err := pricing.NewOrder(prev, 0)
		if err != nil {
			return pricing.Ignored, err
		}
		if _, err := e.cart.Put(drop); err != nil {
			return pricing.Ignored, err
		}
		delete(e.lines, sku)
		stale = true
	}

	res, err := e.cart.Put(order)
	if err != nil {
		return pricing.Ignored, err
	}
	if stale {
		switch res {
		case pricing.Ignored:
			res = pricing.Removed
		case pricing.Added:
			res = pricing.Replaced
		}
	}

	switch res {
	case pricing.Added, pricing.Replaced:
		for other, it := range e.lines {
			if other != sku && it.Equal(item) {
				delete(e.lines, other)
			}
		}
		e.lines[sku] = item
	case pricing.Removed:
		for other, it := range e.lines {
			if it.Equal(item) {
				delete(e.lines, other)
			}
		}
	}
	return res, nil
}

// Line is one order of a cart as seen by API clients.
type Line struct {
	SKU      string
	Item     *pricing.Item
	Quantity int
}

// Snapshot is a consistent read of a cart.
type Snapshot struct {
	ID         string
	Lines      []Line
	Membership bool
	Size       pricing.CartSize
	Quote      pricing.Quote
	ExpiresAt  time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create starts an empty cart and returns its identifier. The cart is owned by
// the client stored in ctx, if any.
func (s *Service) Create(ctx context.Context) (string, error) {
	if s == nil {
		return "", errors.New("cart service not configured")
	}
	owner, _ := client.From(ctx)
	now := s.now()
	id := uuid.NewString()

	s.mu.Lock()
	if s.carts == nil {
		s.carts = make(map[string]*entry)
	}
	if s.MaxPerClient > 0 && owner != "" && s.ownedLocked(owner, now) >= s.MaxPerClient {
		s.mu.Unlock()
		s.Logger.Warn().Str("client", owner).Int("max", s.MaxPerClient).Msg("cart limit reached")
		return "", ErrLimitReached
	}
	s.carts[id] = newEntry(owner, now)
	count := len(s.carts)
	s.mu.Unlock()

	if obs.CartsActive != nil {
		obs.CartsActive.Set(float64(count))
	}
	s.Logger.Debug().Str("cart_id", id).Msg("cart created")
	return id, nil
}

func (s *Service) ownedLocked(owner string, now time.Time) int {
	n := 0
	for _, e := range s.carts {
		if e.owner == owner && now.Sub(e.touched) <= s.ttl() {
			n++
		}
	}
	return n
}

// lookup returns the live entry for id and refreshes its idle timer.
func (s *Service) lookup(id string) (*entry, error) {
	if s == nil {
		return nil, errors.New("cart service not configured")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse cart id: %w", ErrInvalidInput)
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[id]
	if !ok || now.Sub(e.touched) > s.ttl() {
		return nil, ErrNotFound
	}
	e.touched = now
	return e, nil
}

// SetOrder places an order for sku with the given quantity, replacing any
// existing line for the same item. A zero quantity removes the line.
func (s *Service) SetOrder(ctx context.Context, cartID, sku string, qty int) (pricing.AddResult, error) {
	if qty < 0 {
		return pricing.Ignored, fmt.Errorf("quantity cannot be negative: %w", ErrInvalidInput)
	}
	e, err := s.lookup(cartID)
	if err != nil {
		return pricing.Ignored, err
	}
	if s.Catalog == nil {
		return pricing.Ignored, errors.New("cart catalog not configured")
	}
	item, err := s.Catalog.Lookup(sku)
	if err != nil {
		return pricing.Ignored, err
	}
	order, err := pricing.NewOrder(item, qty)
	if err != nil {
		return pricing.Ignored, err
	}
	res, err := e.put(catalog.NormalizeSKU(sku), order)
	if err != nil {
		return pricing.Ignored, err
	}

	if obs.CartLineChanges != nil {
		obs.CartLineChanges.WithLabelValues(res.String()).Inc()
	}
	s.Logger.Debug().
		Str("cart_id", cartID).
		Str("sku", sku).
		Int("qty", qty).
		Str("action", res.String()).
		Msg("cart line updated")
	return res, nil
}

// SetMembership toggles membership pricing for the cart.
func (s *Service) SetMembership(ctx context.Context, cartID string, active bool) error {
	e, err := s.lookup(cartID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.cart.SetMembership(active)
	e.mu.Unlock()
	return nil
}

// Total returns the cart total rounded half-to-even to cents.
func (s *Service) Total(ctx context.Context, cartID string) (decimal.Decimal, error) {
	q, err := s.Quote(ctx, cartID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return q.Total, nil
}

// Quote prices the cart line by line.
func (s *Service) Quote(ctx context.Context, cartID string) (pricing.Quote, error) {
	_, span := otel.Tracer("cart.Service").Start(ctx, "CartService.Quote")
	defer span.End()

	e, err := s.lookup(cartID)
	if err != nil {
		span.RecordError(err)
		return pricing.Quote{}, err
	}
	q := e.cart.Quote()
	s.observeQuote(q)
	span.SetAttributes(
		attribute.String("cart.id", cartID),
		attribute.Int("cart.lines", len(q.Lines)),
		attribute.Bool("cart.membership", q.Membership),
		attribute.String("cart.total", q.Total.StringFixed(pricing.CurrencyPlaces)),
	)
	s.Logger.Debug().
		Str("cart_id", cartID).
		Bool("membership", q.Membership).
		Str("total", q.Total.StringFixed(pricing.CurrencyPlaces)).
		Msg("cart priced")
	return q, nil
}

// Size counts the orders and units in the cart.
func (s *Service) Size(ctx context.Context, cartID string) (pricing.CartSize, error) {
	e, err := s.lookup(cartID)
	if err != nil {
		return pricing.CartSize{}, err
	}
	return e.cart.Size(), nil
}

// Snapshot returns the lines, size and pricing of a cart.
func (s *Service) Snapshot(ctx context.Context, cartID string) (Snapshot, error) {
	e, err := s.lookup(cartID)
	if err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	orders := e.cart.Orders()
	membership := e.cart.Membership()
	skus := make(map[string]string, len(e.lines))
	for sku, item := range e.lines {
		skus[item.Key()] = sku
	}
	e.mu.Unlock()
	q := pricing.Compute(orders, membership)

	lines := make([]Line, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, Line{SKU: skus[o.Item().Key()], Item: o.Item(), Quantity: o.Quantity()})
	}
	s.mu.RLock()
	expires := e.touched.Add(s.ttl())
	s.mu.RUnlock()

	size := pricing.CartSize{ItemOrderCount: len(orders)}
	for _, o := range orders {
		size.ItemCount += o.Quantity()
	}
	return Snapshot{
		ID:         cartID,
		Lines:      lines,
		Membership: q.Membership,
		Size:       size,
		Quote:      q,
		ExpiresAt:  expires,
	}, nil
}

// Clear empties the cart but keeps it and its membership.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	e, err := s.lookup(cartID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.cart.Clear()
	e.lines = make(map[string]*pricing.Item)
	e.mu.Unlock()
	return nil
}

// Delete discards the cart.
func (s *Service) Delete(ctx context.Context, cartID string) error {
	if _, err := s.lookup(cartID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.carts, cartID)
	count := len(s.carts)
	s.mu.Unlock()
	if obs.CartsActive != nil {
		obs.CartsActive.Set(float64(count))
	}
	return nil
}

// Sweep drops carts idle for longer than the TTL and returns how many were removed.
func (s *Service) Sweep(ctx context.Context) int {
	if s == nil {
		return 0
	}
	now := s.now()
	s.mu.Lock()
	removed := 0
	for id, e := range s.carts {
		if now.Sub(e.touched) > s.ttl() {
			delete(s.carts, id)
			removed++
		}
	}
	count := len(s.carts)
	s.mu.Unlock()
	if obs.CartsActive != nil {
		obs.CartsActive.Set(float64(count))
	}
	if removed > 0 {
		s.Logger.Info().Int("removed", removed).Int("remaining", count).Msg("expired carts swept")
	}
	return removed
}

func (s *Service) observeQuote(q pricing.Quote) {
	if obs.CartTotalCalculations != nil {
		obs.CartTotalCalculations.WithLabelValues(strconv.FormatBool(q.Membership)).Inc()
	}
	if obs.CartBulkLines == nil {
		return
	}
	for _, line := range q.Lines {
		if line.BulkApplied {
			obs.CartBulkLines.Inc()
		}
	}
}
