package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/storecart/internal/common"
	"github.com/noah-isme/storecart/internal/pricing"
)

var (
	// ErrNotFound indicates the requested SKU is not registered.
	ErrNotFound = errors.New("item not found")
	// ErrInvalidInput is returned when a SKU or seed entry is malformed.
	ErrInvalidInput = errors.New("invalid input")
)

// Service is the in-memory registry of purchasable items keyed by SKU.
type Service struct {
	mu           sync.RWMutex
	items        map[string]*pricing.Item
	digest       string
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// ItemView is the public JSON shape of an item. Money is rendered as a
// decimal string with two fractional digits.
type ItemView struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	BulkQuantity int    `json:"bulkQuantity"`
	BulkPrice    string `json:"bulkPrice"`
	Bulk         bool   `json:"bulk"`
	Label        string `json:"label"`
}

// ListResult contains one page of items and pagination metadata.
type ListResult struct {
	Items []ItemView `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// NewService constructs an empty registry.
func NewService(cfg ServiceConfig) *Service {
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		items:        make(map[string]*pricing.Item),
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// NormalizeSKU lower-cases and trims a SKU.
func NormalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

// Register adds or replaces the item stored under sku.
func (s *Service) Register(sku string, item *pricing.Item) error {
	key := NormalizeSKU(sku)
	if key == "" {
		return fmt.Errorf("sku is required: %w", ErrInvalidInput)
	}
	if item == nil {
		return fmt.Errorf("item is required: %w", pricing.ErrNilReference)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = item
	s.digest = s.computeDigestLocked()
	return nil
}

// Lookup resolves a SKU to its item.
func (s *Service) Lookup(sku string) (*pricing.Item, error) {
	key := NormalizeSKU(sku)
	if key == "" {
		return nil, fmt.Errorf("sku is required: %w", ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return item, nil
}

// Get returns the public view of a single item.
func (s *Service) Get(sku string) (ItemView, error) {
	item, err := s.Lookup(sku)
	if err != nil {
		return ItemView{}, err
	}
	return NewItemView(NormalizeSKU(sku), item), nil
}

// Len reports the number of registered items.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// List returns one page of items sorted by SKU. Pages are served from the
// cache when the registry has not changed since they were stored.
func (s *Service) List(ctx context.Context, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	s.mu.RLock()
	digest := s.digest
	s.mu.RUnlock()
	cacheKey := fmt.Sprintf("items:%s:%d:%d", digest, page, limit)
	if s.cache != nil {
		var cached ListResult
		if ok, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	s.mu.RLock()
	skus := make([]string, 0, len(s.items))
	for sku := range s.items {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	result := ListResult{Items: []ItemView{}, Total: len(skus), Page: page, Limit: limit}
	start := (page - 1) * limit
	for i := start; i < len(skus) && i < start+limit; i++ {
		result.Items = append(result.Items, NewItemView(skus[i], s.items[skus[i]]))
	}
	s.mu.RUnlock()

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey, result)
	}
	return result, nil
}

// NewItemView renders an item for JSON responses.
func NewItemView(sku string, item *pricing.Item) ItemView {
	return ItemView{
		SKU:          sku,
		Name:         item.Name(),
		Price:        pricing.FormatAmount(item.Price()),
		BulkQuantity: item.BulkQuantity(),
		BulkPrice:    pricing.FormatAmount(item.BulkPrice()),
		Bulk:         item.IsBulk(),
		Label:        item.String(),
	}
}

// BuildItem parses decimal strings into a validated item. An empty bulk price means zero.
func BuildItem(name, price string, bulkQuantity int, bulkPrice string) (*pricing.Item, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return nil, badRequest("price", "price must be a decimal number", err)
	}
	bp := decimal.Zero
	if v := strings.TrimSpace(bulkPrice); v != "" {
		bp, err = decimal.NewFromString(v)
		if err != nil {
			return nil, badRequest("bulkPrice", "bulkPrice must be a decimal number", err)
		}
	}
	item, err := pricing.NewBulkItem(name, p, bulkQuantity, bp)
	if err != nil {
		return nil, badRequest("item", err.Error(), err)
	}
	return item, nil
}

func (s *Service) computeDigestLocked() string {
	keys := make([]string, 0, len(s.items))
	for sku, item := range s.items {
		keys = append(keys, sku+"="+item.Key())
	}
	sort.Strings(keys)
	return common.Sha256Hex(strings.Join(keys, "\n"))[:16]
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        fmt.Errorf("%w: %w", ErrInvalidInput, err),
		Details: map[string]any{
			"field": field,
		},
	}
}
