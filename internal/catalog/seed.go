package catalog

import (
	"fmt"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SeedItem is one entry of a catalog seed file. Prices are decimal strings.
type SeedItem struct {
	SKU          string `koanf:"sku"`
	Name         string `koanf:"name"`
	Price        string `koanf:"price"`
	BulkQuantity int    `koanf:"bulkQuantity"`
	BulkPrice    string `koanf:"bulkPrice"`
}

// LoadFile reads a JSON seed file of the form {"items": [...]}.
func LoadFile(path string) ([]SeedItem, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog seed: %w", err)
	}
	var seed struct {
		Items []SeedItem `koanf:"items"`
	}
	if err := k.Unmarshal("", &seed); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}
	return seed.Items, nil
}

// Seed registers every entry, stopping at the first invalid one.
func (s *Service) Seed(entries []SeedItem) error {
	for i, entry := range entries {
		item, err := BuildItem(entry.Name, entry.Price, entry.BulkQuantity, entry.BulkPrice)
		if err != nil {
			return fmt.Errorf("seed entry %d (%s): %w", i, entry.SKU, err)
		}
		if err := s.Register(entry.SKU, item); err != nil {
			return fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return nil
}
