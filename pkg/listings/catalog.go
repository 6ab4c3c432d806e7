// Package listings provides the read-only listing catalog the gateway
// resolves listing ids and search corpora against.
package listings

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/plotwise/plotwise/pkg/models"
)

//go:embed seed.yaml
var seed []byte

// ErrNotFound is returned for unknown listing ids.
var ErrNotFound = errors.New("listing not found")

// Catalog is an immutable, ordered set of listings.
type Catalog struct {
	listings []models.Listing
	byID     map[string]int
}

// Seed returns the built-in catalog.
func Seed() (*Catalog, error) {
	return Parse(seed)
}

// Load reads a YAML catalog from path, or the built-in seed when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Seed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML list of listings. Ids must be present and unique.
func Parse(data []byte) (*Catalog, error) {
	var items []models.Listing
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{listings: items, byID: make(map[string]int, len(items))}
	for i := range c.listings {
		l := &c.listings[i]
		if l.ID == "" {
			return nil, fmt.Errorf("parse catalog: listing %d has no id", i)
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate id %q", l.ID)
		}
		if l.PricePerSqFt == 0 && l.Area > 0 {
			l.PricePerSqFt = math.Round(float64(l.Price) / l.Area)
		}
		c.byID[l.ID] = i
	}
	return c, nil
}

// Get returns the listing with id.
func (c *Catalog) Get(id string) (models.Listing, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Listing{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(c.listings[i]), nil
}

// All returns every listing in catalog order.
func (c *Catalog) All() []models.Listing {
	out := make([]models.Listing, len(c.listings))
	for i, l := range c.listings {
		out[i] = clone(l)
	}
	return out
}

// Subset returns the listings with the given ids in catalog order. Unknown
// ids are ignored; an empty ids slice selects the whole catalog.
func (c *Catalog) Subset(ids []string) []models.Listing {
	if len(ids) == 0 {
		return c.All()
	}
	var out []models.Listing
	for _, l := range c.listings {
		if slices.Contains(ids, l.ID) {
			out = append(out, clone(l))
		}
	}
	return out
}

// Len returns the number of listings.
func (c *Catalog) Len() int { return len(c.listings) }

func clone(l models.Listing) models.Listing {
	l.Images = slices.Clone(l.Images)
	l.Features = slices.Clone(l.Features)
	return l
}
