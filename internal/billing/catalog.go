package billing

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/brieflyhq/briefly/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrUnknownPlan is returned for a plan name that is not in the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// CatalogPlan is one sellable plan.
type CatalogPlan struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Price       decimal.Decimal        `json:"price"`
	Currency    string                 `json:"currency"`
	Interval    models.BillingInterval `json:"interval"`
	Features    []string               `json:"features"`
}

// Catalog is the ordered list of plans.
type Catalog struct {
	plans []CatalogPlan
}

type catalogFile struct {
	Plans []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Price       string   `yaml:"price"`
		Currency    string   `yaml:"currency"`
		Interval    string   `yaml:"interval"`
		Features    []string `yaml:"features"`
	} `yaml:"plans"`
}

// DefaultCatalog parses the catalog shipped with the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog reads a YAML plan list.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{}
	seen := map[string]bool{}
	for i, p := range f.Plans {
		if p.Name == "" {
			return nil, fmt.Errorf("catalog plan %d: missing name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("catalog plan %q: duplicate name", p.Name)
		}
		seen[p.Name] = true

		price, err := decimal.NewFromString(p.Price)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("catalog plan %q: invalid price %q", p.Name, p.Price)
		}
		interval := models.BillingInterval(strings.ToUpper(p.Interval))
		if interval != models.IntervalMonth && interval != models.IntervalYear {
			return nil, fmt.Errorf("catalog plan %q: invalid interval %q", p.Name, p.Interval)
		}
		currency := strings.ToUpper(p.Currency)
		if len(currency) != 3 {
			return nil, fmt.Errorf("catalog plan %q: invalid currency %q", p.Name, p.Currency)
		}
		features := p.Features
		if features == nil {
			features = []string{}
		}
		c.plans = append(c.plans, CatalogPlan{
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Currency:    currency,
			Interval:    interval,
			Features:    features,
		})
	}
	return c, nil
}

// Plans returns a copy of the catalog in file order.
func (c *Catalog) Plans() []CatalogPlan {
	return append([]CatalogPlan(nil), c.plans...)
}

// Find returns the plan with the given name.
func (c *Catalog) Find(name string) (CatalogPlan, error) {
	for _, p := range c.plans {
		if p.Name == name {
			return p, nil
		}
	}
	return CatalogPlan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, name)
}
