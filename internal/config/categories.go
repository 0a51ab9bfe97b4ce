// Package config loads tracker configuration from flags, environment and YAML.
package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"sellwatch/internal/extract/html"
	"sellwatch/internal/models"
)

// DefaultThreshold is the freshness count a category needs to be selected.
const DefaultThreshold = 10

// Categories is the ordered categories file.
type Categories struct {
	Threshold  int               `yaml:"threshold"`
	Categories []models.Category `yaml:"categories"`
	Selectors  html.Selectors    `yaml:"selectors"`
}

// LoadCategories reads, defaults and validates the categories file at path.
func LoadCategories(path string) (*Categories, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}
	return ParseCategories(data)
}

// ParseCategories decodes a categories document.
func ParseCategories(data []byte) (*Categories, error) {
	var c Categories
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Categories) setDefaults() {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	for i := range c.Categories {
		if c.Categories[i].Collection == "" {
			c.Categories[i].Collection = c.Categories[i].Name + "_sales"
		}
	}
}

func (c *Categories) validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
		if seen[cat.Name] {
			return fmt.Errorf("category %q: duplicate name", cat.Name)
		}
		seen[cat.Name] = true
		u, err := url.Parse(cat.CatalogURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("category %q: invalid catalog_url %q", cat.Name, cat.CatalogURL)
		}
	}
	return nil
}

// Find returns the category called name.
func (c *Categories) Find(name string) (models.Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return models.Category{}, false
}
