package models

// Category is one market segment with its catalog endpoint.
type Category struct {
	Name       string `json:"name" yaml:"name"`
	CatalogURL string `json:"catalog_url" yaml:"catalog_url"`
	// Collection names the sale store collection; the loader defaults it to "<name>_sales".
	Collection string `json:"collection,omitempty" yaml:"collection"`
}

// StoreCollection returns the collection sold records for this category go to.
func (c Category) StoreCollection() string {
	if c.Collection != "" {
		return c.Collection
	}
	return c.Name
}
