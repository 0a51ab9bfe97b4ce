// Package html implements extract.Capability over server-rendered markup with goquery.
package html

// Selectors locate the fields on catalog and detail pages.
type Selectors struct {
	GridItem    string `yaml:"grid_item"`
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Price       string `yaml:"price"`
	Link        string `yaml:"link"`
	ItemDetails string `yaml:"item_details"`
	Status      string `yaml:"status"`
	Image       string `yaml:"image"`
	Color       string `yaml:"color"`
	// SoldMarker is matched case-insensitively against the status text.
	SoldMarker string `yaml:"sold_marker"`
}

// DefaultSelectors match the marketplace's data-testid attributes.
func DefaultSelectors() Selectors {
	return Selectors{
		GridItem:    `div[data-testid="grid-item"]`,
		Title:       `[data-testid$="--description-title"]`,
		Subtitle:    `[data-testid$="--description-subtitle"]`,
		Price:       `[data-testid$="--price-text"]`,
		Link:        `a[data-testid$="--overlay-link"]`,
		ItemDetails: `[data-testid="item-details"]`,
		Status:      `[data-testid="item-status--content"]`,
		Image:       `img[data-testid^="item-photo-"]`,
		Color:       `div[data-testid="item-attributes-color"] div[itemprop="color"]`,
		SoldMarker:  "sold",
	}
}

// withDefaults fills empty selectors from DefaultSelectors.
func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.GridItem, d.GridItem)
	fill(&s.Title, d.Title)
	fill(&s.Subtitle, d.Subtitle)
	fill(&s.Price, d.Price)
	fill(&s.Link, d.Link)
	fill(&s.ItemDetails, d.ItemDetails)
	fill(&s.Status, d.Status)
	fill(&s.Image, d.Image)
	fill(&s.Color, d.Color)
	fill(&s.SoldMarker, d.SoldMarker)
	return s
}
