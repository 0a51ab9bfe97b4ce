package html

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sellwatch/internal/extract"
)

// Capability extracts tiles and details with CSS selectors.
type Capability struct {
	sel Selectors
}

// NewCapability returns a Capability; empty selectors take their defaults.
func NewCapability(sel Selectors) *Capability {
	return &Capability{sel: sel.withDefaults()}
}

func (c *Capability) Tiles(page extract.Page) []extract.Tile {
	p, ok := page.(*Page)
	if !ok {
		return nil
	}
	var tiles []extract.Tile
	p.doc.Find(c.sel.GridItem).Each(func(_ int, s *goquery.Selection) {
		tiles = append(tiles, s)
	})
	return tiles
}

func (c *Capability) ExtractTile(tile extract.Tile) (extract.TileFields, error) {
	s, ok := tile.(*goquery.Selection)
	if !ok {
		return extract.TileFields{}, fmt.Errorf("unsupported tile type %T", tile)
	}
	link, _ := s.Find(c.sel.Link).First().Attr("href")
	fields := extract.TileFields{
		Name:     text(s, c.sel.Title),
		Subtitle: text(s, c.sel.Subtitle),
		Price:    text(s, c.sel.Price),
		Link:     strings.TrimSpace(link),
	}
	if fields.Name == "" || fields.Price == "" || fields.Link == "" {
		return extract.TileFields{}, fmt.Errorf("incomplete tile: name=%q price=%q link=%q", fields.Name, fields.Price, fields.Link)
	}
	return fields, nil
}

func (c *Capability) ExtractDetail(page extract.Page) (extract.DetailFields, error) {
	p, ok := page.(*Page)
	if !ok {
		return extract.DetailFields{}, fmt.Errorf("unsupported page type %T", page)
	}
	if p.doc.Find(c.sel.ItemDetails).Length() == 0 {
		return extract.DetailFields{}, extract.ErrNotLoaded
	}
	status := strings.ToLower(text(p.doc.Selection, c.sel.Status))
	detail := extract.DetailFields{
		IsSold: status != "" && strings.Contains(status, strings.ToLower(c.sel.SoldMarker)),
	}
	if src, ok := p.doc.Find(c.sel.Image).First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		src = strings.TrimSpace(src)
		detail.Image = &src
	}
	if color := text(p.doc.Selection, c.sel.Color); color != "" {
		detail.ColorName = &color
	}
	return detail, nil
}

func text(s *goquery.Selection, selector string) string {
	return strings.Join(strings.Fields(s.Find(selector).First().Text()), " ")
}
