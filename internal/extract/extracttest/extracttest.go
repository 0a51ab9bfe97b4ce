// Package extracttest provides an in-memory site implementing the extraction
// interfaces for tests.
package extracttest

import (
	"context"
	"fmt"
	"sync"

	"sellwatch/internal/extract"
	"sellwatch/internal/proxy"
)

// Page is a canned page.
type Page struct {
	PageURL   string
	PageTitle string
	PageText  string
	TileList  []extract.Tile
	// Detail is returned by ExtractDetail; nil means the page is not loaded.
	Detail *extract.DetailFields
}

func (p *Page) URL() string   { return p.PageURL }
func (p *Page) Title() string { return p.PageTitle }
func (p *Page) Text() string  { return p.PageText }

// Tile is a canned catalog tile. A non-nil Err fails extraction.
type Tile struct {
	Fields extract.TileFields
	Err    error
}

// Handler serves url for the n-th open (1-based) through ep.
type Handler func(ctx context.Context, n int, ep proxy.Endpoint) (*Page, error)

// Site is an in-memory Browser. It is safe for concurrent use.
type Site struct {
	mu        sync.Mutex
	handlers  map[string]Handler
	opens     map[string]int
	sessions  []proxy.Endpoint
	closed    int
	SessionFn func(ep proxy.Endpoint) error
}

// NewSite returns an empty Site.
func NewSite() *Site {
	return &Site{handlers: map[string]Handler{}, opens: map[string]int{}}
}

// Handle registers h for url.
func (s *Site) Handle(url string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[url] = h
}

// Serve registers a fixed page for url.
func (s *Site) Serve(url string, page *Page) {
	s.Handle(url, func(context.Context, int, proxy.Endpoint) (*Page, error) {
		return page, nil
	})
}

// Opens returns how many times url was opened.
func (s *Site) Opens(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[url]
}

// Sessions returns the endpoints of every session opened so far.
func (s *Site) Sessions() []proxy.Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]proxy.Endpoint(nil), s.sessions...)
}

// OpenSessions returns sessions opened but not yet closed.
func (s *Site) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions) - s.closed
}

func (s *Site) NewSession(ctx context.Context, ep proxy.Endpoint) (extract.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.SessionFn != nil {
		if err := s.SessionFn(ep); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	s.sessions = append(s.sessions, ep)
	s.mu.Unlock()
	return &session{site: s, ep: ep}, nil
}

type session struct {
	site *Site
	ep   proxy.Endpoint
	once sync.Once
}

func (ss *session) Open(ctx context.Context, url string) (extract.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := ss.site
	s.mu.Lock()
	h, ok := s.handlers[url]
	s.opens[url]++
	n := s.opens[url]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no page at %s", url)
	}
	page, err := h(ctx, n, ss.ep)
	if err != nil {
		return nil, err
	}
	if page.PageURL == "" {
		cp := *page
		cp.PageURL = url
		page = &cp
	}
	return page, nil
}

func (ss *session) Close() error {
	ss.once.Do(func() {
		ss.site.mu.Lock()
		ss.site.closed++
		ss.site.mu.Unlock()
	})
	return nil
}

// Capability reads canned tiles and details.
type Capability struct{}

func (Capability) Tiles(page extract.Page) []extract.Tile {
	p, ok := page.(*Page)
	if !ok {
		return nil
	}
	return p.TileList
}

func (Capability) ExtractTile(tile extract.Tile) (extract.TileFields, error) {
	t, ok := tile.(Tile)
	if !ok {
		return extract.TileFields{}, fmt.Errorf("unexpected tile %T", tile)
	}
	if t.Err != nil {
		return extract.TileFields{}, t.Err
	}
	return t.Fields, nil
}

func (Capability) ExtractDetail(page extract.Page) (extract.DetailFields, error) {
	p, ok := page.(*Page)
	if !ok {
		return extract.DetailFields{}, fmt.Errorf("unexpected page %T", page)
	}
	if p.Detail == nil {
		return extract.DetailFields{}, extract.ErrNotLoaded
	}
	return *p.Detail, nil
}

// Tiles builds n tiles linking to base/items/<start+i>-item.
func Tiles(base string, start, n int) []extract.Tile {
	tiles := make([]extract.Tile, 0, n)
	for i := start; i < start+n; i++ {
		tiles = append(tiles, Tile{Fields: extract.TileFields{
			Name:  fmt.Sprintf("item %d", i),
			Price: fmt.Sprintf("£%d.00", i),
			Link:  fmt.Sprintf("%s/items/%d-item", base, i),
		}})
	}
	return tiles
}
