// Package extract defines the page-extraction capability the tracker drives.
// Implementations decide how pages are fetched and parsed; the tracker only
// sees pages, tiles and extracted fields.
package extract

import (
	"context"
	"errors"
	"strings"

	"sellwatch/internal/proxy"
)

var (
	// ErrChallenge is returned when the target served an anti-bot interstitial.
	ErrChallenge = errors.New("challenge page")
	// ErrNotLoaded is returned when a detail page lacks its confirming element.
	ErrNotLoaded = errors.New("page not fully loaded")
)

// challengeMarkers are matched case-insensitively against page title and text.
var challengeMarkers = []string{
	"just a moment",
	"are you a human",
}

// Page is a loaded document.
type Page interface {
	URL() string
	Title() string
	Text() string
}

// Session is one proxied browsing identity. Sessions are not safe for
// concurrent use; each worker owns its own.
type Session interface {
	Open(ctx context.Context, url string) (Page, error)
	Close() error
}

// Browser opens sessions routed through an egress endpoint.
type Browser interface {
	NewSession(ctx context.Context, ep proxy.Endpoint) (Session, error)
}

// Tile is an opaque handle to one catalog grid entry.
type Tile any

// TileFields are the fields read from a catalog tile. Link may be relative.
type TileFields struct {
	Name     string
	Subtitle string
	Price    string
	Link     string
}

// DetailFields are the fields read from a listing detail page.
type DetailFields struct {
	IsSold    bool
	Image     *string
	ColorName *string
}

// Capability turns pages into fields.
type Capability interface {
	Tiles(page Page) []Tile
	ExtractTile(tile Tile) (TileFields, error)
	// ExtractDetail returns ErrNotLoaded when the page is missing its
	// confirming element.
	ExtractDetail(page Page) (DetailFields, error)
}

// IsChallenge reports whether page is an anti-bot interstitial.
func IsChallenge(page Page) bool {
	if page == nil {
		return false
	}
	title := strings.ToLower(page.Title())
	text := strings.ToLower(page.Text())
	for _, marker := range challengeMarkers {
		if strings.Contains(title, marker) || strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
