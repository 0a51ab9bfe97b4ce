package orchestrator

import (
	"context"
	"fmt"
	"time"

	"sellwatch/internal/extract"
	"sellwatch/internal/listing"
	"sellwatch/internal/models"
	"sellwatch/internal/proxy"
	"sellwatch/internal/store"
)

// CatalogProbe measures freshness from the first catalog page against SeenHistory.
type CatalogProbe struct {
	Browser    extract.Browser
	Capability extract.Capability
	Proxies    *proxy.Pool
	Seen       store.SeenHistory
	ProxyRange int
	NavTimeout time.Duration
}

// Freshness implements FreshnessProbe.
func (p *CatalogProbe) Freshness(ctx context.Context, category models.Category) (int, error) {
	ids, err := p.frontPageIDs(ctx, category)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	seen, err := p.Seen.Seen(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("seen lookup: %w", err)
	}
	fresh := 0
	for _, s := range seen {
		if !s {
			fresh++
		}
	}
	return fresh, nil
}

func (p *CatalogProbe) frontPageIDs(ctx context.Context, category models.Category) ([]string, error) {
	sess, err := p.Browser.NewSession(ctx, p.Proxies.PickFrom(p.ProxyRange))
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	pageURL, err := listing.PageURL(category.CatalogURL, 1)
	if err != nil {
		return nil, err
	}
	timeout := p.NavTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	page, err := sess.Open(navCtx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("open front page: %w", err)
	}
	if extract.IsChallenge(page) {
		return nil, extract.ErrChallenge
	}

	var ids []string
	dup := map[string]bool{}
	for _, tile := range p.Capability.Tiles(page) {
		fields, err := p.Capability.ExtractTile(tile)
		if err != nil {
			continue
		}
		link, err := listing.CanonicalURL(page.URL(), fields.Link)
		if err != nil {
			continue
		}
		id := listing.ID(link)
		if dup[id] {
			continue
		}
		dup[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
