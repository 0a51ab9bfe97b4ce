package html

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"sellwatch/internal/extract"
	"sellwatch/internal/proxy"
)

// DefaultUserAgent is sent with every page request.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// maxBodyBytes bounds how much of a page is read.
const maxBodyBytes = 8 << 20

// Browser opens HTTP sessions through a proxy endpoint.
type Browser struct {
	UserAgent string
	// NewClient builds the HTTP client for an endpoint. Defaults to proxy.NewHTTPClient.
	NewClient func(ep proxy.Endpoint) *http.Client
	// Limiter paces navigations across every session; nil disables pacing.
	Limiter *rate.Limiter
}

// NewBrowser returns a Browser with default client construction.
func NewBrowser() *Browser {
	return &Browser{UserAgent: DefaultUserAgent, NewClient: proxy.NewHTTPClient}
}

// WithRateLimit paces navigations to rps per second with the given burst.
// rps <= 0 disables pacing.
func (b *Browser) WithRateLimit(rps float64, burst int) *Browser {
	if rps <= 0 {
		b.Limiter = nil
		return b
	}
	if burst < 1 {
		burst = 1
	}
	b.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return b
}

// NewSession implements extract.Browser.
func (b *Browser) NewSession(ctx context.Context, ep proxy.Endpoint) (extract.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	newClient := b.NewClient
	if newClient == nil {
		newClient = proxy.NewHTTPClient
	}
	ua := b.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &session{client: newClient(ep), userAgent: ua, limiter: b.Limiter}, nil
}

type session struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// Open fetches url and parses it. Challenge pages are returned as pages even
// when served with an error status so callers can classify them.
func (s *session) Open(ctx context.Context, url string) (extract.Page, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	page := &Page{url: resp.Request.URL.String(), doc: doc}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if extract.IsChallenge(page) {
			return page, nil
		}
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	return page, nil
}

func (s *session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Page is a parsed HTML document.
type Page struct {
	url string
	doc *goquery.Document
}

// NewPage wraps an already parsed document.
func NewPage(url string, doc *goquery.Document) *Page {
	return &Page{url: url, doc: doc}
}

func (p *Page) URL() string { return p.url }

func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

func (p *Page) Text() string {
	return p.doc.Find("body").Text()
}
