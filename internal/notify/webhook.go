package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sellwatch/internal/models"
)

const (
	colorSold = 0xff0000
	colorScan = 0x3498db
	colorHist = 0xff8c00

	// maxNamesLen keeps the scan-start description under the embed limit.
	maxNamesLen = 4000
)

// Webhook posts Discord-style embeds to a webhook URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook returns a Webhook notifier. A nil client uses a 10s timeout client.
func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{url: url, client: client}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Image       *embedImage  `json:"image,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, event models.Event) error {
	e, ok := buildEmbed(event)
	if !ok {
		return nil
	}
	body, err := json.Marshal(webhookPayload{Embeds: []embed{e}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildEmbed(event models.Event) (embed, bool) {
	ts := event.At.UTC().Format(time.RFC3339)
	switch event.Kind {
	case models.EventScanStart:
		desc := "No items"
		if event.Scan != nil && len(event.Scan.Names) > 0 {
			desc = strings.Join(event.Scan.Names, ", ")
			if len(desc) > maxNamesLen {
				desc = desc[:maxNamesLen] + "…"
			}
		}
		return embed{
			Title:       fmt.Sprintf("📡 [%s] Scan Starting", event.Category),
			Description: desc,
			Color:       colorScan,
			Timestamp:   ts,
		}, true
	case models.EventItemSold:
		if event.Sale == nil {
			return embed{}, false
		}
		s := event.Sale
		color := "N/A"
		if s.ColorName != nil && *s.ColorName != "" {
			color = *s.ColorName
		}
		title := fmt.Sprintf("🛑 [%s] Item SOLD", event.Category)
		c := colorSold
		switch event.Source {
		case models.SourceTest:
			title += " (test)"
		case models.SourceHistory:
			title = fmt.Sprintf("🛑 [%s] Historic Item SOLD", event.Category)
			c = colorHist
		}
		e := embed{
			Title: title,
			Color: c,
			Fields: []embedField{
				{Name: "Name", Value: s.Name},
				{Name: "Price", Value: s.Price, Inline: true},
				{Name: "Color", Value: color, Inline: true},
				{Name: "Link", Value: s.Link},
			},
			Timestamp: ts,
		}
		if s.Image != nil && *s.Image != "" {
			e.Image = &embedImage{URL: *s.Image}
		}
		return e, true
	default:
		return embed{}, false
	}
}
