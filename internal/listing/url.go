// Package listing holds helpers for normalising marketplace listing data.
package listing

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"regexp"
	"strings"
)

var itemPathID = regexp.MustCompile(`/items/(\d+)`)

// CanonicalURL resolves href against base and drops query and fragment so the
// same listing always maps to the same link.
func CanonicalURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty listing link")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse listing link %q: %w", href, err)
	}
	if !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("parse base %q: %w", base, err)
		}
		ref = b.ResolveReference(ref)
	}
	ref.RawQuery = ""
	ref.Fragment = ""
	ref.Host = strings.ToLower(ref.Host)
	ref.Path = strings.TrimRight(ref.Path, "/")
	return ref.String(), nil
}

// ID returns the stable identifier for a canonical link: the numeric item id
// when the path carries one, otherwise a hash of the link.
func ID(canonical string) string {
	if m := itemPathID.FindStringSubmatch(canonical); m != nil {
		return m[1]
	}
	h := fnv.New64a()
	h.Write([]byte(canonical))
	return fmt.Sprintf("h%016x", h.Sum64())
}

// PageURL returns the catalog URL for the given 1-based page.
func PageURL(catalogURL string, page int) (string, error) {
	u, err := url.Parse(catalogURL)
	if err != nil {
		return "", fmt.Errorf("parse catalog url %q: %w", catalogURL, err)
	}
	q := u.Query()
	q.Set("page", fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
