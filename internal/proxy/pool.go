// Package proxy holds the static pool of egress identities.
package proxy

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/url"
	"strings"
)

// ErrEmptyPool is returned when a pool is built with no usable endpoints.
var ErrEmptyPool = errors.New("proxy pool is empty")

// Endpoint is one egress identity.
type Endpoint struct {
	Host     string
	Port     string
	Username string
	Password string
}

// ParseEndpoint parses "host:port" or "host:port:user:pass".
func ParseEndpoint(raw string) (Endpoint, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	switch len(parts) {
	case 2:
		return Endpoint{Host: parts[0], Port: parts[1]}, validate(raw, parts)
	case 4:
		return Endpoint{Host: parts[0], Port: parts[1], Username: parts[2], Password: parts[3]}, validate(raw, parts)
	default:
		return Endpoint{}, fmt.Errorf("invalid proxy %q: want host:port[:user:pass]", raw)
	}
}

func validate(raw string, parts []string) error {
	if parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid proxy %q: missing host or port", raw)
	}
	return nil
}

// Addr returns host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, e.Port)
}

// URL returns the endpoint as an http proxy URL with credentials when set.
func (e Endpoint) URL() *url.URL {
	u := &url.URL{Scheme: "http", Host: e.Addr()}
	if e.Username != "" {
		u.User = url.UserPassword(e.Username, e.Password)
	}
	return u
}

// String omits credentials so endpoints are safe to log.
func (e Endpoint) String() string {
	return e.Addr()
}

// Pool is a read-only list of endpoints. Draws are random with replacement.
type Pool struct {
	endpoints []Endpoint
}

// NewPool builds a pool from endpoints.
func NewPool(endpoints []Endpoint) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, ErrEmptyPool
	}
	cp := make([]Endpoint, len(endpoints))
	copy(cp, endpoints)
	return &Pool{endpoints: cp}, nil
}

// ParsePool parses a comma or newline separated list of proxy strings.
// Blank entries are skipped.
func ParsePool(list string) (*Pool, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	var endpoints []Endpoint
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		ep, err := ParseEndpoint(f)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return NewPool(endpoints)
}

// Len returns the number of endpoints.
func (p *Pool) Len() int {
	return len(p.endpoints)
}

// Pick returns a uniformly random endpoint.
func (p *Pool) Pick() Endpoint {
	return p.endpoints[rand.IntN(len(p.endpoints))]
}

// PickFrom draws from the first n endpoints. n <= 0 or n beyond the pool
// size means the whole pool.
func (p *Pool) PickFrom(n int) Endpoint {
	if n <= 0 || n > len(p.endpoints) {
		n = len(p.endpoints)
	}
	return p.endpoints[rand.IntN(n)]
}
