// Package publisher pushes a resolved IPv6 address to the dynamic-DNS
// provider's update endpoint.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"duckdns6/config"
)

type Interface interface {
	Update(ctx context.Context, addr netip.Addr) error
	Typename() string
}

var ErrTransport = errors.New("transport failure")

// RejectedError is returned when the provider answered but refused the
// update, either with a non-2xx status or with DuckDNS's "KO" body.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("provider rejected update: status %d: %s", e.StatusCode, e.Body)
}

var Providers = map[string]func(ctx context.Context, conf config.Config) (Interface, error){
	"duckdns": newDuckDNS,
}
