// Package resolver discovers the host's current IPv6 address, either by
// asking an external echo service or by inspecting local interfaces.
package resolver

import (
	"context"
	"errors"
	"net/netip"

	"duckdns6/common"
	"duckdns6/config"
)

type Interface interface {
	Lookup(ctx context.Context) (netip.Addr, error)
	Typename() string
}

var (
	ErrInvalidAddress    = errors.New("not a valid IPv6 address")
	ErrInterfaceNotFound = errors.New("interface not found")
	ErrNoAddressFound    = errors.New("no IPv6 address found")
	ErrTransport         = errors.New("transport failure")
)

var Sources = map[common.Method]func(ctx context.Context, conf config.Config) (Interface, error){
	common.MethodExternal: newExternal,
	common.MethodLocal:    newLocal,
}
