package resolver

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"duckdns6/config"
	"duckdns6/log"

	"go.uber.org/zap"
)

// ifaceEntry is a snapshot of one interface with its addresses already
// fetched. Lookup works on snapshots so tests can inject fixtures.
type ifaceEntry struct {
	Name  string
	Flags net.Flags
	Addrs []net.Addr
}

type local struct {
	iface string

	list func(ctx context.Context) ([]ifaceEntry, error)
}

func (s *local) Typename() string {
	return "local"
}

func systemInterfaces(ctx context.Context) ([]ifaceEntry, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	entries := make([]ifaceEntry, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			log.S(ctx).Warnw("get address failed", "interface", iface.Name, zap.Error(err))
			continue
		}

		entries = append(entries, ifaceEntry{
			Name:  iface.Name,
			Flags: iface.Flags,
			Addrs: addrs,
		})
	}

	return entries, nil
}

func ipv6From(addr net.Addr) (netip.Addr, bool) {
	var ip net.IP
	switch addr := addr.(type) {
	case *net.IPAddr:
		ip = addr.IP
	case *net.IPNet:
		ip = addr.IP
	default:
		return netip.Addr{}, false
	}

	if ip.To4() != nil {
		return netip.Addr{}, false
	}

	nip, ok := netip.AddrFromSlice(ip)
	if !ok || !nip.Is6() {
		return netip.Addr{}, false
	}

	return nip, true
}

// Lookup returns the first IPv6 address in interface enumeration order.
// The order is whatever the platform reports; it is not guaranteed stable
// across platforms or reboots.
func (s *local) Lookup(ctx context.Context) (result netip.Addr, err error) {
	ctx = log.SWith(ctx, "interface", s.iface)

	defer func() {
		if err == nil {
			log.S(ctx).Debugw("got ip", log.IP(result))
		}
	}()

	entries, err := s.list(ctx)
	if err != nil {
		log.S(ctx).Warnw("list interfaces failed", zap.Error(err))
		return netip.Addr{}, fmt.Errorf("%w: list interfaces failed: %w", ErrTransport, err)
	}

	if s.iface != "" {
		for _, entry := range entries {
			if entry.Name != s.iface {
				continue
			}

			for _, addr := range entry.Addrs {
				if ip, ok := ipv6From(addr); ok {
					return ip, nil
				}
			}

			log.S(ctx).Warnw("interface has no IPv6 address")
			return netip.Addr{}, fmt.Errorf("%w: interface %q has no IPv6 address", ErrInterfaceNotFound, s.iface)
		}

		log.S(ctx).Warnw("no interface with requested name")
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInterfaceNotFound, s.iface)
	}

	for _, entry := range entries {
		if entry.Flags&net.FlagLoopback != 0 {
			log.S(ctx).Debugw("skip loopback interface", "candidate", entry.Name)
			continue
		}

		for _, addr := range entry.Addrs {
			if ip, ok := ipv6From(addr); ok {
				log.S(ctx).Debugw("picked interface", "candidate", entry.Name)
				return ip, nil
			}
		}
	}

	log.S(ctx).Warnw("no eligible IPv6 address on any interface")
	return netip.Addr{}, ErrNoAddressFound
}

func newLocal(ctx context.Context, conf config.Config) (Interface, error) {
	return &local{iface: conf.Interface, list: systemInterfaces}, nil
}
