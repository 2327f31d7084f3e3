package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"duckdns6/common"
	"duckdns6/config"
	"duckdns6/log"

	"go.uber.org/zap"
)

const maxReadExternal = 4 * 1024

const defaultExternalTimeout = 15 * time.Second

type external struct {
	config.ResolverOptions `mapstructure:",squash"`

	url string
}

func (s *external) Typename() string {
	return "external"
}

func (s *external) Lookup(ctx context.Context) (result netip.Addr, err error) {
	timeout := time.Duration(s.Timeout)
	ctx = log.SWith(ctx, "url", s.url, "timeout", timeout)

	defer func() {
		if err == nil {
			log.S(ctx).Debugw("got ip", log.IP(result))
		}
	}()

	tCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = tCtx

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		log.S(ctx).Errorw("new request failed", zap.Error(err))
		return netip.Addr{}, fmt.Errorf("new request failed: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.S(ctx).Warnw("connection failed", zap.Error(err))
		return netip.Addr{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.S(ctx).Warnw("close body failed", zap.Error(err))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadExternal))
	if err != nil {
		log.S(ctx).Warnw("receiving response failed", zap.Error(err))
		return netip.Addr{}, fmt.Errorf("%w: failed receiving response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.S(ctx).Warnw("ip service returned bad status", "status", resp.StatusCode, log.ByteField("body", data))
		return netip.Addr{}, fmt.Errorf("%w: ip service returned status %d", ErrTransport, resp.StatusCode)
	}

	ipString := strings.TrimSpace(string(data))
	nip, err := netip.ParseAddr(ipString)
	if err != nil {
		log.S(ctx).Warnw("response is not an IP literal", log.ByteField("body", data))
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, ipString)
	}

	switch {
	case nip.Zone() != "":
		log.S(ctx).Warnw("found zone in IP", "raw", ipString, "zone", nip.Zone())
		return netip.Addr{}, fmt.Errorf("%w: unexpected zone in %q", ErrInvalidAddress, ipString)

	case !nip.Is6() || nip.Is4In6():
		log.S(ctx).Warnw("response is not IPv6", "raw", ipString)
		return netip.Addr{}, fmt.Errorf("%w: %q is not IPv6", ErrInvalidAddress, ipString)

	default:
		return nip, nil
	}
}

func newExternal(ctx context.Context, conf config.Config) (Interface, error) {
	ctx = log.SWith(ctx, "type", "external")

	s := &external{url: conf.IPServiceURL}
	if err := common.WeakDecodeMap(conf.Resolver, s); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", conf.Resolver)
		return nil, fmt.Errorf(`bad config: %w`, err)
	}

	if s.Timeout == 0 {
		s.Timeout = common.Duration(defaultExternalTimeout)
	}

	return s, nil
}
