// Package updater runs one resolve-then-publish cycle. All per-cycle
// failures are contained here; nothing escapes to crash the scheduler.
package updater

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"duckdns6/common"
	"duckdns6/config"
	"duckdns6/log"
	"duckdns6/publisher"
	"duckdns6/resolver"

	"go.uber.org/zap"
)

// Outcome is the result of a single cycle. It is consumed for logging
// only; no retry state is derived from it.
type Outcome struct {
	Method  common.Method
	Address netip.Addr
	Elapsed time.Duration
	Err     error
}

func (o Outcome) Success() bool {
	return o.Err == nil
}

type Updater struct {
	method   common.Method
	source   resolver.Interface
	provider publisher.Interface
}

// New builds an Updater from the loaded configuration. An unrecognized
// ipv6_method falls back to the external service, with a warning; it is
// never a silent default and never fatal.
func New(ctx context.Context, conf config.Config) (*Updater, error) {
	ctx = log.SWith(ctx, log.Stage("init"))

	method, ok := common.ParseMethod(conf.IPv6Method)
	if !ok {
		log.S(ctx).Warnw("unknown ipv6 method, falling back to external service", "raw_method", conf.IPv6Method)
		method = common.MethodExternal
	}

	source, err := resolver.Sources[method](ctx, conf)
	if err != nil {
		log.S(ctx).Errorw("failed creating resolver", log.Method(method), zap.Error(err))
		return nil, fmt.Errorf("failed creating resolver: %w", err)
	}

	provider, err := publisher.Providers["duckdns"](ctx, conf)
	if err != nil {
		log.S(ctx).Errorw("failed creating publisher", zap.Error(err))
		return nil, fmt.Errorf("failed creating publisher: %w", err)
	}

	return &Updater{method: method, source: source, provider: provider}, nil
}

// Run performs one cycle. It never panics and never returns an error;
// failures are reported through the Outcome. Calls are independent and
// safe to run concurrently.
func (u *Updater) Run(ctx context.Context) (outcome Outcome) {
	start := time.Now()
	elapsed := log.Elapsed("elapsed")
	ctx = log.SWith(ctx, log.Stage("update"), log.Method(u.method))

	outcome = Outcome{Method: u.method}
	defer func() {
		outcome.Elapsed = time.Since(start)
	}()

	ip, err := u.source.Lookup(ctx)
	if err != nil {
		log.S(ctx).Errorw("cycle failed", "phase", "resolve", zap.Error(err), elapsed)
		outcome.Err = fmt.Errorf("resolve: %w", err)
		return outcome
	}

	outcome.Address = ip
	ctx = log.SWith(ctx, log.IP(ip))

	if err := u.provider.Update(ctx, ip); err != nil {
		log.S(ctx).Errorw("cycle failed", "phase", "publish", zap.Error(err), elapsed)
		outcome.Err = fmt.Errorf("publish: %w", err)
		return outcome
	}

	log.S(ctx).Infow("cycle completed", elapsed)
	return outcome
}
