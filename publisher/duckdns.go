package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"duckdns6/common"
	"duckdns6/config"
	"duckdns6/log"

	"go.uber.org/zap"
)

const defaultEndpoint = "https://www.duckdns.org"

const defaultPublishTimeout = 15 * time.Second

const maxReadResponse = 1024

type duckdns struct {
	config.PublisherOptions `mapstructure:",squash"`

	domain string
	token  string
}

func (d *duckdns) Typename() string {
	return "duckdns"
}

// Update performs one update call. The token is confined to the request
// URL; log lines carry domain and status only.
func (d *duckdns) Update(ctx context.Context, addr netip.Addr) error {
	timeout := time.Duration(d.Timeout)
	ctx = log.SWith(ctx, "provider", "duckdns", "domain", d.domain, "timeout", timeout)

	tCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = tCtx

	query := url.Values{}
	query.Set("domains", d.domain)
	query.Set("token", d.token)
	query.Set("ipv6", addr.String())
	query.Set("verbose", "true")
	reqURL := d.Endpoint + "/update?" + query.Encode()

	query.Set("token", "redacted")
	safeURL := d.Endpoint + "/update?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		err = redactURL(err, safeURL)
		log.S(ctx).Errorw("new request failed", zap.Error(err))
		return fmt.Errorf("new request failed: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		err = redactURL(err, safeURL)
		log.S(ctx).Warnw("connection failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.S(ctx).Warnw("close body failed", zap.Error(err))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadResponse))
	if err != nil {
		log.S(ctx).Warnw("receiving response failed", zap.Error(err))
		return fmt.Errorf("%w: failed receiving response: %w", ErrTransport, err)
	}

	body := strings.TrimSpace(string(data))
	ctx = log.SWith(ctx, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.S(ctx).Warnw("provider rejected update", log.ByteField("body", data))
		return &RejectedError{StatusCode: resp.StatusCode, Body: body}
	}

	// DuckDNS reports bad domains or tokens with a 200 "KO" body.
	if strings.HasPrefix(body, "KO") {
		log.S(ctx).Warnw("provider answered KO", log.ByteField("body", data))
		return &RejectedError{StatusCode: resp.StatusCode, Body: body}
	}

	log.S(ctx).Debugw("provider accepted update", log.ByteField("body", data))
	return nil
}

// redactURL rewrites any url.Error in the chain to carry the token-free
// request URL. url.Error messages embed the full URL, so without this the
// token would leak into log lines and wrapped errors.
func redactURL(err error, safeURL string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = safeURL
	}

	return err
}

func newDuckDNS(ctx context.Context, conf config.Config) (Interface, error) {
	ctx = log.SWith(ctx, "type", "duckdns")

	d := &duckdns{domain: conf.Domain, token: conf.Token}
	if err := common.WeakDecodeMap(conf.Publisher, d); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", conf.Publisher)
		return nil, fmt.Errorf(`bad config: %w`, err)
	}

	if d.Endpoint == "" {
		d.Endpoint = defaultEndpoint
	}
	if d.Timeout == 0 {
		d.Timeout = common.Duration(defaultPublishTimeout)
	}

	return d, nil
}
