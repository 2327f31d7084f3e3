package resolver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"duckdns6/common"
	"duckdns6/config"
	"duckdns6/log"
	"duckdns6/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCtx() context.Context {
	return log.WithLogger(context.Background(), zap.NewNop())
}

func newExternal(t *testing.T, url string, options map[string]any) resolver.Interface {
	t.Helper()
	source, err := resolver.Sources[common.MethodExternal](testCtx(), config.Config{
		IPServiceURL: url,
		Resolver:     options,
	})
	require.NoError(t, err)
	return source
}

func TestExternalReturnsServiceBody(t *testing.T) {
	t.Parallel()

	for _, tc := range [...]struct {
		name string
		body string
		want string
	}{
		{"plain", "2001:db8::1", "2001:db8::1"},
		{"trailing newline", "2001:db8::1\n", "2001:db8::1"},
		{"surrounding whitespace", "  2001:db8:0:1::5\t\n", "2001:db8:0:1::5"},
		{"full form", "2001:0db8:0000:0000:0000:0000:0000:0002", "2001:db8::2"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			ip, err := newExternal(t, srv.URL, nil).Lookup(testCtx())
			require.NoError(t, err)
			assert.Equal(t, tc.want, ip.String())
		})
	}
}

func TestExternalRejectsNonIPv6Body(t *testing.T) {
	t.Parallel()

	for _, tc := range [...]struct {
		name string
		body string
	}{
		{"empty", ""},
		{"ipv4", "203.0.113.7"},
		{"ipv4 mapped", "::ffff:203.0.113.7"},
		{"garbage", "<html>service unavailable</html>"},
		{"zoned", "fe80::1%eth0"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newExternal(t, srv.URL, nil).Lookup(testCtx())
			assert.ErrorIs(t, err, resolver.ErrInvalidAddress)
		})
	}
}

func TestExternalBadStatusIsTransport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newExternal(t, srv.URL, nil).Lookup(testCtx())
	assert.ErrorIs(t, err, resolver.ErrTransport)
}

func TestExternalConnectionFailureIsTransport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := newExternal(t, srv.URL, nil).Lookup(testCtx())
	assert.ErrorIs(t, err, resolver.ErrTransport)
}

func TestExternalTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte("2001:db8::1"))
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newExternal(t, srv.URL, map[string]any{"timeout": "50ms"}).Lookup(testCtx())
	assert.ErrorIs(t, err, resolver.ErrTransport)
	assert.Less(t, time.Since(start), 5*time.Second)
}
