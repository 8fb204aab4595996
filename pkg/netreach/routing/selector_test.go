package routing

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuoli/go-netreach/pkg/netreach"
)

// okServer starts a test server answering 200 and returns its host and port.
func okServer(t *testing.T, handler http.HandlerFunc) (string, int) {
	t.Helper()

	if handler == nil {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return u.Hostname(), port
}

// closedPort returns a loopback port with nothing listening.
func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestFindFirstReachable_FailoverToSecondProfile(t *testing.T) {
	host, port := okServer(t, nil)

	s := NewSelector()
	s.Timeout = 2 * time.Second

	item := &netreach.Bookmark{
		ID:       "nas",
		Protocol: "http",
		Port:     port,
		Addresses: netreach.NetworkAddressSet{
			Local:     "127.0.0.2", // nothing listens there
			Tailscale: host,
		},
	}

	route := s.FindFirstReachable(context.Background(), item)
	require.NotNil(t, route)
	assert.Equal(t, netreach.ProfileTailscale, route.Profile)
	assert.Contains(t, route.URL, host)
}

func TestFindFirstReachable_PreferenceBeatsLatency(t *testing.T) {
	// One server, reached as 127.0.0.1 (local) and localhost (tailscale).
	// The local variant is slowed down so the tailscale probe settles
	// first; local must still win.
	host, port := okServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Host, "127.0.0.1") {
			time.Sleep(300 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	})
	require.Equal(t, "127.0.0.1", host)

	s := NewSelector()
	item := &netreach.Bookmark{
		ID:       "nas",
		Protocol: "http",
		Port:     port,
		Addresses: netreach.NetworkAddressSet{
			Local:     "127.0.0.1",
			Tailscale: "localhost",
		},
	}

	route := s.FindFirstReachable(context.Background(), item)
	require.NotNil(t, route)
	assert.Equal(t, netreach.ProfileLocal, route.Profile, "preference order wins over response latency")
}

func TestFindFirstReachable_NothingReachable(t *testing.T) {
	port := closedPort(t)

	s := NewSelector()
	s.Timeout = time.Second

	item := &netreach.Bookmark{
		ID:       "offline",
		Protocol: "http",
		Port:     port,
		Addresses: netreach.NetworkAddressSet{
			Local:     "127.0.0.1",
			Tailscale: "localhost",
		},
	}

	assert.Nil(t, s.FindFirstReachable(context.Background(), item))
}

func TestFindFirstReachable_ErrorStatusIsNotReachable(t *testing.T) {
	host, port := okServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	s := NewSelector()
	item := &netreach.Bookmark{
		ID:       "broken",
		Protocol: "http",
		Port:     port,
		Addresses: netreach.NetworkAddressSet{Local: host},
	}

	assert.Nil(t, s.FindFirstReachable(context.Background(), item))
}

func TestFindFirstReachable_NoConfiguredAddresses(t *testing.T) {
	s := NewSelector()
	assert.Nil(t, s.FindFirstReachable(context.Background(), &netreach.Bookmark{ID: "empty"}))
}

func TestFindFirstReachable_SkipsUnconfiguredProfiles(t *testing.T) {
	host, port := okServer(t, nil)

	s := NewSelector()
	item := &netreach.Bookmark{
		ID:       "vpn-only",
		Protocol: "http",
		Port:     port,
		Addresses: netreach.NetworkAddressSet{
			VPN: host,
		},
	}

	route := s.FindFirstReachable(context.Background(), item)
	require.NotNil(t, route)
	assert.Equal(t, netreach.ProfileVPN, route.Profile)
}
