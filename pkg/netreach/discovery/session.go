// Package discovery orchestrates one share-discovery session. A session runs
// the DNS-SD browser across the configured service types, the neighbor-table
// sweep, and an SSDP search concurrently for a bounded duration, merging and
// deduplicating everything into one registry.
//
// A Session supports one scan at a time. Results live only in memory and are
// replaced by the next scan.
package discovery

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gossdp "github.com/koron/go-ssdp"
	"github.com/rs/zerolog"

	"github.com/marcuoli/go-netreach/pkg/netreach"
	"github.com/marcuoli/go-netreach/pkg/netreach/browse"
	"github.com/marcuoli/go-netreach/pkg/netreach/sweep"
)

const (
	// DefaultScanDuration bounds a scan when the caller does not.
	DefaultScanDuration = 5 * time.Second
	// forwardLookupTimeout bounds the forward DNS lookup that turns a
	// resolved hostname into an IP for merging.
	forwardLookupTimeout = 2 * time.Second
)

// DefaultServiceTypes are the DNS-SD service types browsed by default.
var DefaultServiceTypes = []string{"_smb._tcp", "_afpovertcp._tcp", "_nfs._tcp"}

// ErrScanInProgress is returned when ScanForShares is called while a
// previous scan on the same session has not finished.
var ErrScanInProgress = errors.New("discovery: scan already in progress")

// Session owns the state of share discovery: the share registry, the set of
// in-flight resolutions, and the cancellation hook that tears down every
// subprocess the scan spawned.
type Session struct {
	Browser      *browse.Browser
	Sweeper      *sweep.Sweeper
	ServiceTypes []string
	// EnableSSDP adds an SSDP/UPnP search alongside the DNS-SD and sweep
	// paths; responders merge as "other" shares.
	EnableSSDP bool

	Log zerolog.Logger

	mu        sync.Mutex
	registry  map[string]*netreach.DiscoveredShare
	resolving map[string]struct{} // in-flight (instance, type) resolutions
	pending   sync.WaitGroup
	cancel    context.CancelFunc
	scanning  bool
}

// NewSession creates a session with default browser, sweeper, and service
// types, and no logging.
func NewSession() *Session {
	return &Session{
		Browser:      browse.NewBrowser(),
		Sweeper:      sweep.NewSweeper(),
		ServiceTypes: DefaultServiceTypes,
		EnableSSDP:   true,
		Log:          zerolog.Nop(),
		registry:     make(map[string]*netreach.DiscoveredShare),
		resolving:    make(map[string]struct{}),
	}
}

// ScanForShares runs one bounded discovery pass and returns the merged
// shares. The browse and sweep paths run concurrently for duration; after
// they return, resolutions still in flight are awaited (each is individually
// bounded by the resolver timeout, so the grace period is bounded too).
//
// Only one scan per session may run at a time; a second concurrent call
// fails with ErrScanInProgress.
func (s *Session) ScanForShares(ctx context.Context, duration time.Duration) ([]netreach.DiscoveredShare, error) {
	if duration <= 0 {
		duration = DefaultScanDuration
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		cancel()
		return nil, ErrScanInProgress
	}
	s.scanning = true
	s.cancel = cancel
	s.registry = make(map[string]*netreach.DiscoveredShare)
	s.resolving = make(map[string]struct{})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	log := s.Log.With().Str("scan", uuid.NewString()).Logger()
	log.Debug().Dur("duration", duration).Strs("serviceTypes", s.ServiceTypes).Msg("scan started")

	var wg sync.WaitGroup

	for _, serviceType := range s.ServiceTypes {
		wg.Add(1)
		go func(serviceType string) {
			defer wg.Done()
			err := s.Browser.Browse(scanCtx, serviceType, duration, func(instance string) {
				s.startResolution(scanCtx, instance, serviceType, log)
			})
			if err != nil {
				log.Warn().Str("type", serviceType).Err(err).Msg("browse path unavailable")
			}
		}(serviceType)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweepCtx, sweepCancel := context.WithTimeout(scanCtx, duration)
		defer sweepCancel()
		if err := s.Sweeper.Sweep(sweepCtx, s.mergeSwept); err != nil {
			log.Warn().Err(err).Msg("neighbor sweep unavailable")
		}
	}()

	if s.EnableSSDP {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.searchSSDP(duration, log)
		}()
	}

	wg.Wait()
	s.pending.Wait()

	shares := s.Shares()
	log.Debug().Int("shares", len(shares)).Msg("scan complete")
	return shares, nil
}

// StopScanning cancels the active scan: every subprocess spawned by it is
// killed through the shared context and in-flight resolutions abort without
// being awaited. The registry is not guaranteed consistent when a scan is
// stopped midway.
func (s *Session) StopScanning() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		s.Log.Debug().Msg("stopping scan")
		cancel()
	}
}

// Shares returns a snapshot of the registry, ordered by dedup key.
func (s *Session) Shares() []netreach.DiscoveredShare {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.registry))
	for k := range s.registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	shares := make([]netreach.DiscoveredShare, 0, len(keys))
	for _, k := range keys {
		shares = append(shares, *s.registry[k])
	}
	return shares
}

// startResolution kicks off an asynchronous instance resolution, tracked so
// the scan can await it after the browse window closes. Duplicate events for
// an instance already being resolved are dropped.
func (s *Session) startResolution(ctx context.Context, instance, serviceType string, log zerolog.Logger) {
	key := serviceType + "\x00" + instance

	s.mu.Lock()
	if _, inFlight := s.resolving[key]; inFlight {
		s.mu.Unlock()
		return
	}
	s.resolving[key] = struct{}{}
	s.mu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			s.mu.Lock()
			delete(s.resolving, key)
			s.mu.Unlock()
		}()

		ep, err := s.Browser.Resolve(ctx, instance, serviceType, s.Browser.Domain)
		if err != nil {
			log.Warn().Str("instance", instance).Err(err).Msg("resolution unavailable")
			return
		}
		if ep == nil {
			return
		}

		share := netreach.DiscoveredShare{
			Name:    instance,
			Type:    shareTypeFor(serviceType),
			Host:    ep.Host,
			Address: forwardLookup(ctx, ep.Host),
			Method:  netreach.MethodDNSSD,
		}
		s.mergeResolved(share)
	}()
}

// mergeResolved inserts a share produced by DNS-SD resolution. Resolution is
// authoritative for name and host: a registry entry matching by key, IP, or
// hostname is folded into the resolved identity, keeping its probed ports
// and hardware fields.
func (s *Session) mergeResolved(share netreach.DiscoveredShare) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := share.Key()
	if existing, ok := s.registry[key]; ok {
		existing.Name = share.Name
		existing.Host = share.Host
		if existing.Address == "" {
			existing.Address = share.Address
		}
		existing.Method = share.Method
		return
	}

	if prevKey, prev := s.findMatchLocked(share); prev != nil {
		share.OpenPorts = prev.OpenPorts
		share.MAC = prev.MAC
		share.Vendor = prev.Vendor
		if share.Address == "" {
			share.Address = prev.Address
		}
		delete(s.registry, prevKey)
	}
	s.registry[key] = &share
}

// mergeSwept inserts a share produced by the neighbor sweep. When an entry
// for the same host already exists, the sweep only backfills what resolution
// could not know: open ports, MAC, vendor, and the raw IP.
func (s *Session) mergeSwept(share netreach.DiscoveredShare) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.registry[share.Key()]
	if target == nil {
		_, target = s.findMatchLocked(share)
	}
	if target == nil {
		s.registry[share.Key()] = &share
		return
	}

	if len(target.OpenPorts) == 0 {
		target.OpenPorts = share.OpenPorts
	}
	if target.MAC == "" {
		target.MAC = share.MAC
	}
	if target.Vendor == "" {
		target.Vendor = share.Vendor
	}
	if target.Address == "" {
		target.Address = share.Address
	}
}

// findMatchLocked locates an existing entry describing the same endpoint as
// share, matching by resolved IP first and hostname second. Callers hold mu.
func (s *Session) findMatchLocked(share netreach.DiscoveredShare) (string, *netreach.DiscoveredShare) {
	for key, entry := range s.registry {
		if share.Address != "" && entry.Address == share.Address {
			return key, entry
		}
		if share.Host != "" && strings.EqualFold(entry.Host, share.Host) {
			return key, entry
		}
	}
	return "", nil
}

// searchSSDP runs one SSDP search bounded by the scan duration and merges
// responders as "other" shares. go-ssdp has no context support; the wait is
// bounded by duration, so a stopped scan at worst discards the results.
func (s *Session) searchSSDP(duration time.Duration, log zerolog.Logger) {
	waitSec := int(duration / time.Second)
	if waitSec < 1 {
		waitSec = 1
	}

	services, err := gossdp.Search(gossdp.All, waitSec, "")
	if err != nil {
		log.Warn().Err(err).Msg("ssdp search unavailable")
		return
	}

	seen := make(map[string]struct{})
	for _, svc := range services {
		host := ssdpHost(svc.Location)
		if host == "" {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}

		share := netreach.DiscoveredShare{
			Name:   host,
			Type:   netreach.ShareOther,
			Host:   host,
			Method: netreach.MethodSSDP,
		}
		if net.ParseIP(host) != nil {
			share.Address = host
		}
		s.mergeSwept(share)
	}
}

// ssdpHost extracts the bare host from an SSDP Location URL.
func ssdpHost(location string) string {
	rest := location
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	host, _, err := net.SplitHostPort(rest)
	if err != nil {
		return rest
	}
	return host
}

// shareTypeFor maps a DNS-SD service type to the share classification.
func shareTypeFor(serviceType string) netreach.ShareType {
	switch {
	case strings.HasPrefix(serviceType, "_smb."):
		return netreach.ShareSMB
	case strings.HasPrefix(serviceType, "_afpovertcp."):
		return netreach.ShareAFP
	case strings.HasPrefix(serviceType, "_nfs."):
		return netreach.ShareNFS
	default:
		return netreach.ShareOther
	}
}

// forwardLookup resolves a hostname to its first address, best-effort.
func forwardLookup(ctx context.Context, host string) string {
	if net.ParseIP(host) != nil {
		return host
	}

	lctx, cancel := context.WithTimeout(ctx, forwardLookupTimeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(lctx, host)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a
		}
	}
	return addrs[0]
}
