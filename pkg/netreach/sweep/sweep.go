// Package sweep discovers LAN neighbors from the system's address-resolution
// table. Each neighbor is port-probed to guess a share type, reverse-resolved
// for a display name, and enriched with its MAC address and hardware vendor
// where the platform allows.
//
// Everything here is best-effort: a neighbor that fails a probe or a lookup
// is skipped or kept with degraded fields, never an error for the sweep.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"

	"github.com/marcuoli/go-netreach/pkg/netreach"
	"github.com/marcuoli/go-netreach/pkg/netreach/probe"
)

const (
	// DefaultLookupTimeout bounds one reverse DNS lookup.
	DefaultLookupTimeout = 2 * time.Second
	// defaultResolvConf is where the system resolver is read from.
	defaultResolvConf = "/etc/resolv.conf"
)

// parenIPv4Re matches the parenthesized IPv4 literals in "arp -a" style
// neighbor-table output, e.g. "nas.lan (192.168.1.42) at aa:bb:... on eth0".
var parenIPv4Re = regexp.MustCompile(`\((\d{1,3}(?:\.\d{1,3}){3})\)`)

// Sweeper walks the neighbor table and classifies live hosts.
type Sweeper struct {
	// Command and Args produce the neighbor table ("arp -a" by default).
	Command string
	Args    []string
	// Prober performs the per-neighbor port probes.
	Prober *probe.Prober
	// Ports is the probe list applied to every neighbor.
	Ports []int
	// LookupTimeout bounds each reverse DNS lookup.
	LookupTimeout time.Duration
	// ResolvConf is the resolver configuration file consulted for PTR
	// queries.
	ResolvConf string

	Log zerolog.Logger
}

// NewSweeper creates a sweeper with defaults and no logging.
func NewSweeper() *Sweeper {
	return &Sweeper{
		Command:       "arp",
		Args:          []string{"-a"},
		Prober:        probe.NewProber(),
		Ports:         netreach.BasicPorts,
		LookupTimeout: DefaultLookupTimeout,
		ResolvConf:    defaultResolvConf,
		Log:           zerolog.Nop(),
	}
}

// Sweep reads the neighbor table and inspects every usable entry
// concurrently, handing each classified share to add. Hosts with no open
// basic port are dropped. An error is returned only when the neighbor table
// itself cannot be read.
func (s *Sweeper) Sweep(ctx context.Context, add func(netreach.DiscoveredShare)) error {
	out, err := exec.CommandContext(ctx, s.Command, s.Args...).Output()
	if err != nil {
		return fmt.Errorf("read neighbor table: %w", err)
	}

	ips := extractNeighborIPs(string(out))
	s.Log.Debug().Int("neighbors", len(ips)).Msg("sweeping neighbor table")

	var wg sync.WaitGroup
	for _, ip := range ips {
		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			if share, ok := s.inspect(ctx, ip); ok {
				add(share)
			}
		}(ip)
	}
	wg.Wait()
	return nil
}

// inspect probes one neighbor and builds its share entry. ok is false when
// the host exposes none of the basic ports.
func (s *Sweeper) inspect(ctx context.Context, ip string) (netreach.DiscoveredShare, bool) {
	ports := s.Ports
	if len(ports) == 0 {
		ports = netreach.BasicPorts
	}
	open := s.Prober.ProbePorts(ctx, ip, ports)
	if len(open) == 0 {
		return netreach.DiscoveredShare{}, false
	}

	host := ip
	if name, err := s.reverseLookup(ctx, ip); err == nil && name != "" {
		host = name
	} else if err != nil {
		s.Log.Debug().Str("ip", ip).Err(err).Msg("reverse lookup failed, keeping raw IP")
	}

	mac, vendor := s.hardwareInfo(ip)

	share := netreach.DiscoveredShare{
		Name:      displayName(host),
		Type:      netreach.ClassifyPorts(open),
		Host:      host,
		Address:   ip,
		OpenPorts: open,
		MAC:       mac,
		Vendor:    vendor,
		Method:    netreach.MethodSweep,
	}
	s.Log.Debug().
		Str("ip", ip).
		Str("host", host).
		Str("type", string(share.Type)).
		Ints("openPorts", open).
		Msg("neighbor classified")
	return share, true
}

// reverseLookup answers the PTR record for ip via the system resolver.
func (s *Sweeper) reverseLookup(ctx context.Context, ip string) (string, error) {
	rev, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", err
	}

	resolvConf := s.ResolvConf
	if resolvConf == "" {
		resolvConf = defaultResolvConf
	}
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		return "", fmt.Errorf("resolver config: %w", err)
	}
	if len(cfg.Servers) == 0 {
		return "", errors.New("resolver config lists no servers")
	}

	msg := new(dns.Msg)
	msg.SetQuestion(rev, dns.TypePTR)

	client := &dns.Client{Timeout: s.LookupTimeout}
	for _, server := range cfg.Servers {
		resp, _, err := client.ExchangeContext(ctx, msg, net.JoinHostPort(server, cfg.Port))
		if err != nil {
			continue
		}
		for _, rr := range resp.Answer {
			if ptr, ok := rr.(*dns.PTR); ok {
				return strings.TrimSuffix(ptr.Ptr, "."), nil
			}
		}
	}
	return "", fmt.Errorf("no PTR record for %s", ip)
}

// extractNeighborIPs pulls the usable IPv4 addresses out of neighbor-table
// output, dropping multicast and broadcast entries and duplicates.
func extractNeighborIPs(table string) []string {
	seen := make(map[string]struct{})
	var ips []string
	for _, m := range parenIPv4Re.FindAllStringSubmatch(table, -1) {
		ip := m[1]
		if net.ParseIP(ip) == nil {
			continue
		}
		if skipNeighbor(ip) {
			continue
		}
		if _, dup := seen[ip]; dup {
			continue
		}
		seen[ip] = struct{}{}
		ips = append(ips, ip)
	}
	return ips
}

// skipNeighbor filters multicast (224.x, 239.x) and broadcast (*.255)
// addresses, which show up in ARP tables but are never real shares.
func skipNeighbor(ip string) bool {
	if strings.HasPrefix(ip, "224.") || strings.HasPrefix(ip, "239.") {
		return true
	}
	return strings.HasSuffix(ip, ".255")
}

// displayName reduces a resolved hostname to its first label. An IP literal
// is returned unchanged.
func displayName(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}
