// Package netreach provides the shared data model for the launcher's network
// discovery and reachability subsystem: network profiles, per-profile address
// sets, discovered shares, health-check results, and probe metrics.
//
// The model is deliberately thin. Discovery sessions, probing, and routing
// selection live in the subpackages:
//   - probe: single and batched TCP connect probes
//   - browse: DNS-SD service browsing/resolution via an external tool
//   - sweep: neighbor-table sweep with port classification
//   - discovery: the scan session that merges everything
//   - health: HTTP reachability checks and uptime metrics
//   - routing: preference-ordered reachability racing
package netreach

import (
	"strings"
	"time"
)

// Profile identifies a network context through which the same logical
// endpoint may be reached at a different address.
type Profile string

const (
	ProfileLocal     Profile = "local"
	ProfileTailscale Profile = "tailscale"
	ProfileVPN       Profile = "vpn"
	ProfileCustom    Profile = "custom"
)

// ProfileOrder is the fixed lookup preference order used by routing
// selection and health checks. Local addresses always win over overlay or
// tunnel addresses when both are reachable.
var ProfileOrder = []Profile{ProfileLocal, ProfileTailscale, ProfileVPN, ProfileCustom}

// NetworkAddressSet holds the per-profile addresses of one logical endpoint.
// Any slot may be empty; the model does not require a minimum, although an
// item with no address at all can never be reached.
type NetworkAddressSet struct {
	Local     string `json:"local,omitempty"`
	Tailscale string `json:"tailscale,omitempty"`
	VPN       string `json:"vpn,omitempty"`
	Custom    string `json:"custom,omitempty"`
}

// AddressFor returns the address configured for the given profile, or ""
// when the slot is empty or the profile is unknown.
func (s NetworkAddressSet) AddressFor(p Profile) string {
	switch p {
	case ProfileLocal:
		return s.Local
	case ProfileTailscale:
		return s.Tailscale
	case ProfileVPN:
		return s.VPN
	case ProfileCustom:
		return s.Custom
	}
	return ""
}

// Empty reports whether no profile has an address configured.
func (s NetworkAddressSet) Empty() bool {
	return s.Local == "" && s.Tailscale == "" && s.VPN == "" && s.Custom == ""
}

// Bookmark is the shape the launcher's item model exposes to this subsystem.
// Protocol, Port and Path are optional; Protocol defaults to "http" when a
// probe URL is built.
type Bookmark struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Protocol  string            `json:"protocol,omitempty"`
	Port      int               `json:"port,omitempty"`
	Path      string            `json:"path,omitempty"`
	Addresses NetworkAddressSet `json:"networkAddresses"`
}

// ShareType classifies a discovered network share by protocol.
type ShareType string

const (
	ShareSMB   ShareType = "smb"
	ShareAFP   ShareType = "afp"
	ShareNFS   ShareType = "nfs"
	ShareOther ShareType = "other"
)

// DiscoveryMethod identifies which scan path produced a share entry.
type DiscoveryMethod string

const (
	MethodDNSSD DiscoveryMethod = "dnssd"
	MethodSweep DiscoveryMethod = "sweep"
	MethodSSDP  DiscoveryMethod = "ssdp"
)

// DiscoveredShare is one network-attached service endpoint found during a
// discovery session. Entries live only for the duration of the session.
type DiscoveredShare struct {
	Name      string          `json:"name"`
	Type      ShareType       `json:"type"`
	Host      string          `json:"host"`
	Address   string          `json:"address,omitempty"` // resolved IP, when known
	OpenPorts []int           `json:"openPorts,omitempty"`
	MAC       string          `json:"mac,omitempty"`
	Vendor    string          `json:"vendor,omitempty"`
	Method    DiscoveryMethod `json:"method,omitempty"`
}

// Key returns the deduplication key for the session registry. Two entries
// with the same key describe the same share.
func (d DiscoveredShare) Key() string {
	return string(d.Type) + "-" + strings.ToLower(d.Host)
}

// HealthStatus classifies the outcome of a reachability check.
type HealthStatus string

const (
	StatusHealthy HealthStatus = "healthy"
	StatusWarning HealthStatus = "warning"
	StatusError   HealthStatus = "error"
	StatusUnknown HealthStatus = "unknown"
)

// HealthCheckResult is the last-known reachability state of one item. One
// result per (item, check); a new check overwrites the previous result.
type HealthCheckResult struct {
	ItemID       string       `json:"itemId"`
	URL          string       `json:"url,omitempty"`
	Status       HealthStatus `json:"status"`
	StatusCode   int          `json:"statusCode,omitempty"`
	ResponseTime int64        `json:"responseTime"` // milliseconds
	Error        string       `json:"error,omitempty"`
	CheckedAt    time.Time    `json:"checkedAt"`
}

// MetricDataPoint is one recorded probe outcome in an item's rolling
// history window.
type MetricDataPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	ResponseTime int64     `json:"responseTime"` // milliseconds
	Success      bool      `json:"success"`
}
