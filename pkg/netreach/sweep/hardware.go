//go:build linux || darwin || freebsd || netbsd || openbsd

package sweep

import (
	"net"
	"time"

	"github.com/j-keck/arping"
)

const arpingTimeout = 1 * time.Second

// hardwareInfo resolves a neighbor's MAC address with an ARP ping and maps
// it to a hardware vendor. ARP may need elevated privileges; any failure
// leaves both fields empty.
func (s *Sweeper) hardwareInfo(ip string) (mac, vendor string) {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return "", ""
	}

	arping.SetTimeout(arpingTimeout)
	hw, _, err := arping.Ping(parsed)
	if err != nil {
		s.Log.Debug().Str("ip", ip).Err(err).Msg("arping failed")
		return "", ""
	}

	mac = hw.String()
	vendor = vendorName(mac)
	return mac, vendor
}
