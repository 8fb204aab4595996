//go:build windows

package sweep

// hardwareInfo is a no-op on Windows: the arping library only supports
// raw-socket ARP on unix-like platforms.
func (s *Sweeper) hardwareInfo(string) (mac, vendor string) {
	return "", ""
}
