package netreach

import (
	"strconv"
	"strings"
)

// defaultPorts maps a scheme to its well-known port. A bookmark port equal
// to the scheme default is omitted from built URLs.
var defaultPorts = map[string]int{
	"http":       80,
	"https":      443,
	"ftp":        21,
	"ssh":        22,
	"smb":        445,
	"afp":        548,
	"nfs":        2049,
	"rdp":        3389,
	"vnc":        5900,
	"postgresql": 5432,
	"mysql":      3306,
	"redis":      6379,
	"mongodb":    27017,
}

// nonProbeableSchemes lists protocols for which an HTTP reachability probe
// is meaningless: file shares, databases, terminals, deep links into local
// applications, and mail. Items using them are assumed available.
var nonProbeableSchemes = map[string]struct{}{
	"smb":        {},
	"afp":        {},
	"nfs":        {},
	"ftp":        {},
	"sftp":       {},
	"ssh":        {},
	"rdp":        {},
	"vnc":        {},
	"postgresql": {},
	"mysql":      {},
	"redis":      {},
	"mongodb":    {},
	"vscode":     {},
	"cursor":     {},
	"jetbrains":  {},
	"slack":      {},
	"discord":    {},
	"zoommtg":    {},
	"mailto":     {},
	"smtp":       {},
	"imap":       {},
	"spotify":    {},
	"steam":      {},
	"file":       {},
}

// DefaultPort returns the well-known port for a scheme, or 0 when none is
// registered.
func DefaultPort(scheme string) int {
	return defaultPorts[strings.ToLower(scheme)]
}

// Probeable reports whether a protocol can meaningfully answer an HTTP
// reachability probe.
func Probeable(protocol string) bool {
	_, blocked := nonProbeableSchemes[strings.ToLower(protocol)]
	return !blocked
}

// BuildProbeURL builds the probe URL for one profile of a bookmark's address
// set. Returns ok=false when the profile has no address configured.
//
// Rules: a host containing ":" is bracketed unless already bracketed (IPv6
// literals); the port is omitted when it equals the scheme's well-known
// default; a non-rooted path gets a leading "/".
func BuildProbeURL(b *Bookmark, profile Profile) (string, bool) {
	host := b.Addresses.AddressFor(profile)
	if host == "" {
		return "", false
	}

	scheme := strings.ToLower(b.Protocol)
	if scheme == "" {
		scheme = "http"
	}

	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}

	var sb strings.Builder
	sb.WriteString(scheme)
	sb.WriteString("://")
	sb.WriteString(host)
	if b.Port > 0 && b.Port != DefaultPort(scheme) {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(b.Port))
	}
	if b.Path != "" {
		if !strings.HasPrefix(b.Path, "/") {
			sb.WriteString("/")
		}
		sb.WriteString(b.Path)
	}
	return sb.String(), true
}
