package netreach

import "fmt"

// BasicPorts is the canned list used by the neighbor sweep and by callers
// that only care about common services.
var BasicPorts = []int{22, 80, 139, 443, 445, 548, 2049, 3389, 8080}

// DeepPorts extends BasicPorts with dev-server and database ports for a
// slower, more thorough scan.
var DeepPorts = []int{
	21, 22, 25, 53, 80, 110, 139, 143, 443, 445, 548,
	1433, 2049, 3000, 3306, 3389, 5000, 5173, 5432, 5900,
	6379, 8000, 8080, 8443, 27017,
}

// PortSet resolves a canned port-list name. Callers with an explicit list
// should pass it to the prober directly instead.
func PortSet(name string) ([]int, error) {
	switch name {
	case "basic":
		return BasicPorts, nil
	case "deep":
		return DeepPorts, nil
	default:
		return nil, fmt.Errorf("unknown port set %q", name)
	}
}

// ClassifyPorts guesses a share type from a host's open ports. Precedence is
// fixed: SMB (445/139) before AFP (548) before NFS (2049).
func ClassifyPorts(open []int) ShareType {
	has := func(want int) bool {
		for _, p := range open {
			if p == want {
				return true
			}
		}
		return false
	}
	switch {
	case has(445) || has(139):
		return ShareSMB
	case has(548):
		return ShareAFP
	case has(2049):
		return ShareNFS
	default:
		return ShareOther
	}
}
