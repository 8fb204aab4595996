package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/marcuoli/go-netreach/pkg/netreach"
	"github.com/marcuoli/go-netreach/pkg/netreach/discovery"
	"github.com/marcuoli/go-netreach/pkg/netreach/health"
	"github.com/marcuoli/go-netreach/pkg/netreach/probe"
	"github.com/marcuoli/go-netreach/pkg/netreach/routing"
)

var (
	debug bool
	log   zerolog.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "netreach",
		Short:         "Discover network shares and race bookmark addresses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := zerolog.InfoLevel
			if debug {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(scanCmd())
	root.AddCommand(portsCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(routeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func scanCmd() *cobra.Command {
	var (
		duration time.Duration
		domain   string
		ssdp     bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the local network for file shares",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := discovery.NewSession()
			session.Log = log
			session.Browser.Domain = domain
			session.EnableSSDP = ssdp

			shares, err := session.ScanForShares(cmd.Context(), duration)
			if err != nil {
				return err
			}

			if len(shares) == 0 {
				fmt.Println("no shares found")
				return nil
			}
			for _, s := range shares {
				vendor := s.Vendor
				if vendor == "" {
					vendor = "-"
				}
				fmt.Printf("%-6s %-30s %-16s ports=%v vendor=%s via=%s\n",
					s.Type, s.Name, s.Address, s.OpenPorts, vendor, s.Method)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", discovery.DefaultScanDuration, "How long to browse and sweep")
	cmd.Flags().StringVar(&domain, "domain", "local.", "DNS-SD browse domain")
	cmd.Flags().BoolVar(&ssdp, "ssdp", false, "Also search via SSDP")
	return cmd
}

func portsCmd() *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   "ports <host>",
		Short: "Probe a host's TCP ports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := resolvePortSet(set)
			if err != nil {
				return err
			}

			open := probe.NewProber().ProbePorts(cmd.Context(), args[0], ports)
			sort.Ints(open)
			if len(open) == 0 {
				fmt.Println("no open ports")
				return nil
			}
			for _, p := range open {
				fmt.Println(p)
			}
			fmt.Printf("classified as: %s\n", netreach.ClassifyPorts(open))
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "basic", `Port set: "basic", "deep", or a comma-separated list`)
	return cmd
}

func checkCmd() *cobra.Command {
	var (
		item    bookmarkFlags
		profile string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Health-check a bookmark address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bookmark, err := item.bookmark()
			if err != nil {
				return err
			}

			checker := health.NewChecker()
			checker.Log = log
			result := checker.CheckBookmark(cmd.Context(), bookmark, netreach.Profile(profile))

			fmt.Printf("status:   %s\n", result.Status)
			if result.URL != "" {
				fmt.Printf("url:      %s\n", result.URL)
			}
			if result.StatusCode != 0 {
				fmt.Printf("code:     %d\n", result.StatusCode)
			}
			fmt.Printf("latency:  %dms\n", result.ResponseTime)
			if result.Error != "" {
				fmt.Printf("error:    %s\n", result.Error)
			}
			fmt.Printf("uptime:   %.0f%%\n", checker.Uptime(bookmark.ID))

			if result.Status == netreach.StatusError {
				os.Exit(1)
			}
			return nil
		},
	}

	item.register(cmd)
	cmd.Flags().StringVar(&profile, "profile", string(netreach.ProfileLocal), "Profile to check (local, tailscale, vpn, custom)")
	return cmd
}

func routeCmd() *cobra.Command {
	var item bookmarkFlags

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Pick the first reachable address variant, in preference order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bookmark, err := item.bookmark()
			if err != nil {
				return err
			}

			selector := routing.NewSelector()
			selector.Log = log
			route := selector.FindFirstReachable(cmd.Context(), bookmark)
			if route == nil {
				fmt.Println("unreachable")
				os.Exit(1)
			}
			fmt.Printf("%s %s\n", route.Profile, route.URL)
			return nil
		},
	}

	item.register(cmd)
	return cmd
}

// bookmarkFlags are the flags shared by check and route for describing a
// bookmark on the command line.
type bookmarkFlags struct {
	local     string
	tailscale string
	vpn       string
	custom    string
	protocol  string
	port      int
	path      string
}

func (b *bookmarkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.local, "local", "", "Local network address")
	cmd.Flags().StringVar(&b.tailscale, "tailscale", "", "Tailscale address")
	cmd.Flags().StringVar(&b.vpn, "vpn", "", "VPN address")
	cmd.Flags().StringVar(&b.custom, "custom", "", "Custom address")
	cmd.Flags().StringVar(&b.protocol, "protocol", "http", "URL scheme")
	cmd.Flags().IntVar(&b.port, "port", 0, "Port (0 = scheme default)")
	cmd.Flags().StringVar(&b.path, "path", "", "URL path")
}

func (b *bookmarkFlags) bookmark() (*netreach.Bookmark, error) {
	addresses := netreach.NetworkAddressSet{
		Local:     b.local,
		Tailscale: b.tailscale,
		VPN:       b.vpn,
		Custom:    b.custom,
	}
	if addresses.Empty() {
		return nil, fmt.Errorf("at least one of --local, --tailscale, --vpn, --custom is required")
	}
	return &netreach.Bookmark{
		ID:        "cli",
		Protocol:  b.protocol,
		Port:      b.port,
		Path:      b.path,
		Addresses: addresses,
	}, nil
}

// resolvePortSet accepts a named set or a comma-separated port list.
func resolvePortSet(set string) ([]int, error) {
	if ports, err := netreach.PortSet(set); err == nil {
		return ports, nil
	}

	parts := strings.Split(set, ",")
	ports := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 || v > 65535 {
			return nil, fmt.Errorf("invalid port: %q", p)
		}
		ports = append(ports, v)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("ports list is empty")
	}
	return ports, nil
}
