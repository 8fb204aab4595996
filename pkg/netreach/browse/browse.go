// Package browse discovers DNS-SD service instances by driving an external
// discovery tool (dns-sd or a compatible binary) in its streaming browse
// mode, and resolves instances to host:port endpoints with the same tool's
// lookup mode.
//
// The subprocess lifetime is tied to the calling context: cancelling the
// context kills the tool. All failures are non-fatal to a scan; a browse
// path that cannot start simply discovers nothing.
package browse

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultResolveTimeout bounds one instance resolution. Resolutions
	// started near the end of a browse window may outlive it by at most
	// this much.
	DefaultResolveTimeout = 3 * time.Second

	// pipeGrace bounds how long a killed tool's orphaned children may keep
	// its output pipe open before it is force-closed.
	pipeGrace = 2 * time.Second
)

// Endpoint is a resolved service instance location.
type Endpoint struct {
	Host string
	Port int
}

// Browser drives the external DNS-SD tool.
type Browser struct {
	// Command is the discovery binary. It must support dns-sd style
	// "-B <type> <domain>" browsing and "-L <instance> <type> <domain>"
	// resolution.
	Command string
	// Domain is the browse domain, usually "local.".
	Domain string
	// ResolveTimeout bounds a single Resolve call.
	ResolveTimeout time.Duration

	Log zerolog.Logger
}

// NewBrowser creates a browser with defaults and no logging.
func NewBrowser() *Browser {
	return &Browser{
		Command:        "dns-sd",
		Domain:         "local.",
		ResolveTimeout: DefaultResolveTimeout,
		Log:            zerolog.Nop(),
	}
}

// Browse streams "service added" events for one service type for the given
// duration, calling found for every instance name seen. It returns once the
// duration elapses and the subprocess has been killed; resolutions triggered
// by found may still be in flight and are the caller's to track.
//
// A tool that cannot be started is reported as an error; the caller treats
// it as "this path discovered nothing".
func (b *Browser) Browse(ctx context.Context, serviceType string, duration time.Duration, found func(instance string)) error {
	bctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	cmd := exec.CommandContext(bctx, b.Command, "-B", serviceType, b.Domain)
	cmd.WaitDelay = pipeGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("browse %s: %w", serviceType, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("browse %s: start %s: %w", serviceType, b.Command, err)
	}

	b.Log.Debug().Str("type", serviceType).Dur("duration", duration).Msg("browsing")

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			instance, ok := parseBrowseLine(scanner.Text(), serviceType)
			if !ok {
				continue
			}
			b.Log.Debug().Str("type", serviceType).Str("instance", instance).Msg("service added")
			found(instance)
		}
	}()

	select {
	case <-done:
	case <-bctx.Done():
	}

	// Wait kills the tool via the context and force-closes the pipe after
	// the grace period, which also unblocks the scan goroutine.
	_ = cmd.Wait()
	<-done
	return nil
}

// Resolve looks up one instance's host and port. It returns (nil, nil) when
// the tool produced no parseable answer within the timeout. The tool is
// killed as soon as a line matches.
func (b *Browser) Resolve(ctx context.Context, instance, serviceType, domain string) (*Endpoint, error) {
	timeout := b.ResolveTimeout
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}

	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(rctx, b.Command, "-L", instance, serviceType, domain)
	cmd.WaitDelay = pipeGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", instance, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("resolve %s: start %s: %w", instance, b.Command, err)
	}

	resolved := make(chan Endpoint, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if ep, ok := parseResolveLine(scanner.Text()); ok {
				resolved <- ep
				return
			}
		}
	}()

	var (
		ep    *Endpoint
		found bool
	)
	select {
	case got := <-resolved:
		ep, found = &got, true
	case <-done:
	case <-rctx.Done():
	}

	cancel()
	_ = cmd.Wait()
	<-done

	if !found {
		// A late match may have landed between the select and the kill.
		select {
		case got := <-resolved:
			ep = &got
		default:
			b.Log.Debug().Str("instance", instance).Msg("resolution produced no endpoint")
		}
	}
	if ep != nil {
		b.Log.Debug().Str("instance", instance).Str("host", ep.Host).Int("port", ep.Port).Msg("resolved")
	}
	return ep, nil
}

// parseBrowseLine extracts the instance name from a dns-sd browse event
// line. Only "Add" events for the requested service type match; the name is
// whatever follows the service-type token.
func parseBrowseLine(line, serviceType string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[1] != "Add" {
		return "", false
	}

	_, rest, ok := strings.Cut(line, serviceType)
	if !ok {
		return "", false
	}

	// dns-sd prints the type fully qualified ("_smb._tcp." ...).
	rest = strings.TrimPrefix(rest, ".")
	name := strings.TrimSuffix(strings.TrimSpace(rest), ".")
	if name == "" {
		return "", false
	}
	return name, true
}

var reachedAtRe = regexp.MustCompile(`can be reached at\s+(\S+):(\d+)`)

// parseResolveLine extracts host and port from one line of resolver output.
// Two formats are supported, first match wins:
//
//  1. human-readable: "... can be reached at host:port ..."
//  2. columnar SRV fallback: "... priority weight port target"
func parseResolveLine(line string) (Endpoint, bool) {
	if m := reachedAtRe.FindStringSubmatch(line); m != nil {
		port, err := strconv.Atoi(m[2])
		if err == nil && validPort(port) {
			return Endpoint{Host: strings.TrimSuffix(m[1], "."), Port: port}, true
		}
	}

	fields := strings.Fields(line)
	if len(fields) >= 4 {
		port, err := strconv.Atoi(fields[len(fields)-2])
		if err == nil && validPort(port) {
			host := strings.TrimSuffix(fields[len(fields)-1], ".")
			return Endpoint{Host: host, Port: port}, true
		}
	}

	return Endpoint{}, false
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
