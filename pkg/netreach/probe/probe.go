// Package probe implements single and batched TCP connect probes. A connect
// probe needs no raw sockets or elevated privileges, so it works the same on
// every platform. Timeouts and connection refusals are indistinguishable to
// callers: both mean "closed or unreachable".
package probe

import (
	"context"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultTimeout is the per-port dial timeout.
	DefaultTimeout = 2 * time.Second
	// DefaultConcurrency is the batch size for multi-port probes. Ports are
	// probed in fixed-size batches to bound open sockets per host.
	DefaultConcurrency = 10
)

// Prober performs TCP connect probes.
type Prober struct {
	Timeout     time.Duration
	Concurrency int
}

// NewProber creates a prober with defaults.
func NewProber() *Prober {
	return &Prober{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
	}
}

// Probe reports whether host:port accepts a TCP connection within the
// timeout. The socket is always closed before returning.
func (p *Prober) Probe(ctx context.Context, host string, port int) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// ProbePorts probes the given ports in fixed-size concurrent batches and
// returns the open ones sorted ascending. Batches run strictly in submission
// order; probes within a batch are unordered relative to each other.
func (p *Prober) ProbePorts(ctx context.Context, host string, ports []int) []int {
	batch := p.Concurrency
	if batch <= 0 {
		batch = DefaultConcurrency
	}

	var (
		mu   sync.Mutex
		open []int
	)

	for i := 0; i < len(ports); i += batch {
		end := i + batch
		if end > len(ports) {
			end = len(ports)
		}

		var wg sync.WaitGroup
		for _, port := range ports[i:end] {
			wg.Add(1)
			go func(port int) {
				defer wg.Done()
				if p.Probe(ctx, host, port) {
					mu.Lock()
					open = append(open, port)
					mu.Unlock()
				}
			}(port)
		}
		wg.Wait()

		select {
		case <-ctx.Done():
			sort.Ints(open)
			return open
		default:
		}
	}

	sort.Ints(open)
	return open
}
