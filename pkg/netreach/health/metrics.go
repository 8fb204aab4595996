package health

import (
	"sync"

	"github.com/marcuoli/go-netreach/pkg/netreach"
)

// MaxHistoryPoints caps the per-item metrics window. Once full, recording
// evicts the oldest point first.
const MaxHistoryPoints = 100

// History keeps a bounded per-item record of past probe outcomes, used to
// compute rolling uptime.
type History struct {
	mu     sync.Mutex
	points map[string][]netreach.MetricDataPoint
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{points: make(map[string][]netreach.MetricDataPoint)}
}

// Record appends one outcome to an item's history, evicting the oldest
// point when the window is full.
func (h *History) Record(itemID string, point netreach.MetricDataPoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pts := append(h.points[itemID], point)
	if len(pts) > MaxHistoryPoints {
		pts = pts[len(pts)-MaxHistoryPoints:]
	}
	h.points[itemID] = pts
}

// Points returns a copy of an item's retained history, oldest first.
func (h *History) Points(itemID string) []netreach.MetricDataPoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	pts := h.points[itemID]
	out := make([]netreach.MetricDataPoint, len(pts))
	copy(out, pts)
	return out
}

// Uptime returns the success percentage over an item's retained history.
// An item with no history is assumed up: 100.
func (h *History) Uptime(itemID string) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	pts := h.points[itemID]
	if len(pts) == 0 {
		return 100
	}

	var successes int
	for _, p := range pts {
		if p.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(pts)) * 100
}

// Clear drops all retained history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.points = make(map[string][]netreach.MetricDataPoint)
}
