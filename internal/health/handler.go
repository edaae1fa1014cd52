package health

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"lv-tradesense/internal/httputil"
)

const checkTimeout = time.Second

// Check probes one dependency. A nil error means reachable.
type Check func(ctx context.Context) error

type Handler struct {
	startedAt time.Time
	checks    map[string]Check
	now       func() time.Time
}

func NewHandler(startedAt time.Time, checks map[string]Check) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Handler{startedAt: start, checks: checks, now: time.Now}
}

type liveResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	UptimeSec  int64  `json:"uptime_sec"`
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
}

type checkResult struct {
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
	UptimeSec int64         `json:"uptime_sec"`
	Checks    []checkResult `json:"checks"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func (h *Handler) run(ctx context.Context) []checkResult {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]checkResult, 0, len(names))
	for _, name := range names {
		start := time.Now()
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := h.checks[name](cctx)
		cancel()
		res := checkResult{Name: name, Reachable: err == nil, LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			res.Error = err.Error()
		}
		out = append(out, res)
	}
	return out
}

// Live does not touch dependencies.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	uptime := h.uptime(now)
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:     "ok",
		Timestamp:  now.Format(time.RFC3339),
		UptimeSec:  int64(uptime.Seconds()),
		Uptime:     uptime.String(),
		Goroutines: runtime.NumGoroutine(),
	})
}

// Ready returns 503 when any dependency check fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	results := h.run(r.Context())
	status := "ok"
	httpStatus := http.StatusOK
	for _, res := range results {
		if !res.Reachable {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}
	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
		Checks:    results,
	})
}

// Metrics returns Prometheus text format. Mount it behind internal auth.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	results := h.run(r.Context())
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "# HELP tradesense_up Service process is running.\n")
	_, _ = fmt.Fprintf(w, "# TYPE tradesense_up gauge\n")
	_, _ = fmt.Fprintf(w, "tradesense_up 1\n")
	_, _ = fmt.Fprintf(w, "# HELP tradesense_uptime_seconds Service uptime in seconds.\n")
	_, _ = fmt.Fprintf(w, "# TYPE tradesense_uptime_seconds gauge\n")
	_, _ = fmt.Fprintf(w, "tradesense_uptime_seconds %d\n", int64(h.uptime(now).Seconds()))
	_, _ = fmt.Fprintf(w, "# HELP tradesense_dependency_up Dependency check status (1=ok,0=down).\n")
	_, _ = fmt.Fprintf(w, "# TYPE tradesense_dependency_up gauge\n")
	for _, res := range results {
		up := 0
		if res.Reachable {
			up = 1
		}
		_, _ = fmt.Fprintf(w, "tradesense_dependency_up{name=%q} %d\n", res.Name, up)
	}
	_, _ = fmt.Fprintf(w, "tradesense_go_goroutines %d\n", runtime.NumGoroutine())
	_, _ = fmt.Fprintf(w, "tradesense_go_mem_heap_alloc_bytes %d\n", mem.HeapAlloc)
	_, _ = fmt.Fprintf(w, "tradesense_go_gc_count %d\n", mem.NumGC)
}
