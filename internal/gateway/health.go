package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/internal/transport/rest"
)

// Downstream is a service whose health endpoint the gateway polls.
type Downstream struct {
	Name      string
	HealthURL string
}

type HealthChecker struct {
	client      *resty.Client
	downstreams []Downstream
	logger      *slog.Logger
}

func NewHealthChecker(timeout time.Duration, downstreams []Downstream, lg *slog.Logger) *HealthChecker {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &HealthChecker{
		client:      client,
		downstreams: downstreams,
		logger:      lg,
	}
}

// Check polls every downstream concurrently. The gateway is unhealthy when any of them is.
func (h *HealthChecker) Check(ctx context.Context) rest.HealthResponse {
	resp := rest.HealthResponse{
		Service:    "gateway",
		Status:     rest.HealthHealthy,
		CheckedAt:  time.Now(),
		Components: make(map[string]rest.CheckEntry, len(h.downstreams)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, d := range h.downstreams {
		wg.Add(1)
		go func(d Downstream) {
			defer wg.Done()
			entry := h.probe(ctx, d)

			mu.Lock()
			defer mu.Unlock()
			resp.Components[d.Name] = entry
			if entry.Status == rest.HealthUnhealthy {
				resp.Status = rest.HealthUnhealthy
			}
		}(d)
	}
	wg.Wait()

	return resp
}

func (h *HealthChecker) probe(ctx context.Context, d Downstream) rest.CheckEntry {
	start := time.Now()
	entry := rest.CheckEntry{Status: rest.HealthHealthy}

	res, err := h.client.R().SetContext(ctx).Get(d.HealthURL)
	switch {
	case err != nil:
		entry.Status = rest.HealthUnhealthy
		entry.Message = err.Error()
	case !res.IsSuccess():
		entry.Status = rest.HealthUnhealthy
		entry.Message = fmt.Sprintf("unexpected status %d", res.StatusCode())
	}

	if entry.Status == rest.HealthUnhealthy {
		h.logger.Warn("downstream health check failed", "service", d.Name, "url", d.HealthURL, "reason", entry.Message)
	}

	entry.CheckedAt = time.Now()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}

func (h *HealthChecker) Health(w http.ResponseWriter, r *http.Request) {
	resp := h.Check(r.Context())

	status := http.StatusOK
	if resp.Status == rest.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}

	transport.WriteJSON(w, status, transport.Envelope{
		Success: resp.Status == rest.HealthHealthy,
		Data:    resp,
	}, h.logger)
}
