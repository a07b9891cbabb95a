// Package health reports whether the served template collection is usable.
package health

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/bpmn-tools/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store   interfaces.TemplateStore
	maxAge  time.Duration
	nextRun func() time.Time
}

// NewHealthChecker creates a health checker. maxAge is how old the collection may get
// before it counts as degraded; zero disables the age check (no refresh schedule).
func NewHealthChecker(store interfaces.TemplateStore, maxAge time.Duration, nextRun func() time.Time) *HealthCheckerImpl {
	if nextRun == nil {
		nextRun = func() time.Time { return time.Time{} }
	}
	return &HealthCheckerImpl{
		store:   store,
		maxAge:  maxAge,
		nextRun: nextRun,
	}
}

// HealthCheck returns the status, the data behind it and the HTTP code to answer with
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	templates := h.store.GetTemplates()
	failures := h.store.GetFailures()
	lastUpdate := h.store.GetLastUpdated()
	isUpdating := h.store.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case lastUpdate.IsZero() || len(templates) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case h.maxAge > 0 && dataAge > 2*h.maxAge:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case h.maxAge > 0 && dataAge > h.maxAge:
		status = "degraded"
		httpStatus = http.StatusOK

	case len(failures) > 0:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	failedSources := make([]string, 0, len(failures))
	for _, f := range failures {
		failedSources = append(failedSources, f.URL)
	}

	data = map[string]any{
		"templates":      len(templates),
		"failed_sources": failedSources,
		"is_updating":    isUpdating,
	}

	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}
	if start := h.store.GetServerStartTime(); !start.IsZero() {
		uptime := time.Since(start)
		data["uptime"] = formatUptimeHuman(uptime)
		data["uptime_seconds"] = int64(uptime.Seconds())
	}
	if next := h.nextRun(); !next.IsZero() {
		data["next_update"] = next.Format(time.RFC3339)
	}

	return status, data, httpStatus
}

// formatUptimeHuman formats a duration as "2d 3h 4m 5s", dropping leading zero units
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
