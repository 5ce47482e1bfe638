package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Lap-DevOps/Organizational-Chart/internal/database"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

type HealthHandler struct {
	inspector       *database.Inspector
	migrationsTable string
}

func NewHealthHandler(inspector *database.Inspector, migrationsTable string) *HealthHandler {
	return &HealthHandler{inspector: inspector, migrationsTable: migrationsTable}
}

// statusHandler answers the bare liveness check at /health.
func (h *HealthHandler) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler checks the database connection and the applied schema version.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: map[string]CheckEntry{"database": h.checkDatabase(ctx)},
	}
	if h.migrationsTable != "" {
		resp.Components["migrations"] = h.checkMigrations(ctx)
	}
	for _, c := range resp.Components {
		if c.Status == HealthUnhealthy {
			resp.Status = HealthUnhealthy
		}
	}
	resp.CheckedAt = time.Now()

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeHealthJSON(w, statusCode, resp)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckEntry {
	start := time.Now()
	entry := CheckEntry{Status: HealthHealthy}

	if err := h.inspector.Ping(ctx); err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	} else if version, err := h.inspector.ServerVersion(ctx); err == nil {
		entry.Details = map[string]any{"version": version}
	}

	entry.CheckedAt = time.Now()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}

func (h *HealthHandler) checkMigrations(ctx context.Context) CheckEntry {
	start := time.Now()
	entry := CheckEntry{Status: HealthHealthy}

	version, err := h.inspector.MigrationVersion(ctx, h.migrationsTable)
	switch {
	case err != nil:
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	case version == 0:
		entry.Status = HealthUnhealthy
		entry.Message = "no migrations applied"
	default:
		entry.Details = map[string]any{"version": version}
	}

	entry.CheckedAt = time.Now()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}

func writeHealthJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
