package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/stockdash/internal/database"
	"github.com/aristath/stockdash/internal/marketdata"
)

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	scenariosDB *database.DB
	cacheDB     *database.DB
	provider    *marketdata.CachedProvider
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, scenariosDB, cacheDB *database.DB, provider *marketdata.CachedProvider) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		scenariosDB: scenariosDB,
		cacheDB:     cacheDB,
		provider:    provider,
	}
}

// SystemHealthResponse represents the system health response
type SystemHealthResponse struct {
	Status      string                `json:"status"` // "healthy" or "degraded"
	UptimeHours float64               `json:"uptime_hours"`
	CPUPercent  float64               `json:"cpu_percent"`
	RAMPercent  float64               `json:"ram_percent"`
	Cache       marketdata.CacheStats `json:"cache"`
	Databases   map[string]string     `json:"databases"` // name -> "ok" or error text
	GeneratedAt string                `json:"generated_at"`
}

// HandleSystemHealth returns process stats, cache effectiveness and
// database integrity
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system health")

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemHealthResponse{
		Status:      "healthy",
		UptimeHours: time.Since(h.startupTime).Hours(),
		CPUPercent:  cpuPercent,
		RAMPercent:  ramPercent,
		Cache:       h.provider.Stats(),
		Databases:   make(map[string]string),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for _, db := range []*database.DB{h.scenariosDB, h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(r.Context()); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Database integrity check failed")
			response.Databases[db.Name()] = err.Error()
			response.Status = "degraded"
		} else {
			response.Databases[db.Name()] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system health response")
	}
}

// getSystemStats calculates CPU and RAM usage percentages. The 100ms CPU
// sampling interval keeps the endpoint responsive for dashboard polling.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
