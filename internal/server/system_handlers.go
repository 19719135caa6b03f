package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fundlens/internal/clientdata"
	"github.com/aristath/fundlens/internal/clients/alphavantage"
	"github.com/aristath/fundlens/internal/database"
	"github.com/aristath/fundlens/internal/modules/portfolio"
)

// SystemConfig holds the dependencies of the system endpoints.
type SystemConfig struct {
	Log         zerolog.Logger
	DataDir     string
	PortfolioDB *database.DB
	CacheDB     *database.DB
	CacheRepo   *clientdata.Repository
	Provider    alphavantage.ClientInterface
	Portfolio   *portfolio.Service
}

// SystemHandlers handles system monitoring endpoints.
type SystemHandlers struct {
	cfg         SystemConfig
	log         zerolog.Logger
	startupTime time.Time
}

// NewSystemHandlers creates a new system handlers instance.
func NewSystemHandlers(cfg SystemConfig) *SystemHandlers {
	return &SystemHandlers{
		cfg:         cfg,
		log:         cfg.Log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
	}
}

// RegisterRoutes registers system routes on the router.
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/database/stats", h.HandleDatabaseStats)
	})
}

// HandleHealth handles GET /api/system/health: host load, uptime, and
// the remaining provider request budget.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.systemStats()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"uptime_seconds":     int64(time.Since(h.startupTime).Seconds()),
		"cpu_percent":        cpuPercent,
		"ram_percent":        ramPercent,
		"positions":          h.cfg.Portfolio.Count(),
		"remaining_requests": h.cfg.Provider.GetRemainingRequests(),
	})
}

// HandleDatabaseStats handles GET /api/system/database/stats.
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	cacheTables := make(map[string]int64, len(clientdata.AllTables))
	for _, table := range clientdata.AllTables {
		count, err := h.cfg.CacheRepo.Count(table)
		if err != nil {
			h.log.Warn().Err(err).Str("table", table).Msg("Failed to count cache table")
			continue
		}
		cacheTables[table] = count
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"databases": []map[string]interface{}{
			h.databaseInfo(h.cfg.PortfolioDB),
			h.databaseInfo(h.cfg.CacheDB),
		},
		"cache_tables":  cacheTables,
		"data_dir_size": h.dataDirSizeMB(),
	})
}

func (h *SystemHandlers) databaseInfo(db *database.DB) map[string]interface{} {
	info := map[string]interface{}{
		"name": db.Name(),
		"path": db.Path(),
	}
	if stat, err := os.Stat(db.Path()); err == nil {
		info["size_bytes"] = stat.Size()
	}
	return info
}

// dataDirSizeMB totals the data directory, WAL sidecars included.
func (h *SystemHandlers) dataDirSizeMB() float64 {
	var totalSize int64
	_ = filepath.Walk(h.cfg.DataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.Contains(info.Name(), ".db") {
			totalSize += info.Size()
		}
		return nil
	})
	return float64(totalSize) / 1024 / 1024
}

// systemStats returns CPU and RAM usage percentages. A short sampling
// interval keeps the health endpoint responsive.
func (h *SystemHandlers) systemStats() (float64, float64) {
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
