// Package handler serves a decomposition store over HTTP. All endpoints
// are read only and see flushed state.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gaussdec/internal/store"
	"gaussdec/internal/survey"
)

// Handler wraps a read-only store opened by the API server.
type Handler struct {
	st   *store.Store
	npix int64
}

func New(st *store.Store) *Handler {
	return &Handler{
		st:   st,
		npix: 12 * int64(survey.Nside) * int64(survey.Nside),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// pixelFromPath extracts the HEALPix index between the pixels prefix and
// the given suffix, e.g. /api/v1/pixels/1234/components.
func (h *Handler) pixelFromPath(path, suffix string) (int64, bool) {
	const prefix = "/api/v1/pixels/"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return 0, false
	}
	hpx, err := strconv.ParseInt(path[len(prefix):len(path)-len(suffix)], 10, 64)
	if err != nil || hpx < 0 || hpx >= h.npix {
		return 0, false
	}
	return hpx, true
}

// ListRuns lists all decomposition runs
// @Summary List runs
// @Description Get all decomposition runs recorded in the store, newest first
// @Tags runs
// @Produce json
// @Success 200 {array} model.Run "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.st.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GetRun retrieves one decomposition run
// @Summary Get run
// @Description Retrieve one decomposition run with its counters and last flush checkpoint
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.Run "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/runs/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	id := r.URL.Path[len(prefix):]
	if id == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	run, err := h.st.GetRun(id)
	if errors.Is(err, store.ErrRunNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

// GetPixelComponents lists the components of one sky pixel
// @Summary Get pixel components
// @Description List the Gaussian components fitted for one HEALPix pixel
// @Tags pixels
// @Produce json
// @Param hpx path int true "HEALPix index (RING, nside 1024)"
// @Success 200 {object} map[string]interface{} "Pixel components"
// @Failure 400 {object} map[string]interface{} "Invalid pixel index"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pixels/{hpx}/components [get]
func (h *Handler) GetPixelComponents(w http.ResponseWriter, r *http.Request) {
	hpx, ok := h.pixelFromPath(r.URL.Path, "/components")
	if !ok {
		http.Error(w, "Invalid pixel index", http.StatusBadRequest)
		return
	}

	recs, err := h.st.ComponentsByPixel(hpx)
	if err != nil {
		http.Error(w, "Failed to retrieve components", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"hpxindex":   hpx,
		"components": recs,
		"count":      len(recs),
	})
}

// GetPixelColdens reports the column density of one sky pixel
// @Summary Get pixel column density
// @Description Aggregate one pixel's components into an HI column density in cm^-2
// @Tags pixels
// @Produce json
// @Param hpx path int true "HEALPix index (RING, nside 1024)"
// @Success 200 {object} map[string]interface{} "Pixel column density"
// @Failure 400 {object} map[string]interface{} "Invalid pixel index"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /pixels/{hpx}/coldens [get]
func (h *Handler) GetPixelColdens(w http.ResponseWriter, r *http.Request) {
	hpx, ok := h.pixelFromPath(r.URL.Path, "/coldens")
	if !ok {
		http.Error(w, "Invalid pixel index", http.StatusBadRequest)
		return
	}

	stats, err := h.st.GetPixelStats(hpx)
	if err != nil {
		http.Error(w, "Failed to retrieve pixel stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"hpxindex":      stats.HPXIndex,
		"ncomponents":   stats.NComponents,
		"sum_amplitude": stats.SumAmplitude,
		"coldens":       survey.AmplitudeToColdens(stats.SumAmplitude),
	})
}

// GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	components, err := h.st.CountComponents()
	if err != nil {
		http.Error(w, "Failed to count components", http.StatusInternalServerError)
		return
	}
	pixels, err := h.st.CountPixels()
	if err != nil {
		http.Error(w, "Failed to count pixels", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"components": components,
		"pixels":     pixels,
	})
}

// GET /api/v1/histogram
func (h *Handler) GetHistogram(w http.ResponseWriter, r *http.Request) {
	bins, err := h.st.Histogram()
	if err != nil {
		http.Error(w, "Failed to compute histogram", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"bins":  bins,
		"count": len(bins),
	})
}
