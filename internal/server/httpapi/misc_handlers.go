package httpapi

import (
	"net/http"

	"github.com/manup/agenda/internal/server/services"
)

func (rt *Router) handleBMI(w http.ResponseWriter, r *http.Request) {
	var req bmiRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	res, err := services.ComputeBMI(req.HeightCm, req.WeightKg)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bmiResponse{Value: res.Value, Category: res.Category, Label: res.Label, Message: res.Message})
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		if err := rt.health(r.Context()); err != nil {
			rt.logger.Warn(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, msgUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
