package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/manup/agenda/internal/server/models"
)

func (rt *Router) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	items, err := rt.appointments.List(r.Context(), accountIDFromContext(r.Context()))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	out := make([]appointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAppointment(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	a, err := rt.appointments.Create(r.Context(), accountIDFromContext(r.Context()), req.Title, req.ScheduledAt, req.Description)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointment(a))
}

func (rt *Router) handleSetAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	a, err := rt.appointments.SetStatus(r.Context(), accountIDFromContext(r.Context()),
		chi.URLParam(r, "id"), models.AppointmentStatus(req.Status))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointment(a))
}

func (rt *Router) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := rt.appointments.Delete(r.Context(), accountIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
