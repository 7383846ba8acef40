package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"fleet-route-planner/internal/api/dto"
	"fleet-route-planner/internal/planner"
	"fleet-route-planner/internal/ports"
	"fleet-route-planner/internal/services"
)

type PlanHandler struct {
	Svc *services.PlanningService
}

// Collection routes requests on /plans: POST submits a planning job,
// GET lists stored jobs.
func (h *PlanHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submit(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *PlanHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitPlanRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if _, err := planner.New(req.Agent, planner.Options{}); err != nil {
		writeError(w, r, http.StatusBadRequest, "agent must be one of: "+strings.Join(planner.Names(), ", "))
		return
	}
	if len(req.Fleet) == 0 {
		writeError(w, r, http.StatusBadRequest, "fleet is required")
		return
	}
	if req.UseRepository && !h.Svc.HasRepository() {
		writeError(w, r, http.StatusBadRequest, "use_repository is set but no package repository is configured")
		return
	}
	if !req.UseRepository && len(req.Packages) == 0 {
		writeError(w, r, http.StatusBadRequest, "packages are required unless use_repository is set")
		return
	}

	job, err := h.Svc.Submit(r.Context(), req.ToPlanRequest())
	if err != nil {
		log.Printf("submit plan failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Location", "/plans/"+job.ID)
	writeJSON(w, r, http.StatusAccepted, dto.SubmitPlanResponse{
		PlanID: job.ID,
		Status: string(job.Status),
	})
}

func (h *PlanHandler) list(w http.ResponseWriter, r *http.Request) {
	status := ports.JobStatus(r.URL.Query().Get("status"))
	switch status {
	case "", ports.JobQueued, ports.JobRunning, ports.JobDone, ports.JobFailed:
	default:
		writeError(w, r, http.StatusBadRequest, "status must be one of queued, running, done, failed")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	jobs, err := h.Svc.List(r.Context(), status, limit)
	if err != nil {
		log.Printf("list plans failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListPlanJobsResponse{Jobs: make([]dto.PlanJobResponse, 0, len(jobs))}
	for _, job := range jobs {
		res.Jobs = append(res.Jobs, dto.JobFromPorts(job))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Item handles GET /plans/{id}.
func (h *PlanHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/plans/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	job, err := h.Svc.Get(r.Context(), id)
	if errors.Is(err, ports.ErrJobNotFound) {
		writeError(w, r, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		log.Printf("get plan failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.JobFromPorts(job))
}
