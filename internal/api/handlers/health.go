package handlers

import (
	"net/http"

	"fleet-route-planner/internal/planner"
)

// Health provides a minimal liveness check endpoint. The body lists
// the planning strategies this build serves.
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := map[string]any{
		"status": "ok",
		"agents": planner.Names(),
	}
	writeJSON(w, r, http.StatusOK, res)
}
