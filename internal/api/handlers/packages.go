package handlers

import (
	"log"
	"net/http"

	"fleet-route-planner/internal/api/dto"
	"fleet-route-planner/internal/ports"
)

// PackageHandler exposes read-only package retrieval endpoints.
type PackageHandler struct {
	Repo ports.PackageRepository
}

func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.Repo == nil {
		writeError(w, r, http.StatusServiceUnavailable, "package repository not configured")
		return
	}

	pkgs, err := h.Repo.ListPackages(r.Context())
	if err != nil {
		log.Printf("list packages failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListPackagesResponse{
		Packages: make([]dto.PackageResponse, 0, len(pkgs)),
	}
	for _, p := range pkgs {
		res.Packages = append(res.Packages, dto.PackageFromDomain(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}
