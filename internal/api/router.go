package api

import (
	"net/http"

	"fleet-route-planner/internal/api/handlers"
	"fleet-route-planner/internal/platform/metrics"
	"fleet-route-planner/internal/ports"
	"fleet-route-planner/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc *services.PlanningService, repo ports.PackageRepository) http.Handler {
	mux := http.NewServeMux()

	pkgHandler := &handlers.PackageHandler{Repo: repo}
	planHandler := &handlers.PlanHandler{Svc: svc}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/packages", pkgHandler.List)
	mux.HandleFunc("/plans", planHandler.Collection)
	mux.HandleFunc("/plans/", planHandler.Item)

	return requestIDMiddleware(loggingMiddleware(mux))
}
