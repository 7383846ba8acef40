package dto

import (
	"time"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/ports"
)

type PointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type MapRequest struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Depot  PointRequest `json:"depot"`
}

type PackageRequest struct {
	ID              string  `json:"id"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	VolumeM3        float64 `json:"volume_m3"`
	Payment         float64 `json:"payment"`
	Priority        int     `json:"priority"`
	Rush            bool    `json:"rush"`
	BonusMultiplier float64 `json:"bonus_multiplier"`
}

type VehicleRequest struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	CapacityM3    float64 `json:"capacity_m3"`
	CostPerKm     float64 `json:"cost_per_km"`
	PurchasePrice float64 `json:"purchase_price"`
	MaxRangeKm    float64 `json:"max_range_km"`
}

type SubmitPlanRequest struct {
	Agent         string           `json:"agent"`
	Seed          int64            `json:"seed"`
	MaxPackages   int              `json:"max_packages"`
	TwoOptMaxIter int              `json:"two_opt_max_iter"`
	Fallback      bool             `json:"fallback"`
	UseRepository bool             `json:"use_repository"`
	Map           MapRequest       `json:"map"`
	Packages      []PackageRequest `json:"packages"`
	Fleet         []VehicleRequest `json:"fleet"`
}

// ToPlanRequest converts the wire request into the stored job input.
// Every vehicle starts at the depot.
func (r SubmitPlanRequest) ToPlanRequest() ports.PlanRequest {
	depot := domain.Point{X: r.Map.Depot.X, Y: r.Map.Depot.Y}
	m := domain.Map{Width: r.Map.Width, Height: r.Map.Height, Depot: depot}

	pkgs := make([]*domain.Package, 0, len(r.Packages))
	for _, p := range r.Packages {
		pkgs = append(pkgs, &domain.Package{
			ID:              p.ID,
			Destination:     domain.Point{X: p.X, Y: p.Y},
			VolumeM3:        p.VolumeM3,
			Payment:         p.Payment,
			Priority:        p.Priority,
			Rush:            p.Rush,
			BonusMultiplier: p.BonusMultiplier,
		})
	}

	fleet := make([]*domain.Vehicle, 0, len(r.Fleet))
	for _, v := range r.Fleet {
		vt := domain.VehicleType{
			Name:          v.Type,
			CapacityM3:    v.CapacityM3,
			CostPerKm:     v.CostPerKm,
			PurchasePrice: v.PurchasePrice,
			MaxRangeKm:    v.MaxRangeKm,
		}
		fleet = append(fleet, domain.NewVehicle(v.ID, vt, depot))
	}

	return ports.PlanRequest{
		Agent:         r.Agent,
		Seed:          r.Seed,
		MaxPackages:   r.MaxPackages,
		TwoOptMaxIter: r.TwoOptMaxIter,
		Fallback:      r.Fallback,
		UseRepository: r.UseRepository,
		Map:           m,
		Packages:      pkgs,
		Fleet:         fleet,
	}
}

// SubmitPlanResponse acknowledges an accepted planning job.
type SubmitPlanResponse struct {
	PlanID string `json:"plan_id"`
	Status string `json:"status"`
}

type PlanJobResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Agent     string            `json:"agent"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Result    *ports.PlanResult `json:"result,omitempty"`
}

type ListPlanJobsResponse struct {
	Jobs []PlanJobResponse `json:"jobs"`
}

func JobFromPorts(job *ports.PlanJob) PlanJobResponse {
	return PlanJobResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		Agent:     job.Request.Agent,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Result:    job.Result,
	}
}
