package dto

import "fleet-route-planner/internal/domain"

type PackageResponse struct {
	ID              string  `json:"id"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	VolumeM3        float64 `json:"volume_m3"`
	Payment         float64 `json:"payment"`
	Priority        int     `json:"priority,omitempty"`
	Rush            bool    `json:"rush,omitempty"`
	BonusMultiplier float64 `json:"bonus_multiplier,omitempty"`
}

type ListPackagesResponse struct {
	Packages []PackageResponse `json:"packages"`
}

func PackageFromDomain(p *domain.Package) PackageResponse {
	return PackageResponse{
		ID:              p.ID,
		X:               p.Destination.X,
		Y:               p.Destination.Y,
		VolumeM3:        p.VolumeM3,
		Payment:         p.Payment,
		Priority:        p.Priority,
		Rush:            p.Rush,
		BonusMultiplier: p.BonusMultiplier,
	}
}
