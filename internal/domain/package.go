package domain

import (
	"errors"
	"fmt"
)

// minDensityVolume guards the payment-density division against
// near-zero volumes.
const minDensityVolume = 0.01

// Represents a single delivery unit handled by the system.
// A Package has a unique identifier and one planar destination.
// Packages are immutable within a planning cycle: agents read and
// reorder them but never change their fields.
type Package struct {
	ID              string
	Destination     Point
	VolumeM3        float64
	Payment         float64
	Priority        int
	Rush            bool
	BonusMultiplier float64
}

// Validate checks the fields a planner relies on.
// A zero bonus multiplier is treated as the default 1.0; anything
// below 1.0 otherwise is rejected.
func (p *Package) Validate() error {
	if p == nil {
		return errors.New("package: must be non-nil")
	}
	if p.ID == "" {
		return errors.New("package: id must be non-empty")
	}
	if p.VolumeM3 <= 0 {
		return fmt.Errorf("package %s: volume must be positive, got %v", p.ID, p.VolumeM3)
	}
	if p.Payment < 0 {
		return fmt.Errorf("package %s: payment must be non-negative, got %v", p.ID, p.Payment)
	}
	if p.BonusMultiplier != 0 && p.BonusMultiplier < 1 {
		return fmt.Errorf("package %s: bonus multiplier must be >= 1, got %v", p.ID, p.BonusMultiplier)
	}
	return nil
}

// Revenue returns the payment with the bonus multiplier applied.
// The multiplier applies uniformly: non-rush packages carry 1.0.
func (p *Package) Revenue() float64 {
	m := p.BonusMultiplier
	if m == 0 {
		m = 1
	}
	return p.Payment * m
}

// Density returns payment per cubic meter, used to prioritize
// high-value-per-space packages.
func (p *Package) Density() float64 {
	v := p.VolumeM3
	if v < minDensityVolume {
		v = minDensityVolume
	}
	return p.Payment / v
}

// Clone returns an independent copy of the package.
func (p *Package) Clone() *Package {
	c := *p
	return &c
}
