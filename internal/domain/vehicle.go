package domain

import (
	"errors"
	"fmt"
)

// capacityEpsilon absorbs floating-point drift when summing package
// volumes against a vehicle's capacity.
const capacityEpsilon = 1e-6

// VehicleType describes a class of delivery vehicle.
type VehicleType struct {
	Name          string
	CapacityM3    float64
	CostPerKm     float64
	PurchasePrice float64
	MaxRangeKm    float64
}

// CostEfficiency returns cost per km per cubic meter of capacity.
// Lower is better: cheap vehicles with large capacity rank first.
func (t VehicleType) CostEfficiency() float64 {
	if t.CapacityM3 <= 0 {
		return t.CostPerKm
	}
	return t.CostPerKm / t.CapacityM3
}

// Vehicle is a candidate container in route planning.
// Planning produces proposals and must not mutate the vehicle itself.
type Vehicle struct {
	ID       string
	Type     VehicleType
	Location Point
}

func NewVehicle(id string, vt VehicleType, location Point) *Vehicle {
	return &Vehicle{ID: id, Type: vt, Location: location}
}

// Validate checks the fields a planner relies on.
func (v *Vehicle) Validate() error {
	if v == nil {
		return errors.New("vehicle: must be non-nil")
	}
	if v.ID == "" {
		return errors.New("vehicle: id must be non-empty")
	}
	if v.Type.CapacityM3 <= 0 {
		return fmt.Errorf("vehicle %s: capacity must be positive, got %v", v.ID, v.Type.CapacityM3)
	}
	if v.Type.CostPerKm < 0 {
		return fmt.Errorf("vehicle %s: cost per km must be non-negative, got %v", v.ID, v.Type.CostPerKm)
	}
	return nil
}

// CanCarry reports whether a package volume still fits next to the
// volume already used.
func (v *Vehicle) CanCarry(volume, used float64) bool {
	return used+volume <= v.Type.CapacityM3+capacityEpsilon
}

// Clone returns an independent copy of the vehicle.
func (v *Vehicle) Clone() *Vehicle {
	c := *v
	return &c
}
