// Package scenario loads planning scenarios from YAML files: one map,
// a fleet described by vehicle types, and a package list. Scenario
// files are authored by hand, so loading validates strictly and fails
// on the first problem instead of screening rows.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/planner"
)

type PointSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type MapSpec struct {
	Width  float64   `yaml:"width"`
	Height float64   `yaml:"height"`
	Depot  PointSpec `yaml:"depot"`
}

type VehicleTypeSpec struct {
	Name          string  `yaml:"name"`
	CapacityM3    float64 `yaml:"capacity_m3"`
	CostPerKm     float64 `yaml:"cost_per_km"`
	PurchasePrice float64 `yaml:"purchase_price"`
	MaxRangeKm    float64 `yaml:"max_range_km"`
}

// FleetSpec is one fleet entry: either a count of vehicles of a type,
// or a single explicitly named vehicle.
type FleetSpec struct {
	ID    string `yaml:"id"`
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

type PackageSpec struct {
	ID              string  `yaml:"id"`
	X               float64 `yaml:"x"`
	Y               float64 `yaml:"y"`
	VolumeM3        float64 `yaml:"volume_m3"`
	Payment         float64 `yaml:"payment"`
	Priority        int     `yaml:"priority"`
	Rush            bool    `yaml:"rush"`
	BonusMultiplier float64 `yaml:"bonus_multiplier"`
}

type Scenario struct {
	Name         string            `yaml:"name"`
	Map          MapSpec           `yaml:"map"`
	VehicleTypes []VehicleTypeSpec `yaml:"vehicle_types"`
	Fleet        []FleetSpec       `yaml:"fleet"`
	Packages     []PackageSpec     `yaml:"packages"`
}

// Load reads and parses a scenario file. Unknown fields are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: read %q: %w", path, err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("load scenario: parse %q: %w", path, err)
	}

	return &s, nil
}

// Request validates the scenario and converts it into a planning
// request. Fleet entries with a count expand into numbered vehicles
// of their type; every vehicle starts at the depot.
func (s *Scenario) Request() (planner.Request, error) {
	m := domain.Map{
		Width:  s.Map.Width,
		Height: s.Map.Height,
		Depot:  domain.Point{X: s.Map.Depot.X, Y: s.Map.Depot.Y},
	}

	types := make(map[string]domain.VehicleType, len(s.VehicleTypes))
	for _, t := range s.VehicleTypes {
		if t.Name == "" {
			return planner.Request{}, errors.New("scenario: vehicle type with empty name")
		}
		if _, ok := types[t.Name]; ok {
			return planner.Request{}, fmt.Errorf("scenario: duplicate vehicle type %q", t.Name)
		}
		types[t.Name] = domain.VehicleType{
			Name:          t.Name,
			CapacityM3:    t.CapacityM3,
			CostPerKm:     t.CostPerKm,
			PurchasePrice: t.PurchasePrice,
			MaxRangeKm:    t.MaxRangeKm,
		}
	}

	fleet := make([]*domain.Vehicle, 0, len(s.Fleet))
	seenVehicles := make(map[string]struct{})
	perType := make(map[string]int)
	for i, f := range s.Fleet {
		vt, ok := types[f.Type]
		if !ok {
			return planner.Request{}, fmt.Errorf("scenario: fleet entry %d: unknown vehicle type %q", i+1, f.Type)
		}

		count := f.Count
		if count == 0 {
			count = 1
		}
		if count < 0 {
			return planner.Request{}, fmt.Errorf("scenario: fleet entry %d: negative count %d", i+1, count)
		}
		if f.ID != "" && count > 1 {
			return planner.Request{}, fmt.Errorf("scenario: fleet entry %d: explicit id %q with count %d", i+1, f.ID, count)
		}

		for n := 0; n < count; n++ {
			id := f.ID
			if id == "" {
				perType[f.Type]++
				id = fmt.Sprintf("%s-%d", f.Type, perType[f.Type])
			}
			if _, dup := seenVehicles[id]; dup {
				return planner.Request{}, fmt.Errorf("scenario: duplicate vehicle id %q", id)
			}
			seenVehicles[id] = struct{}{}

			v := domain.NewVehicle(id, vt, m.Depot)
			if err := v.Validate(); err != nil {
				return planner.Request{}, fmt.Errorf("scenario: %w", err)
			}
			fleet = append(fleet, v)
		}
	}
	if len(fleet) == 0 {
		return planner.Request{}, errors.New("scenario: fleet is empty")
	}

	pkgs := make([]*domain.Package, 0, len(s.Packages))
	seenPackages := make(map[string]struct{})
	for _, ps := range s.Packages {
		p := &domain.Package{
			ID:              ps.ID,
			Destination:     domain.Point{X: ps.X, Y: ps.Y},
			VolumeM3:        ps.VolumeM3,
			Payment:         ps.Payment,
			Priority:        ps.Priority,
			Rush:            ps.Rush,
			BonusMultiplier: ps.BonusMultiplier,
		}
		if err := p.Validate(); err != nil {
			return planner.Request{}, fmt.Errorf("scenario: %w", err)
		}
		if _, dup := seenPackages[p.ID]; dup {
			return planner.Request{}, fmt.Errorf("scenario: duplicate package id %q", p.ID)
		}
		seenPackages[p.ID] = struct{}{}
		pkgs = append(pkgs, p)
	}
	if len(pkgs) == 0 {
		return planner.Request{}, errors.New("scenario: no packages")
	}

	return planner.Request{Packages: pkgs, Fleet: fleet, Map: m}, nil
}
