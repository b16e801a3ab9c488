// Package datagen provides a seeded dummy-dataset provider. It is one
// possible data provider for the planner; real feeds may replace it.
package datagen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kilianp07/railops/core/model"
)

// Config holds parameters for dataset generation.
type Config struct {
	Vehicles     int   `json:"vehicles"`
	Depots       int   `json:"depots"`
	Parkings     int   `json:"parkings"`
	RoutesPerDay int   `json:"routes_per_day"`
	PlanningDays int   `json:"planning_days"`
	Seed         int64 `json:"seed"`
}

// SetDefaults applies the default fleet shape.
func (c *Config) SetDefaults() {
	if c.Vehicles == 0 {
		c.Vehicles = 10
	}
	if c.Depots == 0 {
		c.Depots = 2
	}
	if c.Parkings == 0 {
		c.Parkings = 2
	}
	if c.RoutesPerDay == 0 {
		c.RoutesPerDay = 8
	}
	if c.PlanningDays == 0 {
		c.PlanningDays = 14
	}
}

// Validate checks the generation parameters.
func (c Config) Validate() error {
	if c.Vehicles < 1 {
		return fmt.Errorf("vehicles must be >= 1, got %d", c.Vehicles)
	}
	if c.Depots < 2 {
		return fmt.Errorf("depots must be >= 2, got %d", c.Depots)
	}
	if c.Parkings < 0 {
		return fmt.Errorf("parkings must be >= 0, got %d", c.Parkings)
	}
	if c.RoutesPerDay < 1 {
		return fmt.Errorf("routes_per_day must be >= 1, got %d", c.RoutesPerDay)
	}
	if c.PlanningDays < 1 {
		return fmt.Errorf("planning_days must be >= 1, got %d", c.PlanningDays)
	}
	return nil
}

var specializationPool = []string{"electrical", "mechanical", "hydraulic", "pneumatic", "structural"}

// Generate builds a random dataset. A zero seed derives one from the clock;
// any other seed reproduces the same dataset exactly.
func Generate(cfg Config) (*model.Dataset, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ds := &model.Dataset{Locations: make(map[string]model.Location)}

	// Depots with 1-3 specializations each, then parkings.
	var depotIDs []string
	for i := 0; i < cfg.Depots; i++ {
		id := fmt.Sprintf("depot_%d", i+1)
		depotIDs = append(depotIDs, id)
		n := 1 + rng.Intn(3)
		specs := append([]string(nil), specializationPool...)
		rng.Shuffle(len(specs), func(a, b int) { specs[a], specs[b] = specs[b], specs[a] })
		ds.Locations[id] = model.Location{
			Type:                   model.LocationDepot,
			Capacity:               10 + rng.Intn(6),
			ManhoursPerShift:       int64(40 + rng.Intn(61)),
			SpecializedMaintenance: specs[:n],
		}
	}
	for i := 0; i < cfg.Parkings; i++ {
		id := fmt.Sprintf("parking_%d", i+1)
		ds.Locations[id] = model.Location{
			Type:     model.LocationParking,
			Capacity: 10 + rng.Intn(11),
		}
	}

	// Only specializations some depot actually provides are usable.
	available := map[string]bool{}
	for _, id := range depotIDs {
		for _, s := range ds.Locations[id].SpecializedMaintenance {
			available[s] = true
		}
	}
	var usable []string
	for _, s := range specializationPool {
		if available[s] {
			usable = append(usable, s)
		}
	}

	pickSpec := func(prob float64) string {
		if len(usable) == 0 || rng.Float64() >= prob {
			return ""
		}
		return usable[rng.Intn(len(usable))]
	}

	for i := 0; i < 5; i++ {
		optimal := int64(5000 + rng.Intn(15001))
		ds.MaintenanceTypes = append(ds.MaintenanceTypes, model.MaintenanceType{
			ID:             fmt.Sprintf("preventive_%d", i+1),
			Kind:           model.MaintenancePreventive,
			OptimalKm:      optimal,
			MaxKm:          optimal + int64(1000+rng.Intn(2001)),
			Manhours:       int64(4 + rng.Intn(21)),
			Specialization: pickSpec(0.7),
		})
	}
	var correctiveIDs []string
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("corrective_%d", i+1)
		correctiveIDs = append(correctiveIDs, id)
		ds.MaintenanceTypes = append(ds.MaintenanceTypes, model.MaintenanceType{
			ID:             id,
			Kind:           model.MaintenanceCorrective,
			MaxKmWindow:    int64(300 + rng.Intn(701)),
			Manhours:       int64(2 + rng.Intn(15)),
			Specialization: pickSpec(0.5),
			SafetyCritical: rng.Float64() < 0.3,
		})
	}

	locationIDs := make([]string, 0, len(ds.Locations))
	locationIDs = append(locationIDs, depotIDs...)
	for i := 0; i < cfg.Parkings; i++ {
		locationIDs = append(locationIDs, fmt.Sprintf("parking_%d", i+1))
	}

	for i := 0; i < cfg.Vehicles; i++ {
		v := model.Vehicle{
			ID:              fmt.Sprintf("vehicle_%d", i+1),
			InitialLocation: locationIDs[rng.Intn(len(locationIDs))],
			InitialKm:       int64(rng.Intn(25001)),
		}
		for n := rng.Intn(3); n > 0; n-- {
			id := correctiveIDs[rng.Intn(len(correctiveIDs))]
			mt, _ := ds.MaintenanceType(id)
			v.PendingCorrective = append(v.PendingCorrective, model.PendingTask{
				MaintenanceTypeID: id,
				RemainingKm:       int64(50) + int64(rng.Intn(int(mt.MaxKmWindow-49))),
			})
		}
		// Defective vehicles are held at a depot so the repair can start
		// without a positioning run.
		if len(v.PendingCorrective) > 0 {
			v.InitialLocation = depotIDs[rng.Intn(len(depotIDs))]
		}
		for n := rng.Intn(3); n > 0; n-- {
			pi := rng.Intn(5)
			v.PendingPreventive = append(v.PendingPreventive, model.PendingTask{
				MaintenanceTypeID: fmt.Sprintf("preventive_%d", pi+1),
				RemainingKm:       int64(500 + rng.Intn(7501)),
			})
		}
		ds.Vehicles = append(ds.Vehicles, v)
	}

	for day := 0; day < cfg.PlanningDays; day++ {
		for n := 0; n < cfg.RoutesPerDay; n++ {
			ds.Routes = append(ds.Routes, model.Route{
				ID:            fmt.Sprintf("route_day%d_%d", day, n+1),
				Day:           day,
				Shift:         "day",
				StartLocation: locationIDs[rng.Intn(len(locationIDs))],
				EndLocation:   locationIDs[rng.Intn(len(locationIDs))],
				DistanceKm:    int64(50 + rng.Intn(251)),
			})
		}
	}

	if err := ds.Validate(cfg.PlanningDays); err != nil {
		return nil, fmt.Errorf("generated dataset is invalid: %w", err)
	}
	return ds, nil
}
