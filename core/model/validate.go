package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks dataset validation failures. Callers can test for it
// with errors.Is.
var ErrInvalidInput = errors.New("invalid input dataset")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Validate checks the dataset against the planning horizon before any model
// construction. It fails fast with a descriptive error on the first problem
// found.
func (d *Dataset) Validate(planningDays int) error {
	if planningDays < 1 {
		return invalidf("planning horizon must be at least one day, got %d", planningDays)
	}
	if len(d.Vehicles) == 0 {
		return invalidf("no vehicles")
	}

	depots := 0
	for id, loc := range d.Locations {
		switch loc.Type {
		case LocationDepot:
			depots++
		case LocationParking:
		default:
			return invalidf("location %s has unknown type %q", id, loc.Type)
		}
		if loc.Capacity < 1 {
			return invalidf("location %s must have capacity >= 1, got %d", id, loc.Capacity)
		}
		if loc.Type == LocationDepot && loc.ManhoursPerShift < 0 {
			return invalidf("depot %s has negative manhours_per_shift", id)
		}
	}
	if depots < 2 {
		return invalidf("at least two depots are required, got %d", depots)
	}

	typeIDs := make(map[string]MaintenanceType, len(d.MaintenanceTypes))
	for _, mt := range d.MaintenanceTypes {
		if _, dup := typeIDs[mt.ID]; dup {
			return invalidf("duplicate maintenance type %s", mt.ID)
		}
		switch mt.Kind {
		case MaintenancePreventive:
			if mt.OptimalKm > mt.MaxKm {
				return invalidf("maintenance type %s: optimal_km %d exceeds max_km %d", mt.ID, mt.OptimalKm, mt.MaxKm)
			}
		case MaintenanceCorrective:
			if mt.MaxKmWindow < 0 {
				return invalidf("maintenance type %s has negative max_km_window", mt.ID)
			}
		default:
			return invalidf("maintenance type %s has unknown kind %q", mt.ID, mt.Kind)
		}
		if mt.Manhours < 0 {
			return invalidf("maintenance type %s has negative manhours", mt.ID)
		}
		typeIDs[mt.ID] = mt
	}

	idx := NewIndex(d)
	for _, mt := range d.MaintenanceTypes {
		if mt.Specialization == "" {
			continue
		}
		if len(idx.CapableDepots(d, mt.Specialization)) == 0 {
			return invalidf("maintenance type %s requires specialization %q but no depot provides it", mt.ID, mt.Specialization)
		}
	}

	for _, v := range d.Vehicles {
		if _, ok := d.Locations[v.InitialLocation]; !ok {
			return invalidf("vehicle %s starts at unknown location %s", v.ID, v.InitialLocation)
		}
		if v.InitialKm < 0 {
			return invalidf("vehicle %s has negative initial km", v.ID)
		}
		for _, task := range append(append([]PendingTask{}, v.PendingCorrective...), v.PendingPreventive...) {
			if _, ok := typeIDs[task.MaintenanceTypeID]; !ok {
				return invalidf("vehicle %s references unknown maintenance type %s", v.ID, task.MaintenanceTypeID)
			}
			if task.RemainingKm < 0 {
				return invalidf("vehicle %s has a task with negative remaining km", v.ID)
			}
		}
	}

	for _, r := range d.Routes {
		if r.Day < 0 || r.Day >= planningDays {
			return invalidf("route %s: day %d outside horizon [0,%d)", r.ID, r.Day, planningDays)
		}
		if _, ok := d.Locations[r.StartLocation]; !ok {
			return invalidf("route %s starts at unknown location %s", r.ID, r.StartLocation)
		}
		if _, ok := d.Locations[r.EndLocation]; !ok {
			return invalidf("route %s ends at unknown location %s", r.ID, r.EndLocation)
		}
		if r.DistanceKm < 0 {
			return invalidf("route %s has negative distance", r.ID)
		}
	}

	return nil
}
