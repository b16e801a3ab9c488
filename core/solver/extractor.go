package solver

import (
	"fmt"
	"math"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"

	"github.com/kilianp07/railops/core/model"
	"github.com/kilianp07/railops/core/plan"
)

// extract materializes the schedule from a solved model. It reads the
// response once and never consults the solver again; expectations the model
// guarantees (single route per vehicle-shift, contiguous maintenance blocks)
// are re-checked and reported as ErrExtraction when violated.
func extract(b *built, ds *model.Dataset, resp *cmpb.CpSolverResponse) (*plan.Schedule, error) {
	vehicles := make(map[string]plan.VehiclePlan, len(ds.Vehicles))
	totalRoutes := 0
	totalMaintenance := 0

	for vi, v := range ds.Vehicles {
		vp := plan.VehiclePlan{
			Routes:      make(map[string]plan.RouteRecord),
			Maintenance: make(map[string]plan.MaintenanceRecord),
		}

		for s := 0; s < b.numShifts; s++ {
			assigned := -1
			for _, ri := range b.routesByShift[s] {
				if !cpmodel.SolutionBooleanValue(resp, b.assign[vi][ri]) {
					continue
				}
				if assigned >= 0 {
					return nil, fmt.Errorf("%w: vehicle %s has two routes in shift %d", ErrExtraction, v.ID, s)
				}
				assigned = ri
			}
			if assigned < 0 {
				continue
			}
			r := ds.Routes[assigned]
			vp.Routes[r.ID] = plan.RouteRecord{
				Shift:         s,
				RouteID:       r.ID,
				StartLocation: r.StartLocation,
				EndLocation:   r.EndLocation,
				Km:            cpmodel.SolutionIntegerValue(resp, b.kmStart[vi][s]),
			}
			totalRoutes++
		}

		for ii, in := range b.inst {
			if in.VehicleIdx != vi {
				continue
			}
			iv := b.instVars[ii]
			if !cpmodel.SolutionBooleanValue(resp, iv.done) {
				continue
			}
			rec, err := maintenanceRecord(b, resp, in, iv)
			if err != nil {
				return nil, err
			}
			vp.Maintenance[in.ID] = rec
			totalMaintenance++
		}

		vehicles[v.ID] = vp
	}

	obj := int64(math.Round(resp.GetObjectiveValue()))
	return &plan.Schedule{
		Status:           mapStatus(resp.GetStatus()),
		ObjectiveValue:   &obj,
		WallTimeSeconds:  resp.GetWallTime(),
		TotalRoutes:      totalRoutes,
		TotalMaintenance: totalMaintenance,
		Vehicles:         vehicles,
	}, nil
}

// maintenanceRecord aggregates the instance's active shifts into one
// contiguous block and resolves the depot index back to its ID.
func maintenanceRecord(b *built, resp *cmpb.CpSolverResponse, in model.Instance, iv instanceVars) (plan.MaintenanceRecord, error) {
	first, last, count := -1, -1, 0
	for s := 0; s < b.numShifts; s++ {
		if !cpmodel.SolutionBooleanValue(resp, iv.active[s]) {
			continue
		}
		if first < 0 {
			first = s
		} else if s != last+1 {
			return plan.MaintenanceRecord{}, fmt.Errorf("%w: maintenance %s active shifts are not contiguous", ErrExtraction, in.ID)
		}
		last = s
		count++
	}
	if count != in.DurationShifts {
		return plan.MaintenanceRecord{}, fmt.Errorf("%w: maintenance %s occupies %d shifts, want %d", ErrExtraction, in.ID, count, in.DurationShifts)
	}
	start := int(cpmodel.SolutionIntegerValue(resp, iv.start))
	if start != first {
		return plan.MaintenanceRecord{}, fmt.Errorf("%w: maintenance %s starts at %d but is first active in %d", ErrExtraction, in.ID, start, first)
	}

	depotIdx := int(cpmodel.SolutionIntegerValue(resp, iv.depot))
	if depotIdx < 0 || depotIdx >= len(b.idx.LocationIDs) {
		return plan.MaintenanceRecord{}, fmt.Errorf("%w: maintenance %s assigned to unknown location index %d", ErrExtraction, in.ID, depotIdx)
	}

	return plan.MaintenanceRecord{
		MaintenanceType: in.TypeID,
		StartShift:      first,
		EndShift:        last,
		Depot:           b.idx.LocationIDs[depotIdx],
		Km:              cpmodel.SolutionIntegerValue(resp, iv.km),
	}, nil
}
