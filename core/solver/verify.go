package solver

import (
	"fmt"

	"github.com/kilianp07/railops/core/model"
	"github.com/kilianp07/railops/core/plan"
)

// Verify replays a solved schedule against its dataset and checks every
// planning invariant: route coverage, vehicle exclusivity, location
// capacity, kilometer bookkeeping, maintenance deadlines, specialization,
// depot manhour budgets, corrective completion and objective soundness.
// It is the reference check used by the test suite and is usable by any
// result sink that wants to distrust the solver.
func Verify(ds *model.Dataset, days int, s *plan.Schedule) error {
	if !s.Status.Solved() {
		return fmt.Errorf("schedule status %s carries no plan to verify", s.Status)
	}
	numShifts := 2 * days
	idx := model.NewIndex(ds)
	inst := model.DeriveInstances(ds, idx)
	instByID := make(map[string]model.Instance, len(inst))
	for _, in := range inst {
		instByID[in.ID] = in
	}

	// Route coverage: every route exactly once, never on an odd shift.
	covered := make(map[string]string)
	for vid, vp := range s.Vehicles {
		for id, rr := range vp.Routes {
			if prev, dup := covered[id]; dup {
				return fmt.Errorf("route %s assigned to both %s and %s", id, prev, vid)
			}
			covered[id] = vid
			if rr.Shift < 0 || rr.Shift >= numShifts {
				return fmt.Errorf("route %s runs in shift %d outside the horizon", id, rr.Shift)
			}
			if rr.Shift%2 != 0 {
				return fmt.Errorf("route %s runs in night shift %d", id, rr.Shift)
			}
		}
	}
	for _, r := range ds.Routes {
		if _, ok := covered[r.ID]; !ok {
			return fmt.Errorf("route %s is not covered", r.ID)
		}
	}

	// Per-vehicle replay: occupancy, locations and kilometers per shift.
	type occupancy struct {
		route       string
		maintenance string
	}
	locAt := make(map[string][]int)
	kmAt := make(map[string][]int64)

	for _, v := range ds.Vehicles {
		vp := s.Vehicles[v.ID]
		busy := make([]occupancy, numShifts)
		routeAt := make([]*plan.RouteRecord, numShifts)
		for id, rr := range vp.Routes {
			if busy[rr.Shift].route != "" {
				return fmt.Errorf("vehicle %s runs %s and %s in shift %d", v.ID, busy[rr.Shift].route, id, rr.Shift)
			}
			busy[rr.Shift].route = id
			r := rr
			routeAt[rr.Shift] = &r
		}
		for id, mr := range vp.Maintenance {
			for sh := mr.StartShift; sh <= mr.EndShift; sh++ {
				if sh < 0 || sh >= numShifts {
					return fmt.Errorf("maintenance %s covers shift %d outside the horizon", id, sh)
				}
				if busy[sh].route != "" || busy[sh].maintenance != "" {
					return fmt.Errorf("vehicle %s is double-booked in shift %d", v.ID, sh)
				}
				busy[sh].maintenance = id
			}
		}

		locs := make([]int, numShifts+1)
		kms := make([]int64, numShifts+1)
		locs[0] = idx.LocationIndex[v.InitialLocation]
		kms[0] = v.InitialKm
		for sh := 0; sh < numShifts; sh++ {
			locs[sh+1] = locs[sh]
			kms[sh+1] = kms[sh]
			if rr := routeAt[sh]; rr != nil {
				if locs[sh] != idx.LocationIndex[rr.StartLocation] {
					return fmt.Errorf("vehicle %s is at %s but route %s departs from %s",
						v.ID, idx.LocationIDs[locs[sh]], rr.RouteID, rr.StartLocation)
				}
				if rr.Km != kms[sh] {
					return fmt.Errorf("route %s records km %d, vehicle odometer is %d", rr.RouteID, rr.Km, kms[sh])
				}
				locs[sh+1] = idx.LocationIndex[rr.EndLocation]
				kms[sh+1] += routeDistance(ds, rr.RouteID)
			}
			if kms[sh+1] < kms[sh] {
				return fmt.Errorf("vehicle %s odometer decreases in shift %d", v.ID, sh)
			}
		}
		locAt[v.ID] = locs
		kmAt[v.ID] = kms
	}

	// Location capacity over the whole horizon.
	for sh := 0; sh <= numShifts; sh++ {
		count := make(map[int]int)
		for _, locs := range locAt {
			count[locs[sh]]++
		}
		for li, n := range count {
			id := idx.LocationIDs[li]
			if c := ds.Locations[id].Capacity; n > c {
				return fmt.Errorf("location %s holds %d vehicles in shift %d, capacity %d", id, n, sh, c)
			}
		}
	}

	// Maintenance records: deadline, depot, specialization, km bookkeeping.
	type demand struct{ depot, shift int }
	manhours := make(map[demand]int64)
	var deviation int64
	for vid, vp := range s.Vehicles {
		for id, mr := range vp.Maintenance {
			in, ok := instByID[id]
			if !ok {
				return fmt.Errorf("maintenance %s does not correspond to a derived instance", id)
			}
			if in.VehicleID != vid {
				return fmt.Errorf("maintenance %s belongs to %s but appears under %s", id, in.VehicleID, vid)
			}
			if mr.Km > in.MaxKm {
				return fmt.Errorf("maintenance %s runs at km %d past its limit %d", id, mr.Km, in.MaxKm)
			}
			if mr.Km != kmAt[vid][mr.StartShift] {
				return fmt.Errorf("maintenance %s records km %d, vehicle odometer is %d", id, mr.Km, kmAt[vid][mr.StartShift])
			}
			if mr.EndShift-mr.StartShift+1 != in.DurationShifts {
				return fmt.Errorf("maintenance %s spans %d shifts, want %d", id, mr.EndShift-mr.StartShift+1, in.DurationShifts)
			}
			di, ok := idx.LocationIndex[mr.Depot]
			if !ok || ds.Locations[mr.Depot].Type != model.LocationDepot {
				return fmt.Errorf("maintenance %s assigned to non-depot %s", id, mr.Depot)
			}
			if !depotCapable(idx.CapableDepots(ds, in.Specialization), di) {
				return fmt.Errorf("maintenance %s needs %q, depot %s cannot provide it", id, in.Specialization, mr.Depot)
			}
			for sh := mr.StartShift; sh <= mr.EndShift; sh++ {
				if locAt[vid][sh] != di {
					return fmt.Errorf("maintenance %s runs at %s but vehicle %s is at %s in shift %d",
						id, mr.Depot, vid, idx.LocationIDs[locAt[vid][sh]], sh)
				}
				manhours[demand{di, sh}] += in.PerShiftManhours
			}
			if in.Kind == model.MaintenancePreventive {
				d := mr.Km - in.OptimalKm
				if d < 0 {
					d = -d
				}
				deviation += d
			}
		}
	}
	for dm, used := range manhours {
		id := idx.LocationIDs[dm.depot]
		if budget := ds.Locations[id].ManhoursPerShift; used > budget {
			return fmt.Errorf("depot %s uses %d manhours in shift %d, budget %d", id, used, dm.shift, budget)
		}
	}

	// Corrective completion.
	for _, in := range inst {
		if !in.Mandatory {
			continue
		}
		vp := s.Vehicles[in.VehicleID]
		if _, ok := vp.Maintenance[in.ID]; !ok {
			return fmt.Errorf("mandatory maintenance %s is missing from the schedule", in.ID)
		}
	}

	// Objective soundness. An optimal objective equals the total deviation
	// exactly; an incumbent from a cut-off search may still carry slack in
	// its deviation variables, so it only bounds the deviation from above.
	if s.ObjectiveValue == nil {
		return fmt.Errorf("solved schedule carries no objective value")
	}
	if s.Status == plan.StatusOptimal && *s.ObjectiveValue != deviation {
		return fmt.Errorf("objective value %d does not match total deviation %d", *s.ObjectiveValue, deviation)
	}
	if *s.ObjectiveValue < deviation {
		return fmt.Errorf("objective value %d is below the total deviation %d", *s.ObjectiveValue, deviation)
	}

	return nil
}

func routeDistance(ds *model.Dataset, id string) int64 {
	for _, r := range ds.Routes {
		if r.ID == id {
			return r.DistanceKm
		}
	}
	return 0
}
