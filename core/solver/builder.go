package solver

import (
	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/kilianp07/railops/core/model"
)

// kmSafetyMargin widens the global kilometer bound beyond the worst case the
// horizon can produce.
const kmSafetyMargin = 1000

// instanceVars bundles the decision variables of one maintenance instance.
type instanceVars struct {
	done   cpmodel.BoolVar
	start  cpmodel.IntVar
	depot  cpmodel.IntVar
	km     cpmodel.IntVar
	active []cpmodel.BoolVar
	dev    cpmodel.IntVar
	hasDev bool
}

// built holds the model under construction together with every variable the
// extractor needs to read back.
type built struct {
	cp   *cpmodel.Builder
	idx  *model.Index
	inst []model.Instance

	days      int
	numShifts int
	kMax      int64

	// assign[v][r] is true when vehicle v runs route r.
	assign [][]cpmodel.BoolVar
	// routesByShift[s] lists route indexes running in shift s.
	routesByShift [][]int
	// locStart[v][s] and kmStart[v][s] are defined for s in [0, numShifts],
	// the last entry being the end-of-horizon state.
	locStart [][]cpmodel.IntVar
	kmStart  [][]cpmodel.IntVar

	instVars []instanceVars
}

// buildModel allocates all decision variables and posts the route coverage,
// exclusivity, location, kilometer, maintenance and manhour constraints plus
// the deviation objective.
func buildModel(ds *model.Dataset, idx *model.Index, inst []model.Instance, days int) *built {
	b := &built{
		cp:        cpmodel.NewCpModelBuilder(),
		idx:       idx,
		inst:      inst,
		days:      days,
		numShifts: 2 * days,
	}

	var maxInitial int64
	for _, v := range ds.Vehicles {
		if v.InitialKm > maxInitial {
			maxInitial = v.InitialKm
		}
	}
	b.kMax = maxInitial + ds.TotalRouteKm() + kmSafetyMargin

	b.routesByShift = make([][]int, b.numShifts)
	for ri, r := range ds.Routes {
		s := r.ShiftIndex()
		b.routesByShift[s] = append(b.routesByShift[s], ri)
	}

	b.addAssignmentVars(ds)
	b.addStateVars(ds)
	b.addInstanceVars(ds)

	b.addRouteCoverage(ds)
	b.addExclusivity(ds)
	b.addLocationTransitions(ds)
	b.addLocationCapacity(ds)
	b.addKmAccumulation(ds)
	b.addMaintenanceConstraints(ds)
	b.addDepotManhours(ds)
	b.addObjective()

	return b
}

func (b *built) addAssignmentVars(ds *model.Dataset) {
	b.assign = make([][]cpmodel.BoolVar, len(ds.Vehicles))
	for vi, v := range ds.Vehicles {
		b.assign[vi] = make([]cpmodel.BoolVar, len(ds.Routes))
		for ri, r := range ds.Routes {
			b.assign[vi][ri] = b.cp.NewBoolVar().WithName("assign_" + v.ID + "_" + r.ID)
		}
	}
}

func (b *built) addStateVars(ds *model.Dataset) {
	numLocs := int64(len(b.idx.LocationIDs))
	b.locStart = make([][]cpmodel.IntVar, len(ds.Vehicles))
	b.kmStart = make([][]cpmodel.IntVar, len(ds.Vehicles))
	for vi, v := range ds.Vehicles {
		b.locStart[vi] = make([]cpmodel.IntVar, b.numShifts+1)
		b.kmStart[vi] = make([]cpmodel.IntVar, b.numShifts+1)
		for s := 0; s <= b.numShifts; s++ {
			b.locStart[vi][s] = b.cp.NewIntVar(0, numLocs-1)
			b.kmStart[vi][s] = b.cp.NewIntVar(0, b.kMax)
		}
		b.cp.AddEquality(b.locStart[vi][0], cpmodel.NewConstant(int64(b.idx.LocationIndex[v.InitialLocation])))
		b.cp.AddEquality(b.kmStart[vi][0], cpmodel.NewConstant(v.InitialKm))
	}
}

func (b *built) addInstanceVars(ds *model.Dataset) {
	b.instVars = make([]instanceVars, len(b.inst))
	for ii, in := range b.inst {
		capable := b.idx.CapableDepots(ds, in.Specialization)
		depotValues := make([]int64, len(capable))
		for i, d := range capable {
			depotValues[i] = int64(d)
		}

		iv := instanceVars{
			done:   b.cp.NewBoolVar().WithName("done_" + in.ID),
			start:  b.cp.NewIntVar(0, int64(b.numShifts-1)).WithName("start_" + in.ID),
			depot:  b.cp.NewIntVarFromDomain(cpmodel.FromValues(depotValues)),
			km:     b.cp.NewIntVar(0, b.kMax),
			active: make([]cpmodel.BoolVar, b.numShifts),
		}
		for s := 0; s < b.numShifts; s++ {
			iv.active[s] = b.cp.NewBoolVar()
		}
		if in.Kind == model.MaintenancePreventive {
			iv.dev = b.cp.NewIntVar(0, b.kMax)
			iv.hasDev = true
		}
		if in.Mandatory {
			b.cp.AddBoolOr(iv.done)
		}
		b.instVars[ii] = iv
	}
}

// Every route is covered by exactly one vehicle.
func (b *built) addRouteCoverage(ds *model.Dataset) {
	for ri := range ds.Routes {
		vars := make([]cpmodel.BoolVar, len(ds.Vehicles))
		for vi := range ds.Vehicles {
			vars[vi] = b.assign[vi][ri]
		}
		b.cp.AddExactlyOne(vars...)
	}
}

// A vehicle does at most one thing per shift: one route or one active
// maintenance.
func (b *built) addExclusivity(ds *model.Dataset) {
	for vi := range ds.Vehicles {
		for s := 0; s < b.numShifts; s++ {
			var lits []cpmodel.BoolVar
			for _, ri := range b.routesByShift[s] {
				lits = append(lits, b.assign[vi][ri])
			}
			for ii, in := range b.inst {
				if in.VehicleIdx == vi {
					lits = append(lits, b.instVars[ii].active[s])
				}
			}
			if len(lits) > 1 {
				b.cp.AddAtMostOne(lits...)
			}
		}
	}
}

// Location transitions: a route moves the vehicle from its start to its end
// location; without a route the vehicle stays put. Night shifts carry no
// routes, so locations are frozen across them; maintenance continuity is
// posted separately and agrees with the freeze.
func (b *built) addLocationTransitions(ds *model.Dataset) {
	for vi := range ds.Vehicles {
		for s := 0; s < b.numShifts; s++ {
			routes := b.routesByShift[s]
			if len(routes) == 0 {
				b.cp.AddEquality(b.locStart[vi][s+1], b.locStart[vi][s])
				continue
			}

			noRoute := b.cp.NewBoolVar()
			assigned := cpmodel.NewLinearExpr()
			for _, ri := range routes {
				r := ds.Routes[ri]
				lit := b.assign[vi][ri]
				assigned.Add(lit)
				startLoc := int64(b.idx.LocationIndex[r.StartLocation])
				endLoc := int64(b.idx.LocationIndex[r.EndLocation])
				b.cp.AddEquality(b.locStart[vi][s], cpmodel.NewConstant(startLoc)).OnlyEnforceIf(lit)
				b.cp.AddEquality(b.locStart[vi][s+1], cpmodel.NewConstant(endLoc)).OnlyEnforceIf(lit)
			}
			b.cp.AddEquality(assigned, cpmodel.NewConstant(0)).OnlyEnforceIf(noRoute)
			b.cp.AddGreaterOrEqual(assigned, cpmodel.NewConstant(1)).OnlyEnforceIf(noRoute.Not())
			b.cp.AddEquality(b.locStart[vi][s+1], b.locStart[vi][s]).OnlyEnforceIf(noRoute)
		}
	}
}

// Simultaneous residents of a location never exceed its capacity. Locations
// roomy enough for the whole fleet need no constraint.
func (b *built) addLocationCapacity(ds *model.Dataset) {
	for li, id := range b.idx.LocationIDs {
		loc := ds.Locations[id]
		if loc.Capacity >= len(ds.Vehicles) {
			continue
		}
		for s := 0; s <= b.numShifts; s++ {
			resident := cpmodel.NewLinearExpr()
			for vi := range ds.Vehicles {
				at := b.cp.NewBoolVar()
				b.cp.AddEquality(b.locStart[vi][s], cpmodel.NewConstant(int64(li))).OnlyEnforceIf(at)
				b.cp.AddNotEqual(b.locStart[vi][s], cpmodel.NewConstant(int64(li))).OnlyEnforceIf(at.Not())
				resident.Add(at)
			}
			b.cp.AddLessOrEqual(resident, cpmodel.NewConstant(int64(loc.Capacity)))
		}
	}
}

// Kilometers accumulate with assigned route distances; maintenance and idle
// shifts add nothing.
func (b *built) addKmAccumulation(ds *model.Dataset) {
	for vi := range ds.Vehicles {
		for s := 0; s < b.numShifts; s++ {
			next := cpmodel.NewLinearExpr().Add(b.kmStart[vi][s])
			for _, ri := range b.routesByShift[s] {
				next.AddTerm(b.assign[vi][ri], ds.Routes[ri].DistanceKm)
			}
			b.cp.AddEquality(b.kmStart[vi][s+1], next)
		}
	}
}

// Maintenance instance constraints: km recording at the start shift, the
// max-km bound, depot presence, location continuity while active, and the
// coupling between the start variable and the active literals.
func (b *built) addMaintenanceConstraints(ds *model.Dataset) {
	for ii, in := range b.inst {
		iv := b.instVars[ii]
		vi := in.VehicleIdx
		dur := in.DurationShifts

		// Odometer reading at the start of the maintenance shift.
		b.cp.AddVariableElement(iv.start, b.kmStart[vi][:b.numShifts], iv.km)

		// Hard kilometer deadline, enforced only when scheduled.
		b.cp.AddLessOrEqual(iv.km, cpmodel.NewConstant(in.MaxKm)).OnlyEnforceIf(iv.done)

		// The vehicle sits at the chosen depot when the work begins.
		locAtStart := b.cp.NewIntVar(0, int64(len(b.idx.LocationIDs)-1))
		b.cp.AddVariableElement(iv.start, b.locStart[vi][:b.numShifts], locAtStart)
		b.cp.AddEquality(locAtStart, iv.depot).OnlyEnforceIf(iv.done)

		// The interval must fit inside the horizon.
		b.cp.AddLessOrEqual(iv.start, cpmodel.NewConstant(int64(b.numShifts-dur))).OnlyEnforceIf(iv.done)

		// Active literals cover exactly the [start, start+dur) window when
		// the work is scheduled, and nothing otherwise.
		total := cpmodel.NewLinearExpr()
		for s := 0; s < b.numShifts; s++ {
			lit := iv.active[s]
			total.Add(lit)
			b.cp.AddImplication(lit, iv.done)
			b.cp.AddLessOrEqual(iv.start, cpmodel.NewConstant(int64(s))).OnlyEnforceIf(lit)
			b.cp.AddGreaterOrEqual(iv.start, cpmodel.NewConstant(int64(s-dur+1))).OnlyEnforceIf(lit)

			// The vehicle stays put for the duration of the work.
			b.cp.AddEquality(b.locStart[vi][s+1], b.locStart[vi][s]).OnlyEnforceIf(lit)
		}
		b.cp.AddEquality(total, cpmodel.NewLinearExpr().AddTerm(iv.done, int64(dur)))
	}
}

// Per-depot manhour budgets, modeled as one cumulative resource per depot
// over the shift axis. Each instance contributes an optional interval that is
// present exactly when the work is scheduled at that depot.
func (b *built) addDepotManhours(ds *model.Dataset) {
	for _, di := range b.idx.DepotIndexes {
		depot := ds.Locations[b.idx.LocationIDs[di]]
		cum := b.cp.AddCumulative(cpmodel.NewConstant(depot.ManhoursPerShift))
		for ii, in := range b.inst {
			iv := b.instVars[ii]
			if !depotCapable(b.idx.CapableDepots(ds, in.Specialization), di) {
				continue
			}
			atDepot := b.cp.NewBoolVar()
			b.cp.AddEquality(iv.depot, cpmodel.NewConstant(int64(di))).OnlyEnforceIf(atDepot)
			b.cp.AddNotEqual(iv.depot, cpmodel.NewConstant(int64(di))).OnlyEnforceIf(atDepot.Not())

			present := b.cp.NewBoolVar()
			b.cp.AddBoolAnd(atDepot, iv.done).OnlyEnforceIf(present)
			b.cp.AddBoolOr(atDepot.Not(), iv.done.Not()).OnlyEnforceIf(present.Not())

			interval := b.cp.NewOptionalFixedSizeIntervalVar(iv.start, int64(in.DurationShifts), present)
			cum.AddDemand(interval, cpmodel.NewConstant(in.PerShiftManhours))
		}
	}
}

// Minimize total absolute deviation of preventive execution km from optimal
// km, linearized with two guarded inequalities per instance.
func (b *built) addObjective() {
	obj := cpmodel.NewLinearExpr()
	any := false
	for ii, in := range b.inst {
		iv := b.instVars[ii]
		if !iv.hasDev {
			continue
		}
		over := cpmodel.NewLinearExpr().Add(iv.km).AddConstant(-in.OptimalKm)
		under := cpmodel.NewConstant(in.OptimalKm).AddTerm(iv.km, -1)
		b.cp.AddGreaterOrEqual(iv.dev, over).OnlyEnforceIf(iv.done)
		b.cp.AddGreaterOrEqual(iv.dev, under).OnlyEnforceIf(iv.done)
		b.cp.AddEquality(iv.dev, cpmodel.NewConstant(0)).OnlyEnforceIf(iv.done.Not())
		obj.Add(iv.dev)
		any = true
	}
	if any {
		b.cp.Minimize(obj)
	}
}

func depotCapable(capable []int, di int) bool {
	for _, c := range capable {
		if c == di {
			return true
		}
	}
	return false
}
