package model

import "fmt"

// maxMaintenanceShifts caps how many consecutive shifts a single maintenance
// may occupy.
const maxMaintenanceShifts = 5

// Instance is one concrete maintenance execution to schedule: a pending task
// of a vehicle bound to its catalog entry, with the kilometer bound and the
// shift duration resolved at derivation time.
type Instance struct {
	ID         string
	VehicleIdx int
	VehicleID  string
	TypeID     string
	Kind       MaintenanceKind

	// MaxKm is the absolute odometer bound: the catalog MaxKm for preventive
	// work, initial km + remaining window for corrective work.
	MaxKm          int64
	OptimalKm      int64
	Specialization string
	SafetyCritical bool

	DurationShifts   int
	PerShiftManhours int64

	// Mandatory instances must be scheduled inside the horizon. Corrective
	// work is always mandatory; preventive work is mandatory only when the
	// caller forces it.
	Mandatory bool
}

func ceilDiv(a, b int64) int64 { return (a + b - 1) / b }

func durationShifts(manhours, nominal int64) int {
	if manhours <= 0 {
		return 1
	}
	d := ceilDiv(manhours, nominal)
	if d < 1 {
		d = 1
	}
	if d > maxMaintenanceShifts {
		d = maxMaintenanceShifts
	}
	return int(d)
}

func perShift(manhours, nominal int64) int64 {
	if manhours <= 0 {
		return 0
	}
	return ceilDiv(manhours, int64(durationShifts(manhours, nominal)))
}

// DeriveInstances expands pending tasks into maintenance instances. Every
// corrective task yields a mandatory instance. A preventive task yields an
// optional instance only when its next-due odometer is reachable inside the
// horizon, i.e. remaining km does not exceed the total route km on offer.
//
// The dataset must already be validated: unresolved type references panic
// here rather than being reported twice.
func DeriveInstances(d *Dataset, idx *Index) []Instance {
	nominal := idx.MinDepotManhours()
	horizonKm := d.TotalRouteKm()

	var out []Instance
	for vi, v := range d.Vehicles {
		for k, task := range v.PendingCorrective {
			mt := mustType(d, task.MaintenanceTypeID)
			out = append(out, Instance{
				ID:               fmt.Sprintf("%s_%s_%d", v.ID, mt.ID, k),
				VehicleIdx:       vi,
				VehicleID:        v.ID,
				TypeID:           mt.ID,
				Kind:             MaintenanceCorrective,
				MaxKm:            v.InitialKm + task.RemainingKm,
				Specialization:   mt.Specialization,
				SafetyCritical:   mt.SafetyCritical,
				DurationShifts:   durationShifts(mt.Manhours, nominal),
				PerShiftManhours: perShift(mt.Manhours, nominal),
				Mandatory:        true,
			})
		}
		for k, task := range v.PendingPreventive {
			mt := mustType(d, task.MaintenanceTypeID)
			if task.RemainingKm > horizonKm {
				continue
			}
			out = append(out, Instance{
				ID:               fmt.Sprintf("%s_%s_%d", v.ID, mt.ID, k),
				VehicleIdx:       vi,
				VehicleID:        v.ID,
				TypeID:           mt.ID,
				Kind:             MaintenancePreventive,
				MaxKm:            mt.MaxKm,
				OptimalKm:        mt.OptimalKm,
				Specialization:   mt.Specialization,
				DurationShifts:   durationShifts(mt.Manhours, nominal),
				PerShiftManhours: perShift(mt.Manhours, nominal),
			})
		}
	}
	return out
}

func mustType(d *Dataset, id string) MaintenanceType {
	mt, ok := d.MaintenanceType(id)
	if !ok {
		panic(fmt.Sprintf("unresolved maintenance type %q", id))
	}
	return mt
}
