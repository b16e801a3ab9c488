// Package analysis computes fleet KPIs over a solved schedule.
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/railops/core/model"
	"github.com/kilianp07/railops/core/plan"
)

// Report summarizes a solved schedule for operators: kilometer production,
// how evenly it is spread over the fleet, and how close preventive
// maintenance landed to its optimal kilometers.
type Report struct {
	FleetSize        int     `json:"fleet_size"`
	TotalKm          int64   `json:"total_km"`
	FinalKmMean      float64 `json:"final_km_mean"`
	FinalKmStdDev    float64 `json:"final_km_stddev"`
	RouteCoverage    int     `json:"route_coverage"`
	RoutesPerVehicle float64 `json:"routes_per_vehicle"`
	MaintenanceCount int     `json:"maintenance_count"`
	PreventiveCount  int     `json:"preventive_count"`
	DeviationTotal   int64   `json:"deviation_total"`
	DeviationMean    float64 `json:"deviation_mean"`
}

// Summarize builds a Report from a solved schedule. It fails on envelopes
// without a plan.
func Summarize(ds *model.Dataset, s *plan.Schedule) (Report, error) {
	if !s.Status.Solved() {
		return Report{}, fmt.Errorf("cannot summarize schedule with status %s", s.Status)
	}

	finalKm := make([]float64, 0, len(ds.Vehicles))
	var totalKm int64
	for _, v := range ds.Vehicles {
		km := v.InitialKm
		for _, rr := range s.Vehicles[v.ID].Routes {
			for _, r := range ds.Routes {
				if r.ID == rr.RouteID {
					km += r.DistanceKm
					totalKm += r.DistanceKm
					break
				}
			}
		}
		finalKm = append(finalKm, float64(km))
	}

	var deviations []float64
	var devTotal int64
	preventive := 0
	for _, v := range ds.Vehicles {
		for _, mr := range s.Vehicles[v.ID].Maintenance {
			mt, ok := ds.MaintenanceType(mr.MaintenanceType)
			if !ok || mt.Kind != model.MaintenancePreventive {
				continue
			}
			preventive++
			d := mr.Km - mt.OptimalKm
			if d < 0 {
				d = -d
			}
			devTotal += d
			deviations = append(deviations, float64(d))
		}
	}

	rep := Report{
		FleetSize:        len(ds.Vehicles),
		TotalKm:          totalKm,
		FinalKmMean:      stat.Mean(finalKm, nil),
		RouteCoverage:    s.TotalRoutes,
		MaintenanceCount: s.TotalMaintenance,
		PreventiveCount:  preventive,
		DeviationTotal:   devTotal,
	}
	if len(finalKm) > 1 {
		rep.FinalKmStdDev = stat.StdDev(finalKm, nil)
	}
	if len(ds.Vehicles) > 0 {
		rep.RoutesPerVehicle = float64(s.TotalRoutes) / float64(len(ds.Vehicles))
	}
	if len(deviations) > 0 {
		rep.DeviationMean = stat.Mean(deviations, nil)
	}
	return rep, nil
}
