package solver

import (
	"testing"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/railops/core/model"
	"github.com/kilianp07/railops/core/plan"
)

func testParams(days int) Params {
	return Params{
		TimeLimitSeconds: 10,
		NumWorkers:       1,
		PlanningDays:     days,
		RandomSeed:       1,
	}
}

func twoDepots(capacity int, manhours int64) map[string]model.Location {
	return map[string]model.Location{
		"depot_1": {Type: model.LocationDepot, Capacity: capacity, ManhoursPerShift: manhours},
		"depot_2": {Type: model.LocationDepot, Capacity: capacity, ManhoursPerShift: manhours},
	}
}

// A lone vehicle shuttles between the two depots; no maintenance is pending,
// so the objective is zero and every route is covered.
func TestSolveSingleVehicleRoutes(t *testing.T) {
	ds := &model.Dataset{
		Vehicles: []model.Vehicle{
			{ID: "vehicle_1", InitialLocation: "depot_1", InitialKm: 0},
		},
		Locations: twoDepots(2, 8),
		Routes: []model.Route{
			{ID: "route_d0", Day: 0, Shift: "day", StartLocation: "depot_1", EndLocation: "depot_2", DistanceKm: 100},
			{ID: "route_d1", Day: 1, Shift: "day", StartLocation: "depot_2", EndLocation: "depot_1", DistanceKm: 100},
		},
	}

	sched, err := New(nil, nil).Solve(ds, testParams(2))
	require.NoError(t, err)
	require.Equal(t, plan.StatusOptimal, sched.Status)
	require.NotNil(t, sched.ObjectiveValue)
	assert.EqualValues(t, 0, *sched.ObjectiveValue)
	assert.Equal(t, 2, sched.TotalRoutes)
	assert.Equal(t, 0, sched.TotalMaintenance)

	vp := sched.Vehicles["vehicle_1"]
	require.Contains(t, vp.Routes, "route_d0")
	require.Contains(t, vp.Routes, "route_d1")
	assert.EqualValues(t, 0, vp.Routes["route_d0"].Km)
	assert.EqualValues(t, 100, vp.Routes["route_d1"].Km)

	require.NoError(t, Verify(ds, 2, sched))
}

// A corrective task with a zero kilometer window must run before the vehicle
// moves at all, so the second vehicle takes the first day's route.
func TestSolveCorrectiveBeforeRoutes(t *testing.T) {
	ds := &model.Dataset{
		Vehicles: []model.Vehicle{
			{ID: "vehicle_1", InitialLocation: "depot_1", InitialKm: 0, PendingCorrective: []model.PendingTask{
				{MaintenanceTypeID: "corrective_1", RemainingKm: 0},
			}},
			{ID: "vehicle_2", InitialLocation: "depot_1", InitialKm: 0},
		},
		Locations: twoDepots(2, 8),
		MaintenanceTypes: []model.MaintenanceType{
			{ID: "corrective_1", Kind: model.MaintenanceCorrective, MaxKmWindow: 0, Manhours: 4},
		},
		Routes: []model.Route{
			{ID: "route_d0", Day: 0, Shift: "day", StartLocation: "depot_1", EndLocation: "depot_2", DistanceKm: 50},
			{ID: "route_d1", Day: 1, Shift: "day", StartLocation: "depot_1", EndLocation: "depot_2", DistanceKm: 50},
		},
	}

	sched, err := New(nil, nil).Solve(ds, testParams(2))
	require.NoError(t, err)
	require.Equal(t, plan.StatusOptimal, sched.Status)

	mr, ok := sched.Vehicles["vehicle_1"].Maintenance["vehicle_1_corrective_1_0"]
	require.True(t, ok, "corrective must be scheduled on vehicle_1")
	assert.Equal(t, "depot_1", mr.Depot)
	assert.EqualValues(t, 0, mr.Km)
	assert.LessOrEqual(t, mr.StartShift, 1)

	assert.Contains(t, sched.Vehicles["vehicle_2"].Routes, "route_d0")
	require.NoError(t, Verify(ds, 2, sched))
}

// The corrective task needs an electrical depot the vehicle cannot reach
// without exceeding its zero kilometer window.
func TestSolveSpecializationUnreachable(t *testing.T) {
	locations := twoDepots(2, 8)
	d2 := locations["depot_2"]
	d2.SpecializedMaintenance = []string{"electrical"}
	locations["depot_2"] = d2

	ds := &model.Dataset{
		Vehicles: []model.Vehicle{
			{ID: "vehicle_1", InitialLocation: "depot_1", InitialKm: 0, PendingCorrective: []model.PendingTask{
				{MaintenanceTypeID: "corrective_1", RemainingKm: 0},
			}},
			{ID: "vehicle_2", InitialLocation: "depot_1", InitialKm: 0},
		},
		Locations: locations,
		MaintenanceTypes: []model.MaintenanceType{
			{ID: "corrective_1", Kind: model.MaintenanceCorrective, MaxKmWindow: 0, Manhours: 4, Specialization: "electrical"},
		},
		Routes: []model.Route{
			{ID: "route_d0", Day: 0, Shift: "day", StartLocation: "depot_1", EndLocation: "depot_2", DistanceKm: 50},
			{ID: "route_d1", Day: 1, Shift: "day", StartLocation: "depot_1", EndLocation: "depot_2", DistanceKm: 50},
		},
	}

	sched, err := New(nil, nil).Solve(ds, testParams(2))
	require.NoError(t, err)
	assert.Equal(t, plan.StatusInfeasible, sched.Status)
	assert.NotEmpty(t, sched.Message)
	assert.Nil(t, sched.Vehicles)
}

func preventiveDataset(maxKm int64) *model.Dataset {
	return &model.Dataset{
		Vehicles: []model.Vehicle{
			{ID: "vehicle_1", InitialLocation: "depot_1", InitialKm: 9500, PendingPreventive: []model.PendingTask{
				{MaintenanceTypeID: "preventive_1", RemainingKm: 500},
			}},
		},
		Locations: twoDepots(2, 8),
		MaintenanceTypes: []model.MaintenanceType{
			{ID: "preventive_1", Kind: model.MaintenancePreventive, OptimalKm: 10000, MaxKm: maxKm, Manhours: 4},
		},
		Routes: []model.Route{
			{ID: "route_d1", Day: 1, Shift: "day", StartLocation: "depot_1", EndLocation: "depot_2", DistanceKm: 600},
		},
	}
}

// With a wide kilometer window the preventive work runs after the route at
// km 10100: a deviation of 100 beats the pre-route deviation of 500.
func TestSolvePreventiveNearOptimal(t *testing.T) {
	ds := preventiveDataset(11000)
	params := testParams(2)
	params.ForcePreventive = true

	sched, err := New(nil, nil).Solve(ds, params)
	require.NoError(t, err)
	require.Equal(t, plan.StatusOptimal, sched.Status)
	require.NotNil(t, sched.ObjectiveValue)
	assert.EqualValues(t, 100, *sched.ObjectiveValue)

	mr, ok := sched.Vehicles["vehicle_1"].Maintenance["vehicle_1_preventive_1_0"]
	require.True(t, ok)
	assert.EqualValues(t, 10100, mr.Km)
	assert.Equal(t, "depot_2", mr.Depot)
	require.NoError(t, Verify(ds, 2, sched))
}

// Tightening the window below the post-route odometer forces the work before
// the route at km 9500.
func TestSolvePreventiveTightWindow(t *testing.T) {
	ds := preventiveDataset(10050)
	params := testParams(2)
	params.ForcePreventive = true

	sched, err := New(nil, nil).Solve(ds, params)
	require.NoError(t, err)
	require.Equal(t, plan.StatusOptimal, sched.Status)
	require.NotNil(t, sched.ObjectiveValue)
	assert.EqualValues(t, 500, *sched.ObjectiveValue)

	mr, ok := sched.Vehicles["vehicle_1"].Maintenance["vehicle_1_preventive_1_0"]
	require.True(t, ok)
	assert.EqualValues(t, 9500, mr.Km)
	assert.Equal(t, "depot_1", mr.Depot)
	require.NoError(t, Verify(ds, 2, sched))
}

// Preventive work is optional by default: with no forcing flag, skipping it
// costs nothing and the solver leaves it unscheduled.
func TestSolvePreventiveOptionalByDefault(t *testing.T) {
	ds := preventiveDataset(11000)

	sched, err := New(nil, nil).Solve(ds, testParams(2))
	require.NoError(t, err)
	require.Equal(t, plan.StatusOptimal, sched.Status)
	require.NotNil(t, sched.ObjectiveValue)
	assert.EqualValues(t, 0, *sched.ObjectiveValue)
	assert.Equal(t, 0, sched.TotalMaintenance)
	require.NoError(t, Verify(ds, 2, sched))
}

// Capacity one everywhere with as many vehicles as locations: the fleet can
// only swap places, which the paired routes allow.
func TestSolveCapacityOne(t *testing.T) {
	ds := &model.Dataset{
		Vehicles: []model.Vehicle{
			{ID: "vehicle_1", InitialLocation: "depot_1", InitialKm: 0},
			{ID: "vehicle_2", InitialLocation: "depot_2", InitialKm: 0},
		},
		Locations: twoDepots(1, 8),
		Routes: []model.Route{
			{ID: "route_a", Day: 0, Shift: "day", StartLocation: "depot_1", EndLocation: "depot_2", DistanceKm: 80},
			{ID: "route_b", Day: 0, Shift: "day", StartLocation: "depot_2", EndLocation: "depot_1", DistanceKm: 80},
		},
	}

	sched, err := New(nil, nil).Solve(ds, testParams(1))
	require.NoError(t, err)
	require.Equal(t, plan.StatusOptimal, sched.Status)
	assert.Equal(t, 2, sched.TotalRoutes)
	require.NoError(t, Verify(ds, 1, sched))
}

// A uniquely specialized type must land on the one capable depot.
func TestSolveSpecializationUniqueDepot(t *testing.T) {
	locations := twoDepots(2, 8)
	d2 := locations["depot_2"]
	d2.SpecializedMaintenance = []string{"electrical"}
	locations["depot_2"] = d2

	ds := &model.Dataset{
		Vehicles: []model.Vehicle{
			{ID: "vehicle_1", InitialLocation: "depot_2", InitialKm: 0, PendingCorrective: []model.PendingTask{
				{MaintenanceTypeID: "corrective_1", RemainingKm: 500},
			}},
			{ID: "vehicle_2", InitialLocation: "depot_1", InitialKm: 0},
		},
		Locations: locations,
		MaintenanceTypes: []model.MaintenanceType{
			{ID: "corrective_1", Kind: model.MaintenanceCorrective, MaxKmWindow: 500, Manhours: 4, Specialization: "electrical"},
		},
		Routes: []model.Route{
			{ID: "route_d0", Day: 0, Shift: "day", StartLocation: "depot_1", EndLocation: "depot_2", DistanceKm: 50},
		},
	}

	sched, err := New(nil, nil).Solve(ds, testParams(2))
	require.NoError(t, err)
	require.Equal(t, plan.StatusOptimal, sched.Status)

	mr, ok := sched.Vehicles["vehicle_1"].Maintenance["vehicle_1_corrective_1_0"]
	require.True(t, ok)
	assert.Equal(t, "depot_2", mr.Depot)
	require.NoError(t, Verify(ds, 2, sched))
}

// Two single-worker solves with the same seed agree on the objective.
func TestSolveDeterministic(t *testing.T) {
	ds := preventiveDataset(11000)
	params := testParams(2)
	params.ForcePreventive = true

	p := New(nil, nil)
	first, err := p.Solve(ds, params)
	require.NoError(t, err)
	second, err := p.Solve(ds, params)
	require.NoError(t, err)

	require.Equal(t, first.Status, second.Status)
	require.NotNil(t, first.ObjectiveValue)
	require.NotNil(t, second.ObjectiveValue)
	assert.Equal(t, *first.ObjectiveValue, *second.ObjectiveValue)
	assert.Equal(t, first.TotalRoutes, second.TotalRoutes)
	assert.Equal(t, first.TotalMaintenance, second.TotalMaintenance)
}

func TestSolveInvalidDataset(t *testing.T) {
	ds := &model.Dataset{
		Vehicles: []model.Vehicle{{ID: "vehicle_1", InitialLocation: "nowhere"}},
		Locations: map[string]model.Location{
			"depot_1": {Type: model.LocationDepot, Capacity: 2},
			"depot_2": {Type: model.LocationDepot, Capacity: 2},
		},
	}
	_, err := New(nil, nil).Solve(ds, testParams(1))
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSolveParamsValidation(t *testing.T) {
	ds := preventiveDataset(11000)
	_, err := New(nil, nil).Solve(ds, Params{TimeLimitSeconds: -1})
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

type captureRecorder struct {
	status string
	calls  int
}

func (c *captureRecorder) RecordSolve(status string, _ float64, _ int64) {
	c.status = status
	c.calls++
}

// Fabricated solver responses map onto envelope schedules without touching
// the extractor.
func TestSolveStatusEnvelopes(t *testing.T) {
	orig := solveCpModel
	defer func() { solveCpModel = orig }()

	cases := []struct {
		name   string
		status cmpb.CpSolverStatus
		want   plan.Status
	}{
		{"infeasible", cmpb.CpSolverStatus_INFEASIBLE, plan.StatusInfeasible},
		{"model_invalid", cmpb.CpSolverStatus_MODEL_INVALID, plan.StatusModelInvalid},
		{"unknown", cmpb.CpSolverStatus_UNKNOWN, plan.StatusUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			solveCpModel = func(_ *cmpb.CpModelProto, _ *sppb.SatParameters) (*cmpb.CpSolverResponse, error) {
				return &cmpb.CpSolverResponse{Status: tc.status, WallTime: 0.5}, nil
			}
			rec := &captureRecorder{}
			sched, err := New(nil, rec).Solve(preventiveDataset(11000), testParams(2))
			require.NoError(t, err)
			assert.Equal(t, tc.want, sched.Status)
			assert.NotEmpty(t, sched.Message)
			assert.Nil(t, sched.Vehicles)
			assert.Nil(t, sched.ObjectiveValue)
			assert.Equal(t, string(tc.want), rec.status)
			assert.Equal(t, 1, rec.calls)
		})
	}
}
