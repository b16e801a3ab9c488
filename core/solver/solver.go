package solver

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"

	"github.com/kilianp07/railops/core/logger"
	"github.com/kilianp07/railops/core/model"
	"github.com/kilianp07/railops/core/plan"
)

// Recorder receives solve observations. Implementations live outside the
// core; NopRecorder keeps the dependency optional.
type Recorder interface {
	RecordSolve(status string, wallSeconds float64, objective int64)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) RecordSolve(string, float64, int64) {}

// solveCpModel points to the CP-SAT entry point. Tests override it to
// simulate solver outcomes without a full search.
var solveCpModel = cpmodel.SolveCpModelWithParameters

// Planner runs the build-solve-extract pipeline. It holds no per-solve
// state; one Planner may serve any number of sequential solves.
type Planner struct {
	log logger.Logger
	rec Recorder
}

// New returns a Planner. Nil arguments fall back to no-op implementations.
func New(log logger.Logger, rec Recorder) *Planner {
	if log == nil {
		log = logger.NopLogger{}
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Planner{log: log, rec: rec}
}

// Solve validates the dataset, builds the constraint model, runs CP-SAT and
// extracts the schedule. Non-schedulable solver outcomes (INFEASIBLE,
// MODEL_INVALID, UNKNOWN) are returned as an envelope schedule with a
// message; the error return is reserved for invalid input, model build
// failures, solver failures and extraction bugs.
func (p *Planner) Solve(ds *model.Dataset, params Params) (*plan.Schedule, error) {
	params.SetDefaults()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidInput, err)
	}
	if err := ds.Validate(params.PlanningDays); err != nil {
		return nil, err
	}

	idx := model.NewIndex(ds)
	inst := model.DeriveInstances(ds, idx)
	if params.ForcePreventive {
		for i := range inst {
			inst[i].Mandatory = true
		}
	}

	b := buildModel(ds, idx, inst, params.PlanningDays)
	m, err := b.cp.Model()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelInvalid, err)
	}
	p.log.Debugf("model built: %d vehicles, %d routes, %d maintenance instances, %d shifts",
		len(ds.Vehicles), len(ds.Routes), len(inst), b.numShifts)

	sat := &sppb.SatParameters{
		MaxTimeInSeconds: proto.Float64(float64(params.TimeLimitSeconds)),
		NumWorkers:       proto.Int32(int32(params.NumWorkers)),
		RandomSeed:       proto.Int32(int32(params.RandomSeed)),
	}
	resp, err := solveCpModel(m, sat)
	if err != nil {
		return nil, fmt.Errorf("cp-sat solve: %w", err)
	}

	status := mapStatus(resp.GetStatus())
	wall := resp.GetWallTime()

	var sched *plan.Schedule
	switch status {
	case plan.StatusOptimal, plan.StatusFeasible:
		sched, err = extract(b, ds, resp)
		if err != nil {
			return nil, err
		}
	case plan.StatusModelInvalid:
		p.log.Errorf("cp-sat rejected the model: %d variables, %d constraints",
			len(m.GetVariables()), len(m.GetConstraints()))
		sched = envelope(status, "solver rejected the constructed model", wall)
	case plan.StatusInfeasible:
		sched = envelope(status, "no feasible schedule exists for this dataset", wall)
	default:
		sched = envelope(plan.StatusUnknown, "time limit reached without a solution", wall)
	}

	var obj int64
	if sched.ObjectiveValue != nil {
		obj = *sched.ObjectiveValue
	}
	p.rec.RecordSolve(string(sched.Status), wall, obj)
	p.log.Infof("solve finished: status=%s wall=%.2fs routes=%d maintenance=%d",
		sched.Status, wall, sched.TotalRoutes, sched.TotalMaintenance)
	return sched, nil
}

func mapStatus(s cmpb.CpSolverStatus) plan.Status {
	switch s {
	case cmpb.CpSolverStatus_OPTIMAL:
		return plan.StatusOptimal
	case cmpb.CpSolverStatus_FEASIBLE:
		return plan.StatusFeasible
	case cmpb.CpSolverStatus_INFEASIBLE:
		return plan.StatusInfeasible
	case cmpb.CpSolverStatus_MODEL_INVALID:
		return plan.StatusModelInvalid
	default:
		return plan.StatusUnknown
	}
}

func envelope(status plan.Status, msg string, wall float64) *plan.Schedule {
	return &plan.Schedule{
		Status:          status,
		Message:         msg,
		WallTimeSeconds: wall,
	}
}
