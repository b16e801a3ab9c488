package solver

import "fmt"

// Params controls one solve invocation.
type Params struct {
	// TimeLimitSeconds is the hard wall-clock cap handed to CP-SAT.
	TimeLimitSeconds int `json:"time_limit_seconds"`
	// NumWorkers sets the solver's parallel search workers.
	NumWorkers int `json:"num_workers"`
	// PlanningDays is the horizon length; every day contributes a day and a
	// night shift.
	PlanningDays int `json:"planning_days"`
	// RandomSeed fixes the solver seed for reproducible searches.
	RandomSeed int `json:"random_seed"`
	// ForcePreventive schedules every derived preventive instance instead of
	// leaving it to the objective.
	ForcePreventive bool `json:"force_preventive"`
}

// SetDefaults applies the documented defaults to unset fields.
func (p *Params) SetDefaults() {
	if p.TimeLimitSeconds == 0 {
		p.TimeLimitSeconds = 60
	}
	if p.NumWorkers == 0 {
		p.NumWorkers = 1
	}
	if p.PlanningDays == 0 {
		p.PlanningDays = 14
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.TimeLimitSeconds < 1 {
		return fmt.Errorf("time_limit_seconds must be >= 1, got %d", p.TimeLimitSeconds)
	}
	if p.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be >= 1, got %d", p.NumWorkers)
	}
	if p.PlanningDays < 1 {
		return fmt.Errorf("planning_days must be >= 1, got %d", p.PlanningDays)
	}
	return nil
}
