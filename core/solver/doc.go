// Package solver builds the CP-SAT constraint model for the rail fleet
// planning problem, drives the solve and extracts the resulting schedule.
//
// The pipeline is strictly one-shot: a Planner validates the dataset, posts
// every constraint, runs CP-SAT with the configured time limit and worker
// count, and reads the response exactly once. No solver state survives a
// solve, so one Planner can serve sequential requests.
package solver
