package sink

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/railops/core/plan"
)

func TestJSONFileWrite(t *testing.T) {
	obj := int64(42)
	sched := &plan.Schedule{
		Status:         plan.StatusOptimal,
		ObjectiveValue: &obj,
		TotalRoutes:    3,
		Vehicles: map[string]plan.VehiclePlan{
			"vehicle_1": {
				Routes:      map[string]plan.RouteRecord{},
				Maintenance: map[string]plan.MaintenanceRecord{},
			},
		},
	}

	dir := t.TempDir()
	path, err := JSONFile{Dir: dir}.Write("run-1", sched)
	require.NoError(t, err)
	assert.Contains(t, path, "schedule_run-1.json")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got plan.Schedule
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, plan.StatusOptimal, got.Status)
	require.NotNil(t, got.ObjectiveValue)
	assert.EqualValues(t, 42, *got.ObjectiveValue)
}

func TestJSONFileGeneratesRunID(t *testing.T) {
	dir := t.TempDir()
	path, err := JSONFile{Dir: dir}.Write("", &plan.Schedule{Status: plan.StatusUnknown, Message: "timeout"})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
