package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hidux/internal/value"
)

// TraceSnapshot is the golden form of a run: the scenario, the instance it
// created and every step's trace event.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	InstanceID   string       `json:"instance_id"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot to plain Go data for canonical JSON.
// Empty error and state fields are left out.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":    event.Step,
			"op":      event.Op,
			"path":    event.Path,
			"changed": event.Changed,
			"seq":     event.Seq,
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		if event.State != nil {
			eventMap["state"] = event.State
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"instance_id":   s.InstanceID,
		"trace":         traceList,
	}
}

// GoldenBytes renders a result as the canonical JSON stored in golden files.
func GoldenBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		InstanceID:   result.InstanceID,
		Trace:        result.Trace,
	}
	v, err := value.FromGo(snapshot.toCanonicalMap())
	if err != nil {
		return nil, err
	}
	return value.MarshalCanonical(v)
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
