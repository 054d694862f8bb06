package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// MarshalTrace renders a trace snapshot in its canonical golden form:
// two-space indented JSON with a trailing newline. Map keys come out
// sorted, so the rendering is byte-stable across runs.
func MarshalTrace(snap *TraceSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("harness: marshal trace: %w", err)
	}
	return append(data, '\n'), nil
}

// AssertGolden runs the scenario and compares its trace against the golden
// file named after the scenario. Regenerate goldens with go test -update.
func AssertGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	snap, err := Run(sc)
	if err != nil {
		t.Fatalf("run scenario %s: %v", sc.Name, err)
	}
	data, err := MarshalTrace(snap)
	if err != nil {
		t.Fatalf("marshal trace %s: %v", sc.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)
}
